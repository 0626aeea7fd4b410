// Package jobs holds background workers that run alongside the request path.
package jobs

import (
	"context"
	"sync"

	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
	"gorm.io/gorm"
)

// EventPublisher receives every recorded event for live fan-out (the
// dashboard websocket feed). May be nil.
type EventPublisher interface {
	Publish(event database.DedupeEvent)
}

// TelemetryWorker writes dedupe events to the database from a single
// background goroutine behind a bounded queue. Recording never blocks the
// request path: when the queue is full the event is dropped and counted.
// Write failures are logged and swallowed; telemetry must never affect the
// primary operation.
type TelemetryWorker struct {
	db        *gorm.DB
	log       *logger.Logger
	publisher EventPublisher

	events  chan database.DedupeEvent
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	dropped int64
}

// NewTelemetryWorker creates a worker with the given queue size. publisher
// may be nil.
func NewTelemetryWorker(db *gorm.DB, queueSize int, publisher EventPublisher, log *logger.Logger) *TelemetryWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &TelemetryWorker{
		db:        db,
		log:       log.With("worker", "telemetry"),
		publisher: publisher,
		events:    make(chan database.DedupeEvent, queueSize),
		done:      make(chan struct{}),
	}
}

// Start launches the background goroutine. Safe to call once.
func (w *TelemetryWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop drains the queue and waits for the goroutine to exit.
func (w *TelemetryWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
}

// Record enqueues an event. Non-blocking: drops the event if the queue is
// full.
func (w *TelemetryWorker) Record(event database.DedupeEvent) {
	select {
	case w.events <- event:
	default:
		w.mu.Lock()
		w.dropped++
		dropped := w.dropped
		w.mu.Unlock()
		w.log.Warn("telemetry queue full, event dropped",
			"event_type", event.EventType, "total_dropped", dropped)
	}
}

// Dropped returns how many events were dropped due to a full queue.
func (w *TelemetryWorker) Dropped() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

func (w *TelemetryWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case event := <-w.events:
			w.write(event)
		case <-w.done:
			w.drain()
			return
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

// drain flushes whatever is already queued, without waiting for more.
func (w *TelemetryWorker) drain() {
	for {
		select {
		case event := <-w.events:
			w.write(event)
		default:
			return
		}
	}
}

func (w *TelemetryWorker) write(event database.DedupeEvent) {
	if !database.IsValidDedupeEventType(event.EventType) {
		w.log.Warn("dropping event with unknown type", "event_type", event.EventType)
		return
	}
	if err := w.db.Create(&event).Error; err != nil {
		w.log.Error("failed to write dedupe event",
			"event_type", event.EventType,
			"workspace_id", event.WorkspaceID,
			"error", err)
		return
	}
	if w.publisher != nil {
		w.publisher.Publish(event)
	}
}
