// Package testhelpers provides reusable testing utilities for Ideaboard.
//
// This package contains:
// - In-memory database setup
// - HTTP test helpers (requests, recorders, assertions)
// - Test data builders
// - Stub collaborators (telemetry recorder, embedding client)
package testhelpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ========================================
// Database Helpers
// ========================================

// OpenTestDB opens an in-memory sqlite database with all migrations applied
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// CountRows returns the number of rows matching the model and conditions
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

// ========================================
// HTTP Test Helpers
// ========================================

// HTTPTestContext holds components for HTTP handler testing
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  req,
	}
}

// WithHeader adds a header to the request
func (ctx *HTTPTestContext) WithHeader(key, value string) *HTTPTestContext {
	ctx.Request.Header.Set(key, value)
	return ctx
}

// WithJSONBody sets JSON body on the request
func (ctx *HTTPTestContext) WithJSONBody(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		ctx.T.Fatalf("failed to marshal JSON body: %v", err)
	}
	ctx.Request = httptest.NewRequest(ctx.Request.Method, ctx.Request.URL.String(), bytes.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx
}

// WithBearerToken adds Authorization Bearer header
func (ctx *HTTPTestContext) WithBearerToken(token string) *HTTPTestContext {
	return ctx.WithHeader("Authorization", "Bearer "+token)
}

// WithContext swaps the request context
func (ctx *HTTPTestContext) WithContext(c context.Context) *HTTPTestContext {
	ctx.Request = ctx.Request.WithContext(c)
	return ctx
}

// Execute runs the handler and returns the response
func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

// AssertStatus checks the response status code
func (ctx *HTTPTestContext) AssertStatus(expected int) *HTTPTestContext {
	ctx.T.Helper()
	if ctx.Recorder.Code != expected {
		ctx.T.Errorf("expected status %d, got %d. Body: %s", expected, ctx.Recorder.Code, ctx.Recorder.Body.String())
	}
	return ctx
}

// AssertBodyContains checks if response body contains substring
func (ctx *HTTPTestContext) AssertBodyContains(substr string) *HTTPTestContext {
	ctx.T.Helper()
	body := ctx.Recorder.Body.String()
	if !strings.Contains(body, substr) {
		ctx.T.Errorf("expected body to contain %q, got: %s", substr, body)
	}
	return ctx
}

// DecodeJSON decodes response body as JSON
func (ctx *HTTPTestContext) DecodeJSON(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	if err := json.NewDecoder(ctx.Recorder.Body).Decode(v); err != nil {
		ctx.T.Fatalf("failed to decode JSON response: %v", err)
	}
	return ctx
}

// ========================================
// Stub Collaborators
// ========================================

// StubTelemetry is a TelemetryRecorder that captures events in memory
type StubTelemetry struct {
	mu     sync.Mutex
	Events []database.DedupeEvent
}

// NewStubTelemetry creates a new capturing telemetry recorder
func NewStubTelemetry() *StubTelemetry {
	return &StubTelemetry{}
}

// Record captures the event
func (s *StubTelemetry) Record(event database.DedupeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
}

// EventsOfType returns captured events with the given type
func (s *StubTelemetry) EventsOfType(t database.DedupeEventType) []database.DedupeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []database.DedupeEvent
	for _, e := range s.Events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// StubEmbedClient returns canned vectors keyed by input text
type StubEmbedClient struct {
	Vectors map[string][]float32
	Default []float32
	Err     error
	Calls   int
}

// Embed returns the configured vector for each input
func (s *StubEmbedClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if v, ok := s.Vectors[in]; ok {
			out[i] = v
		} else if s.Default != nil {
			out[i] = s.Default
		} else {
			return nil, fmt.Errorf("no stub vector for input %q", in)
		}
	}
	return out, nil
}

// Model returns the stub model name
func (s *StubEmbedClient) Model() string {
	return "stub-embedding-model"
}
