// Package notify posts best-effort notifications to external channels.
package notify

import (
	"fmt"

	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
	"github.com/slack-go/slack"
)

// SlackNotifier announces new duplicate suggestions to a Slack channel.
// Everything here is best-effort: post failures are logged and swallowed,
// and posting happens off the request goroutine.
type SlackNotifier struct {
	client         *slack.Client
	defaultChannel string
	log            *logger.Logger
}

// NewSlackNotifier creates a notifier. Returns nil if no token is
// configured, which callers treat as "notifications disabled". The default
// channel may be empty when every workspace configures its own.
func NewSlackNotifier(botToken, defaultChannel string, log *logger.Logger) *SlackNotifier {
	if botToken == "" {
		return nil
	}
	return &SlackNotifier{
		client:         slack.New(botToken),
		defaultChannel: defaultChannel,
		log:            log.With("notifier", "slack"),
	}
}

// NotifySuggestion posts a message about a newly detected candidate pair to
// the given channel, falling back to the default channel when it is empty.
func (n *SlackNotifier) NotifySuggestion(channel string, source, duplicate database.Idea, similarityScore int) {
	if n == nil {
		return
	}
	if channel == "" {
		channel = n.defaultChannel
	}
	if channel == "" {
		n.log.Debug("no slack channel configured, dropping notification",
			"workspace_id", source.WorkspaceID)
		return
	}
	text := fmt.Sprintf(
		":mag: Possible duplicate detected (%d%% similar)\n• *%s*\n• *%s*",
		similarityScore, source.Title, duplicate.Title)

	go func() {
		_, _, err := n.client.PostMessage(channel,
			slack.MsgOptionText(text, false),
			slack.MsgOptionDisableLinkUnfurl(),
		)
		if err != nil {
			n.log.Warn("failed to post suggestion notification",
				"channel", channel, "error", err)
		}
	}()
}
