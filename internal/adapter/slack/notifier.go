// Package slack implements a notifier.Notifier for Slack incoming
// webhooks, used to escalate moderation and ledger events to the
// operations channel.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/salamjillani/mauritius-property-hub/internal/port/notifier"
)

const providerName = "slack"

// Notifier posts color-coded attachment messages to a Slack webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier creates a Slack notifier with the given webhook URL.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: http.DefaultClient,
	}
}

func (n *Notifier) Name() string { return providerName }

// slackMessage is the webhook payload. Text is the plain fallback shown
// in push notifications; the attachment carries the color bar.
type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string `json:"color"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Footer string `json:"footer,omitempty"`
}

func buildMessage(notification notifier.Notification) slackMessage {
	return slackMessage{
		Text: notification.Title,
		Attachments: []slackAttachment{{
			Color:  levelColor(notification.Level),
			Title:  notification.Title,
			Text:   notification.Message,
			Footer: notification.Source,
		}},
	}
}

func (n *Notifier) Send(ctx context.Context, notification notifier.Notification) error {
	if n.webhookURL == "" {
		return notifier.ErrNotConfigured
	}

	body, err := json.Marshal(buildMessage(notification))
	if err != nil {
		return fmt.Errorf("slack marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack API %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// levelColor maps a notification level to the attachment color bar.
func levelColor(level string) string {
	switch level {
	case "success":
		return "#2eb67d"
	case "error":
		return "#e01e5a"
	case "warning":
		return "#ecb22e"
	default:
		return "#36c5f0"
	}
}
