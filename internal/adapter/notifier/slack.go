package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/semmidev/pgshelf/internal/config"
	"github.com/semmidev/pgshelf/internal/domain"
)

const (
	colorGood   = "good"
	colorDanger = "danger"
)

// SlackPayload is the body posted to a Slack incoming webhook.
type SlackPayload struct {
	Attachments []SlackAttachment `json:"attachments"`
	Username    string            `json:"username"`
	Channel     string            `json:"channel,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
}

type SlackAttachment struct {
	Color   string `json:"color"`
	Pretext string `json:"pretext,omitempty"`
	Text    string `json:"text"`
}

type Slack struct {
	config config.SlackConfig
	client *http.Client
}

func NewSlack(cfg config.SlackConfig) *Slack {
	return &Slack{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *Slack) Name() string {
	return "slack"
}

// Payload builds the message for an outcome. A failure with detail puts the
// failure message in the pretext and the detail in the text.
func (s *Slack) Payload(outcome domain.Outcome) SlackPayload {
	attachment := SlackAttachment{Color: colorGood, Text: s.config.SuccessMessage}

	if failure, ok := outcome.(*domain.Failure); ok {
		attachment.Color = colorDanger
		attachment.Text = s.config.FailureMessage
		if failure.Detail != "" {
			attachment.Pretext = s.config.FailureMessage
			attachment.Text = failure.Detail
		}
	}

	return SlackPayload{
		Attachments: []SlackAttachment{attachment},
		Username:    s.config.BotName,
		Channel:     s.config.Channel,
		IconEmoji:   s.config.Emoji,
	}
}

// Notify posts the payload and returns the raw response body. The status code
// is not checked.
func (s *Slack) Notify(ctx context.Context, report domain.Report) (string, error) {
	body, err := json.Marshal(s.Payload(report.Outcome))
	if err != nil {
		return "", fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to post to slack: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read slack response: %w", err)
	}

	return string(text), nil
}
