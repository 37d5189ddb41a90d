package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type WebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type WebhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Fields      []WebhookField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

// WebhookMessage is a Discord compatible webhook body.
type WebhookMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []WebhookEmbed `json:"embeds"`
}

type Poster interface {
	Post(ctx context.Context, url string, msg WebhookMessage) error
}

type Webhook struct {
	client *http.Client
}

func NewWebhook(timeout time.Duration) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: timeout},
	}
}

func (w *Webhook) Post(ctx context.Context, url string, msg WebhookMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("w.client.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}

	return nil
}
