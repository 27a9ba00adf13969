package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{"product":{{ toJson .Product }},"notifications":{{ toJson .Notifications }}}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	Product       string
	Notifications []transition.Notification
	Messages      []string
	GeneratedAt   time.Time
}

// WebhookNotifier sends notifications to a generic webhook.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	poster   *httpPoster
}

// NewWebhookNotifier creates a webhook notifier with the provided template.
// It returns nil when no URL is configured.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		poster:   newHTTPPoster(logger, "webhook", webhookURL, "application/json", defaultTiming),
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, product string, notes []transition.Notification) error {
	if n == nil || len(notes) == 0 {
		return nil
	}

	messages := make([]string, 0, len(notes))
	for _, note := range notes {
		messages = append(messages, FormatMessage(product, note))
	}
	payload := WebhookPayload{
		Product:       product,
		Notifications: notes,
		Messages:      messages,
		GeneratedAt:   time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		return fmt.Errorf("render webhook template: %w", err)
	}
	if err := n.poster.deliver(ctx, product, buf.Bytes()); err != nil {
		return err
	}

	n.logger.Debug().
		Str("product", product).
		Int("notifications", len(notes)).
		Msg("webhook notification sent")
	return nil
}
