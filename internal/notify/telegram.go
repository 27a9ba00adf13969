package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier sends one chat message per notification through the Bot API.
type TelegramNotifier struct {
	logger zerolog.Logger
	token  string
	chatID string
	timing timingConfig
	poster *httpPoster
}

// TelegramOption customizes TelegramNotifier behavior.
type TelegramOption func(*TelegramNotifier)

// WithTelegramTiming overrides retry timing (primarily for testing).
func WithTelegramTiming(backoffInitial, backoffMax, backoffMaxElapsed time.Duration) TelegramOption {
	return func(n *TelegramNotifier) {
		n.timing.backoffInitial = backoffInitial
		n.timing.backoffMax = backoffMax
		n.timing.backoffMaxElapsed = backoffMaxElapsed
		n.timing.rateInterval = time.Millisecond
	}
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// NewTelegramNotifier creates a Telegram notifier, or a noop notifier when the
// bot token or chat id is missing.
func NewTelegramNotifier(logger zerolog.Logger, apiURL, token, chatID string, opts ...TelegramOption) Notifier {
	if token == "" || chatID == "" {
		return NewNoop(logger, "telegram token or destination not configured; telegram notifications disabled")
	}
	if apiURL == "" {
		apiURL = DefaultTelegramAPI
	}

	notifier := &TelegramNotifier{
		logger: logger,
		token:  token,
		chatID: chatID,
		timing: defaultTiming,
	}
	for _, opt := range opts {
		opt(notifier)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(apiURL, "/"), token)
	notifier.poster = newHTTPPoster(logger, "telegram", endpoint, "application/json", notifier.timing)
	notifier.poster.secret = token
	return notifier
}

// Notify implements Notifier.
func (n *TelegramNotifier) Notify(ctx context.Context, product string, notes []transition.Notification) error {
	for _, note := range notes {
		payload, err := json.Marshal(telegramMessage{
			ChatID: n.chatID,
			Text:   FormatMessage(product, note),
		})
		if err != nil {
			return fmt.Errorf("marshal telegram payload: %w", err)
		}
		if err := n.poster.deliver(ctx, product, payload); err != nil {
			return err
		}
		n.logger.Debug().
			Str("product", product).
			Str("kind", string(note.Kind)).
			Msg("telegram notification sent")
	}
	return nil
}
