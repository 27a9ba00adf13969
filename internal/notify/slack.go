package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

type SlackNotifier struct {
	logger     zerolog.Logger
	webhookURL string
	timing     timingConfig
	poster     *httpPoster
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides timing parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst int, backoffInitial, backoffMax, backoffMaxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.backoffInitial = backoffInitial
		s.timing.backoffMax = backoffMax
		s.timing.backoffMaxElapsed = backoffMaxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; slack notifications disabled")
	}

	notifier := &SlackNotifier{
		logger:     logger,
		webhookURL: webhookURL,
		timing:     defaultTiming,
	}
	for _, opt := range opts {
		opt(notifier)
	}
	notifier.poster = newHTTPPoster(logger, "slack", webhookURL, "application/json", notifier.timing)
	return notifier
}

// Notify implements Notifier. All notifications of a cycle go out as one message.
func (n *SlackNotifier) Notify(ctx context.Context, product string, notes []transition.Notification) error {
	if len(notes) == 0 {
		return nil
	}

	payload, err := json.Marshal(buildSlackMessage(product, notes))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	if err := n.poster.deliver(ctx, product, payload); err != nil {
		return err
	}

	n.logger.Debug().
		Str("product", product).
		Int("notifications", len(notes)).
		Msg("slack notification sent")
	return nil
}

func (n *SlackNotifier) postOnce(ctx context.Context, payload []byte) error {
	return n.poster.postOnce(ctx, payload)
}

func buildSlackMessage(product string, notes []transition.Notification) slack.WebhookMessage {
	summary := Title(notes[0].Kind)
	if len(notes) > 1 {
		summary = fmt.Sprintf("%d stock notifications", len(notes))
	}

	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", summary, false, false))
	blocks := []slack.Block{header}
	if product != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Product: <%s>", product), false, false),
		))
	}
	for _, note := range notes {
		blocks = append(blocks, buildNotificationBlock(note))
	}

	return slack.WebhookMessage{
		Text:   FormatMessage(product, notes[0]),
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func buildNotificationBlock(note transition.Notification) slack.Block {
	title := fmt.Sprintf("*%s*: `%s` → `%s`", Title(note.Kind), note.PreviousState.Label(), note.State.Label())
	text := slack.NewTextBlockObject("mrkdwn", title, false, false)

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", "*Price:*\n"+stock.FormatPrice(note.Price), false, false),
	}
	if note.Kind == transition.KindPriceChange {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", "*Previous price:*\n"+stock.FormatPrice(note.PreviousPrice), false, false))
	}
	if note.ConsecutiveFailures > 0 {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Failed cycles:*\n%d (%s)", note.ConsecutiveFailures, note.Severity), false, false))
	}
	return slack.NewSectionBlock(text, fields, nil)
}
