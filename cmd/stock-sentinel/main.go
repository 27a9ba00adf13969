package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nholik/stock-sentinel/internal/config"
	"github.com/nholik/stock-sentinel/internal/healthcheck"
	"github.com/nholik/stock-sentinel/internal/inference"
	"github.com/nholik/stock-sentinel/internal/logging"
	"github.com/nholik/stock-sentinel/internal/metrics"
	"github.com/nholik/stock-sentinel/internal/notify"
	"github.com/nholik/stock-sentinel/internal/page"
	"github.com/nholik/stock-sentinel/internal/runner"
	"github.com/nholik/stock-sentinel/internal/server"
	"github.com/nholik/stock-sentinel/internal/stock"
	"github.com/nholik/stock-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger := logging.New()
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.NewWithLevel(cfg.LogLevel)
	logger.Info().
		Str("product_url", cfg.ProductURL).
		Dur("check_interval", cfg.CheckInterval).
		Bool("dry_run", cfg.DryRun).
		Msg("stock-sentinel starting")

	heuristics, err := config.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.HeuristicsFile).Msg("failed to load heuristics")
	}
	if cfg.UnknownFallback != stock.Unknown {
		heuristics.Fallback = cfg.UnknownFallback
	}

	engine, err := inference.NewEngine(heuristics)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build inference engine")
	}

	fetcher, err := page.NewHTTPFetcher(cfg.ProductURL, cfg.FetchTimeout,
		page.WithAttempts(cfg.FetchAttempts),
		page.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build page fetcher")
	}

	notifier, err := buildNotifier(logger, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build notifiers")
	}

	collector := metrics.New()
	tracker := healthcheck.NewTracker()
	server.Start(ctx, logger, cfg.CheckInterval, tracker, collector, cfg.HealthPort, cfg.MetricsPort)

	options := transition.DefaultOptions()
	options.WarningThreshold = cfg.WarnThreshold
	options.CriticalThreshold = cfg.CriticalThreshold
	options.Heartbeat = cfg.Heartbeat

	r := runner.New(logger, cfg.CheckInterval,
		runner.WithFetcher(fetcher),
		runner.WithEngine(engine),
		runner.WithNotifier(notifier),
		runner.WithProductURL(cfg.ProductURL),
		runner.WithTransitionOptions(options),
		runner.WithMetrics(collector),
		runner.WithTracker(tracker),
	)
	if err := r.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("runner exited")
	}
}

func buildNotifier(logger zerolog.Logger, cfg config.Config) (notify.Notifier, error) {
	webhook, err := notify.NewWebhookNotifier(logger, cfg.WebhookURL, cfg.WebhookTemplate)
	if err != nil {
		return nil, err
	}

	multi := notify.NewMultiNotifier(
		notify.NewTelegramNotifier(logger, cfg.MessagingAPIURL, cfg.MessagingToken, cfg.MessagingDestination),
		notify.NewSlackNotifier(logger, cfg.SlackWebhookURL),
		webhook,
	)
	if cfg.DryRun {
		return notify.NewDryRunNotifier(logger, multi), nil
	}
	return multi, nil
}
