package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newsagent/internal/config"
	"newsagent/internal/infrastructure/extractor"
	"newsagent/internal/infrastructure/feeds"
	"newsagent/internal/infrastructure/llm"
	"newsagent/internal/infrastructure/mail"
	"newsagent/internal/infrastructure/openalex"
	"newsagent/internal/logging"
	"newsagent/internal/ports"
	"newsagent/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	transport ports.Transport
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	pageExtractor := extractor.New(nil, baseLogger.With("component", "extractor"))
	feedSource := feeds.NewSource(cfg.Feeds, pageExtractor, nil, baseLogger.With("component", "feeds"))
	paperSource := openalex.NewClient(cfg.OpenAlex, nil, baseLogger.With("component", "openalex"))
	generator := llm.NewGenerator(cfg.OpenAI)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Feeds:     feedSource,
		Papers:    paperSource,
		Generator: generator,
		Topics:    cfg.Topics,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	application := &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  pipeline,
		transport: mail.NewSender(cfg.SMTP, baseLogger.With("component", "mail")),
	}

	application.scheduler = usecase.NewScheduler(
		usecase.ScheduleSpec{
			TimeOfDay: cfg.Schedule.TimeOfDay,
			Timezone:  cfg.Schedule.Timezone,
		},
		application.generateAndSend,
		baseLogger.With("component", "scheduler"),
	)

	return application
}

// RunOnce executes one pipeline pass and delivers the result. The run's
// error is returned so callers can report a failed generation or send.
func (a *Application) RunOnce(ctx context.Context) error {
	return a.scheduler.RunOnce(ctx)
}

// Start launches the recurring scheduler and blocks until ctx is
// cancelled, then stops it gracefully.
func (a *Application) Start(ctx context.Context) error {
	a.scheduler.Start()
	a.logger.Info("newsletter scheduled daily",
		"time", a.cfg.Schedule.TimeOfDay,
		"timezone", a.cfg.Schedule.Timezone,
		"next_run", a.scheduler.NextRun().String())

	<-ctx.Done()
	a.scheduler.Stop()
	return nil
}

// Test verifies transport connectivity, then runs the pipeline once.
func (a *Application) Test(ctx context.Context) error {
	if err := a.transport.Test(ctx); err != nil {
		return fmt.Errorf("transport connectivity: %w", err)
	}
	a.logger.Info("transport connectivity verified")
	return a.RunOnce(ctx)
}

// PrintConfig writes the effective configuration to stdout.
func (a *Application) PrintConfig() {
	fmt.Println("Current Configuration:")
	fmt.Printf("  Topics: %s\n", strings.Join(a.cfg.Topics, ", "))
	fmt.Printf("  Schedule: daily at %s (%s)\n", a.cfg.Schedule.TimeOfDay, a.cfg.Schedule.Timezone)
	fmt.Printf("  Recipient: %s\n", a.cfg.SMTP.To)
	fmt.Printf("  SMTP Server: %s:%d\n", a.cfg.SMTP.Server, a.cfg.SMTP.Port)
	fmt.Printf("  Model: %s\n", a.cfg.OpenAI.Model)
	fmt.Printf("  Feeds: %d configured\n", len(a.cfg.Feeds))
}

// generateAndSend is the scheduled job: one pipeline run, one delivery
// attempt. Failures are reported to the caller, never retried.
func (a *Application) generateAndSend(ctx context.Context) error {
	a.logger.Info("starting newsletter generation")

	document, err := a.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("generate newsletter: %w", err)
	}

	if err := a.transport.Send(ctx, document, ""); err != nil {
		return fmt.Errorf("send newsletter: %w", err)
	}
	a.logger.Info("newsletter generated and sent")
	return nil
}
