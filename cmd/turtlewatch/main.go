package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jonboulle/clockwork"
	"github.com/urfave/cli/v3"

	"github.com/couchcryptid/turtlewatch/internal/adapter/ferret"
	httpadapter "github.com/couchcryptid/turtlewatch/internal/adapter/http"
	"github.com/couchcryptid/turtlewatch/internal/adapter/imagemagick"
	kafkaadapter "github.com/couchcryptid/turtlewatch/internal/adapter/kafka"
	"github.com/couchcryptid/turtlewatch/internal/adapter/mailer"
	"github.com/couchcryptid/turtlewatch/internal/adapter/toolrunner"
	"github.com/couchcryptid/turtlewatch/internal/config"
	"github.com/couchcryptid/turtlewatch/internal/observability"
	"github.com/couchcryptid/turtlewatch/internal/pipeline"
	"github.com/couchcryptid/turtlewatch/internal/publish"
	"github.com/couchcryptid/turtlewatch/internal/resolve"
	"github.com/couchcryptid/turtlewatch/internal/schedule"
)

func main() {
	cmd := &cli.Command{
		Name:  "turtlewatch",
		Usage: "Daily sea-surface-temperature map product for turtle bycatch avoidance",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Produce today's maps once and exit",
				Action: runOnce,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "gacfile",
						Usage: "Composite grid filename to use instead of resolving by today's date",
					},
					&cli.BoolFlag{
						Name:  "nomail",
						Usage: "Skip all mail and event notifications",
					},
					&cli.BoolFlag{
						Name:    "english-only",
						Aliases: []string{"english_only"},
						Usage:   "Produce only the English map variants",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Log at debug level",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Log errors only",
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Debug run: implies --nomail and --verbose",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run as a daemon, producing maps daily at RUN_AT_UTC",
				Action: serve,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("turtlewatch error", "error", err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch {
	case cmd.Bool("debug") || cmd.Bool("verbose"):
		cfg.LogLevel = "debug"
	case cmd.Bool("quiet"):
		cfg.LogLevel = "error"
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	p, closers := buildPipeline(cfg, logger, metrics)
	defer closeAll(closers, logger)

	opts := pipeline.RunOptions{
		GridFile:    cmd.String("gacfile"),
		EnglishOnly: cmd.Bool("english-only"),
		NoMail:      cmd.Bool("nomail") || cmd.Bool("debug"),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	return p.Run(ctx, opts)
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	p, closers := buildPipeline(cfg, logger, metrics)
	defer closeAll(closers, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	hour, minute, err := config.ParseRunAt(cfg.RunAtUTC)
	if err != nil {
		return err
	}
	daily := schedule.New(hour, minute, clockwork.NewRealClock(), logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := daily.Run(ctx, func(ctx context.Context) error {
			runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
			defer cancel()
			return p.Run(runCtx, pipeline.RunOptions{})
		}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildPipeline wires the production collaborators from config. The returned
// closers must be called on shutdown.
func buildPipeline(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Pipeline, []io.Closer) {
	resolver := resolve.New(cfg, logger)
	runner := toolrunner.New(cfg.ToolTimeout, logger, metrics)
	renderer := ferret.NewRenderer(cfg.FerretBin, runner, logger)
	compositor := imagemagick.New(cfg.ConvertBin, cfg.CompositeBin, cfg.AssetsDir, runner, logger)
	staging := publish.NewStaging(cfg.StagingDir, logger)

	var notifiers []pipeline.Notifier
	var closers []io.Closer

	if cfg.MailEnabled() {
		notifiers = append(notifiers, mailer.New(cfg.SendmailBin, cfg.MailFrom, cfg.MailTo, runner, logger))
		logger.Info("mail notifications enabled", "to", cfg.MailTo)
	} else {
		logger.Info("mail notifications disabled")
	}

	if cfg.KafkaEnabled {
		pub := kafkaadapter.NewPublisher(cfg, logger)
		notifiers = append(notifiers, pub)
		closers = append(closers, pub)
		logger.Info("product events enabled", "topic", cfg.KafkaTopic)
	}

	return pipeline.New(resolver, renderer, compositor, staging, notifiers,
		cfg.WorkRoot, logger, metrics), closers
}

func closeAll(closers []io.Closer, logger *slog.Logger) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("close error", "error", err)
		}
	}
}
