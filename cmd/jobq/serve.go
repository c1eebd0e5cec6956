package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BranchIntl/jobq/api"
	"github.com/BranchIntl/jobq/config"
	"github.com/BranchIntl/jobq/core"
	"github.com/BranchIntl/jobq/engines"
	"github.com/BranchIntl/jobq/statistics"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the workers and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger, err := config.NewLogger(cfg.Logging, os.Stderr)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
	addConfigFlags(cmd)

	return cmd
}

func memoryOptions(cfg config.Config, logger *slog.Logger) engines.MemoryOptions {
	options := engines.DefaultMemoryOptions()
	options.StoreOptions.Capacity = cfg.Capacity
	options.StoreOptions.DefaultMaxRetries = cfg.DefaultMaxRetries
	options.Stats = statistics.Config{
		Type:      statistics.StatsType(cfg.StatsType),
		URI:       cfg.StatsURI,
		Namespace: cfg.StatsNamespace,
	}
	options.TaskMinDelay = cfg.TaskMinDelay
	options.TaskMaxDelay = cfg.TaskMaxDelay
	options.TaskTimeout = cfg.TaskTimeout
	options.Logger = logger
	options.EngineOptions = []core.EngineOption{
		core.WithConcurrency(cfg.Concurrency),
		core.WithPollInterval(cfg.PollInterval),
		core.WithPurgeInterval(cfg.PurgeInterval),
		core.WithShutdownTimeout(cfg.ShutdownTimeout),
	}
	return options
}

// serve runs the engine and the HTTP server until ctx is done or either
// of them fails
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	engine, err := engines.NewMemoryEngine(memoryOptions(cfg, logger))
	if err != nil {
		return err
	}
	if err := engine.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(engine.Engine(), api.Options{
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			SubmitRate:         cfg.SubmitRate,
			SubmitBurst:        cfg.SubmitBurst,
			Logger:             logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		httpErr := srv.Shutdown(shutdownCtx)

		return errors.Join(httpErr, engine.Stop())
	})

	return g.Wait()
}
