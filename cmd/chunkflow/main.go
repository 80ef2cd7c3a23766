// Command chunkflow runs a chunked streaming pipeline described by a chain
// descriptor, once or on a cron schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vnykmshr/chunkflow/internal/logging"
	"github.com/vnykmshr/chunkflow/internal/settings"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
	"github.com/vnykmshr/chunkflow/pkg/pipeline"
	"github.com/vnykmshr/chunkflow/pkg/scheduling/scheduler"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	cfg, argErrs := parseArgs(argv)
	if cfg == nil || len(argErrs) > 0 {
		sort.Strings(argErrs)
		fmt.Fprintf(stderr, "Fatal error parsing arguments:\n\t%s\n\n", strings.Join(argErrs, "\n\t"))
		if cfg != nil {
			cfg.printUsage(stderr)
		}
		return exitUsage
	}
	switch {
	case cfg.Help:
		cfg.printUsage(stdout)
		return exitOK
	case cfg.HelpEnv:
		if err := settings.Usage(); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		return exitOK
	case cfg.ListStages:
		for _, name := range pipeline.DefaultRegistry().Names() {
			fmt.Fprintln(stdout, name)
		}
		return exitOK
	}

	st, err := settings.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	logger, err := logging.New(st.Logging())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics.DefaultRegistry),
	}

	if st.MetricsAddr != "" {
		srv := serveMetrics(st.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if st.StoreBackend == settings.StoreRedis {
		client := redis.NewClient(&redis.Options{Addr: st.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis unavailable", zap.String("addr", st.RedisAddr), zap.Error(err))
			return exitFailure
		}
		opts = append(opts, pipeline.WithRedis(client, st.RedisKeyPrefix, st.RedisTTL))
	}

	runner := pipeline.NewRunner(cfg.Chain, opts...)
	if cfg.Schedule == "" {
		return runOnce(ctx, runner, logger)
	}
	return runScheduled(ctx, runner, cfg.Schedule, logger)
}

func runOnce(ctx context.Context, runner *pipeline.Runner, logger *zap.Logger) int {
	result, err := runner.Run(ctx)
	if err != nil {
		logger.Error("run failed", zap.String("chain", runner.Path()), zap.Error(err))
		return exitFailure
	}
	for _, sr := range result.StageResults {
		logger.Info("stage summary",
			zap.String("stage", sr.StageID),
			zap.String("name", sr.Name),
			zap.Int64("chunks", sr.Stats.Chunks),
			zap.Int64("bytes_in", sr.Stats.BytesIn),
			zap.Int64("bytes_out", sr.Stats.BytesOut),
			zap.Duration("duration", sr.Duration),
		)
	}
	return exitOK
}

func runScheduled(ctx context.Context, runner *pipeline.Runner, expr string, logger *zap.Logger) int {
	s := scheduler.New(scheduler.Config{Logger: logger})
	job := scheduler.JobFunc(func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		return err
	})
	if err := s.Schedule("chain", expr, job); err != nil {
		logger.Error("invalid schedule", zap.Error(err))
		return exitUsage
	}
	if err := s.Start(ctx); err != nil {
		logger.Error("scheduler start", zap.Error(err))
		return exitFailure
	}

	<-ctx.Done()
	logger.Info("shutting down, waiting for the run in progress")
	<-s.Stop()

	stats := runner.Stats()
	logger.Info("scheduler stopped",
		zap.Int64("runs", stats.TotalExecutions),
		zap.Int64("failed", stats.FailedRuns),
		zap.Duration("average", stats.AverageDuration),
	)
	return exitOK
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
