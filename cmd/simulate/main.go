// Command simulate drives concurrent assessment sessions against a
// running engine and reports invariant violations.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/somaedu/adapt/internal/simulator"
	"github.com/somaedu/adapt/pkg/logger"
)

func main() {
	cfg := simulator.DefaultConfig()

	flag.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the engine")
	flag.Int64Var(&cfg.SubjectID, "subject", cfg.SubjectID, "subject id to run sessions against")
	flag.IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "number of sessions to simulate")
	flag.IntVar(&cfg.MaxItems, "items", cfg.MaxItems, "item cap per session")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of concurrent workers")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log every session")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := simulator.Run(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "simulation failed",
			logger.Error(err),
			logger.Duration("elapsed", time.Since(start)),
			logger.Int64("sessions", stats.Sessions),
		)
		os.Exit(1)
	}
}
