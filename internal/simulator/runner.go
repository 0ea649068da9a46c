package simulator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/somaedu/adapt/pkg/logger"
)

// Stats aggregates what the simulation observed.
type Stats struct {
	Sessions    int64
	ItemsServed int64
	Violations  int64
	FailedCalls int64
	StartTime   time.Time
	ElapsedTime time.Duration
}

// Run executes the full simulation: health check, then Sessions
// adaptive runs spread over Workers goroutines, then a verification
// summary. Returns an error when any invariant was violated.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("simulator")
	stats := &Stats{StartTime: time.Now()}

	c := newClient(cfg)
	if err := c.checkHealth(ctx); err != nil {
		return stats, fmt.Errorf("engine not reachable: %w", err)
	}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("workers", cfg.Workers),
		logger.Int("maxItems", cfg.MaxItems),
	)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for job := range jobs {
				runSession(ctx, cfg, c, stats, job, log)
			}
		}(w)
	}

	for i := 0; i < cfg.Sessions; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return stats, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	stats.ElapsedTime = time.Since(stats.StartTime)
	return stats, Summarize(ctx, stats, log)
}

// runSession drives one session from start to finish, answering every
// served item and recording invariant violations.
func runSession(ctx context.Context, cfg *Config, c *client, stats *Stats, job int, log logger.Logger) {
	studentID := fmt.Sprintf("sim-student-%d", job)

	start, err := c.startSession(ctx, cfg.SubjectID, studentID, cfg.MaxItems)
	if err != nil {
		atomic.AddInt64(&stats.FailedCalls, 1)
		log.Warn(ctx, "start failed", logger.Error(err))
		return
	}
	atomic.AddInt64(&stats.Sessions, 1)

	v := newVerifier(cfg)
	if start.Target != nil {
		v.observeTarget(*start.Target)
	}

	item := start.Item
	for item != nil {
		atomic.AddInt64(&stats.ItemsServed, 1)
		v.observeItem(item.ItemID, item.Difficulty)

		step, err := c.answer(ctx, start.SessionID, cfg.SubjectID, item.ItemID, 1, item.StandardValue)
		if err != nil {
			atomic.AddInt64(&stats.FailedCalls, 1)
			log.Warn(ctx, "answer failed", logger.Error(err))
			break
		}
		if step.Finished {
			break
		}
		item = step.Item
	}

	for _, violation := range v.violations() {
		atomic.AddInt64(&stats.Violations, 1)
		log.Warn(ctx, "invariant violated",
			logger.String("sessionID", start.SessionID),
			logger.String("violation", violation),
		)
	}

	if err := c.end(ctx, start.SessionID); err != nil {
		atomic.AddInt64(&stats.FailedCalls, 1)
		log.Warn(ctx, "end failed", logger.Error(err))
	}

	if cfg.Verbose {
		log.Info(ctx, "session complete",
			logger.String("sessionID", start.SessionID),
			logger.Int("itemsServed", v.served()),
		)
	}
}

// Summarize logs the final counters and fails on any violation.
func Summarize(ctx context.Context, stats *Stats, log logger.Logger) error {
	log.Info(ctx, "simulation complete",
		logger.Int64("sessions", atomic.LoadInt64(&stats.Sessions)),
		logger.Int64("itemsServed", atomic.LoadInt64(&stats.ItemsServed)),
		logger.Int64("failedCalls", atomic.LoadInt64(&stats.FailedCalls)),
		logger.Int64("violations", atomic.LoadInt64(&stats.Violations)),
		logger.Duration("elapsed", stats.ElapsedTime),
	)

	if n := atomic.LoadInt64(&stats.Violations); n > 0 {
		return fmt.Errorf("%d invariant violations observed", n)
	}
	return nil
}
