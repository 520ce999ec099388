package usecase

import (
	"context"
	"log/slog"
	"time"

	"blogpilot/internal/ports"
)

// Scheduler wires the interval driver to the engine: on every trigger it
// runs each active automation rule once, sequentially.
type Scheduler struct {
	driver ports.Scheduler
	rules  ports.RuleRepository
	engine *Engine
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, rules ports.RuleRepository, engine *Engine, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, rules: rules, engine: engine, logger: logger}
}

// Start registers the run-all-rules job with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.engine == nil {
		return nil
	}

	job := func(trigger time.Time) {
		rules, err := s.rules.ListActiveRules(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("cannot list active rules", "error", err)
			}
			return
		}

		for _, rule := range rules {
			result := s.engine.Run(ctx, rule)
			if s.logger != nil {
				s.logger.Info("scheduled run finished",
					"trigger", trigger.Format(time.RFC3339),
					"rule", rule.ID,
					"status", result.Status)
			}
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
