package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper runs the gate sweep on a cron schedule so SLA breaches and
// auto-reject deadlines are enforced without an external trigger.
type Sweeper struct {
	service  *Service
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewSweeper creates a sweeper for the given service.
//
// Common cron expressions:
//   - "*/5 * * * *" - Every 5 minutes
//   - "0 * * * *"   - Hourly
func NewSweeper(service *Service, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		service:  service,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "agent.gate.sweeper"),
	}
}

// Start begins scheduled sweeping. If no schedule is configured the
// sweeper does nothing.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule gate sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("gate sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Sweeper) runSweep(ctx context.Context) {
	start := time.Now()
	swept, err := s.service.Sweep(ctx)
	if err != nil {
		s.logger.Error("scheduled gate sweep failed", "error", err)
		return
	}

	if len(swept) > 0 {
		s.logger.Info("scheduled gate sweep completed",
			"swept_count", len(swept),
			"duration", time.Since(start),
		)
	} else {
		s.logger.Debug("scheduled gate sweep completed, no gates advanced")
	}
}

// Stop stops the sweeper and waits for a running sweep to complete.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("gate sweeper stopped")
	}
}

// IsRunning reports whether the sweeper is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
