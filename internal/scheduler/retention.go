package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/todo-backend/internal/config"
)

// TaskPurger deletes completed tasks last touched before the cutoff.
// Implemented by storage.TaskRepository.
type TaskPurger interface {
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically purges completed tasks older than the
// configured age. Ownership enforcement is irrelevant here: the sweep is a
// system-level job that never serves client requests.
type RetentionSweeper struct {
	cron    *cron.Cron
	tasks   TaskPurger
	maxAge  time.Duration
	sched   string
	log     *slog.Logger
	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRetentionSweeper(cfg config.RetentionConfig, tasks TaskPurger, log *slog.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		cron:   cron.New(),
		tasks:  tasks,
		maxAge: time.Duration(cfg.MaxAgeDays) * 24 * time.Hour,
		sched:  cfg.Schedule,
		log:    log,
	}
}

// Enabled reports whether a retention age is configured.
func (s *RetentionSweeper) Enabled() bool {
	return s.maxAge > 0
}

// Start schedules the sweep. It is a no-op when retention is disabled or the
// sweeper is already running.
func (s *RetentionSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || !s.Enabled() {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cron.AddFunc(s.sched, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.log.Info("retention sweeper started", "max_age", s.maxAge.String(), "schedule", s.sched)
	return nil
}

// Stop stops the sweeper and waits for an in-flight sweep to finish.
func (s *RetentionSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.running = false
	s.log.Info("retention sweeper stopped")
}

func (s *RetentionSweeper) sweep() {
	cutoff := time.Now().Add(-s.maxAge)
	deleted, err := s.tasks.DeleteCompletedBefore(s.ctx, cutoff)
	if err != nil {
		s.log.Error("retention sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		s.log.Info("retention sweep purged tasks", "deleted", deleted, "cutoff", cutoff)
	}
}
