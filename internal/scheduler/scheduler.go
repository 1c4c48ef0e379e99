package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/store"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 2 * time.Minute

// Schedules holds cron expressions for the background jobs. An empty
// expression disables the job.
type Schedules struct {
	Overdue    string
	LowStock   string
	TokenPurge string
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	svc    *inventory.Service
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// New creates a scheduler. Jobs are registered by Start.
func New(svc *inventory.Service, db *sql.DB, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(sched Schedules) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"overdue sweep", sched.Overdue, s.sweepOverdue},
		{"low stock digest", sched.LowStock, s.lowStockDigest},
		{"token purge", sched.TokenPurge, s.purgeTokens},
	}

	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.run)); err != nil {
			return fmt.Errorf("scheduling %s %q: %w", j.name, j.spec, err)
		}
		s.logger.Info("job scheduled", "job", j.name, "schedule", j.spec)
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) wrap(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			s.logger.Error("job failed", "job", name, "error", err)
			return
		}
		s.logger.Info("job finished", "job", name, "duration", time.Since(start).String())
	}
}

func (s *Scheduler) sweepOverdue(ctx context.Context) error {
	n, err := s.svc.SweepOverdue(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("overdue reminders queued", "count", n)
	return nil
}

func (s *Scheduler) lowStockDigest(ctx context.Context) error {
	n, err := s.svc.LowStockDigest(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("low stock digest queued", "resources", n)
	return nil
}

func (s *Scheduler) purgeTokens(ctx context.Context) error {
	n, err := store.PurgeExpiredTokens(ctx, s.db, s.now())
	if err != nil {
		return err
	}
	s.logger.Info("expired token revocations purged", "count", n)
	return nil
}
