package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"award-review/internal/config"
	"award-review/internal/metrics"
	"award-review/internal/models"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

// ClarificationDigester reports pending clarifications older than a cutoff
type ClarificationDigester interface {
	Digest(ctx context.Context, staleAfter time.Duration) ([]models.Clarification, error)
}

// DraftPurger removes drafts nobody touched within the retention window
type DraftPurger interface {
	PurgeStale(ctx context.Context, retention time.Duration) (int64, error)
}

// Scheduler handles periodic tasks
type Scheduler struct {
	cron           *cron.Cron
	clarifications ClarificationDigester
	drafts         DraftPurger
	config         *config.SchedulerConfig
}

// NewScheduler creates a new scheduler
func NewScheduler(clarifications ClarificationDigester, drafts DraftPurger, cfg *config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		clarifications: clarifications,
		drafts:         drafts,
		config:         cfg,
	}
}

// Start registers the jobs and starts the cron runner
func (s *Scheduler) Start() error {
	slog.Info("Starting scheduler",
		"enabled", s.config.Enabled,
		"clarification_digest_cron", s.config.ClarificationDigestCron,
		"draft_purge_cron", s.config.DraftPurgeCron)

	if !s.config.Enabled {
		return nil
	}

	if err := s.schedule(s.config.ClarificationDigestCron, "clarification_digest", s.digestClarifications); err != nil {
		return err
	}
	if err := s.schedule(s.config.DraftPurgeCron, "draft_purge", s.purgeDrafts); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("Scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	slog.Info("Stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("Scheduler stop timed out, jobs still running")
	}
}

func (s *Scheduler) schedule(expr, name string, job func(context.Context) error) error {
	if expr == "" {
		slog.Info("Job disabled", "job", name)
		return nil
	}
	if _, err := s.cron.AddFunc(expr, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("invalid cron expression for %s: %w", name, err)
	}
	return nil
}

// run executes one job invocation with a timeout and records its outcome.
func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	duration := time.Since(start)
	metrics.RecordJobRun(name, duration, err == nil)

	if err != nil {
		slog.Error("Scheduled job failed", "job", name, "duration", duration, "error", err)
		return
	}
	slog.Debug("Scheduled job finished", "job", name, "duration", duration)
}

func (s *Scheduler) digestClarifications(ctx context.Context) error {
	stale, err := s.clarifications.Digest(ctx, s.config.StaleClarificationAfter)
	if err != nil {
		return fmt.Errorf("failed to build clarification digest: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(stale))
	for _, c := range stale {
		ids = append(ids, c.ID)
	}
	slog.Warn("Clarifications awaiting a unit response",
		"count", len(stale),
		"older_than", s.config.StaleClarificationAfter,
		"clarification_ids", ids)
	return nil
}

func (s *Scheduler) purgeDrafts(ctx context.Context) error {
	n, err := s.drafts.PurgeStale(ctx, s.config.DraftRetention)
	if err != nil {
		return fmt.Errorf("failed to purge drafts: %w", err)
	}
	if n > 0 {
		slog.Info("Purged stale drafts", "count", n, "retention", s.config.DraftRetention)
	}
	return nil
}
