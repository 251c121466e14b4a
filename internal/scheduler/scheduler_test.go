package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"award-review/internal/config"
	"award-review/internal/models"
)

type fakeDigester struct {
	staleAfter time.Duration
	stale      []models.Clarification
	err        error
}

func (f *fakeDigester) Digest(_ context.Context, staleAfter time.Duration) ([]models.Clarification, error) {
	f.staleAfter = staleAfter
	return f.stale, f.err
}

type fakePurger struct {
	retention time.Duration
	purged    int64
	err       error
}

func (f *fakePurger) PurgeStale(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return f.purged, f.err
}

func testConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		Enabled:                 true,
		ClarificationDigestCron: "0 6 * * *",
		DraftPurgeCron:          "30 2 * * *",
		StaleClarificationAfter: 72 * time.Hour,
		DraftRetention:          30 * 24 * time.Hour,
	}
}

func TestStart_RegistersJobs(t *testing.T) {
	s := NewScheduler(&fakeDigester{}, &fakePurger{}, testConfig())
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop(context.Background())

	if n := len(s.cron.Entries()); n != 2 {
		t.Errorf("expected 2 jobs, got %d", n)
	}
}

func TestStart_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	s := NewScheduler(&fakeDigester{}, &fakePurger{}, cfg)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if n := len(s.cron.Entries()); n != 0 {
		t.Errorf("disabled scheduler registered %d jobs", n)
	}
}

func TestStart_EmptyCronSkipsJob(t *testing.T) {
	cfg := testConfig()
	cfg.DraftPurgeCron = ""
	s := NewScheduler(&fakeDigester{}, &fakePurger{}, cfg)
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop(context.Background())

	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("expected 1 job, got %d", n)
	}
}

func TestStart_InvalidCron(t *testing.T) {
	cfg := testConfig()
	cfg.ClarificationDigestCron = "every morning"
	s := NewScheduler(&fakeDigester{}, &fakePurger{}, cfg)
	if err := s.Start(); err == nil {
		t.Error("expected an error for an invalid cron expression")
	}
}

func TestJobs_PassConfiguredWindows(t *testing.T) {
	digester := &fakeDigester{stale: []models.Clarification{{ID: 3}, {ID: 9}}}
	purger := &fakePurger{purged: 4}
	cfg := testConfig()
	s := NewScheduler(digester, purger, cfg)

	if err := s.digestClarifications(context.Background()); err != nil {
		t.Fatalf("digest failed: %v", err)
	}
	if digester.staleAfter != cfg.StaleClarificationAfter {
		t.Errorf("staleAfter = %v", digester.staleAfter)
	}
	if err := s.purgeDrafts(context.Background()); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purger.retention != cfg.DraftRetention {
		t.Errorf("retention = %v", purger.retention)
	}
}

func TestJobs_WrapErrors(t *testing.T) {
	boom := errors.New("db down")
	s := NewScheduler(&fakeDigester{err: boom}, &fakePurger{err: boom}, testConfig())

	if err := s.digestClarifications(context.Background()); !errors.Is(err, boom) {
		t.Errorf("digest error = %v", err)
	}
	if err := s.purgeDrafts(context.Background()); !errors.Is(err, boom) {
		t.Errorf("purge error = %v", err)
	}
	// run records the failure and must not panic
	s.run("draft_purge", s.purgeDrafts)
}
