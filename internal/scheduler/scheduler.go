// Package scheduler runs the housekeeping jobs of the dashboard on cron
// schedules.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agentdesk/agentdesk/internal/logger"
)

// RetentionSpec sweeps expired interview data once a day, shortly after
// midnight.
const RetentionSpec = "0 15 0 * * *"

// Store is the slice of the database the retention job needs.
type Store interface {
	DeleteInterviewsBefore(ctx context.Context, cutoff time.Time) (sessions, results int64, err error)
	PruneAuditLogs(cutoff time.Time) (int64, error)
}

type Scheduler struct {
	cron      *cron.Cron
	entries   map[string]cron.EntryID
	mu        sync.Mutex
	store     Store
	retention time.Duration
	now       func() time.Time
}

// New returns a scheduler for store. A retention of zero or less disables
// the retention sweep.
func New(store Store, retention time.Duration) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		entries:   make(map[string]cron.EntryID),
		store:     store,
		retention: retention,
		now:       time.Now,
	}
}

func (s *Scheduler) Start() {
	if s.retention > 0 {
		if err := s.AddJob("retention", RetentionSpec, func() { s.Sweep(context.Background()) }); err != nil {
			logger.Error("Failed to schedule retention sweep: %v", err)
		}
		go s.Sweep(context.Background())
	}
	s.cron.Start()
	logger.Success("Scheduler started")
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Success("Scheduler stopped")
}

// AddJob registers fn under id, replacing any job with the same id.
func (s *Scheduler) AddJob(id, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[id]; exists {
		s.cron.Remove(entryID)
	}

	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		delete(s.entries, id)
		return err
	}
	s.entries[id] = entryID
	logger.Debug("Added job %s with cron=%s", id, spec)
	return nil
}

func (s *Scheduler) RemoveJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[id]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, id)
		logger.Debug("Removed job %s", id)
	}
}

// Next reports when the job runs next. The zero time means the job is
// unknown or the scheduler has not started.
func (s *Scheduler) Next(id string) time.Time {
	s.mu.Lock()
	entryID, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(entryID).Next
}

// SweepResult counts the rows removed by one retention sweep.
type SweepResult struct {
	Sessions  int64
	Results   int64
	AuditLogs int64
}

// Sweep deletes interview sessions, finish callbacks and audit entries
// older than the retention window.
func (s *Scheduler) Sweep(ctx context.Context) SweepResult {
	var res SweepResult
	if s.retention <= 0 {
		return res
	}
	cutoff := s.now().UTC().Add(-s.retention)

	sessions, results, err := s.store.DeleteInterviewsBefore(ctx, cutoff)
	if err != nil {
		logger.Error("Interview retention cleanup failed: %v", err)
	} else {
		res.Sessions, res.Results = sessions, results
	}

	audits, err := s.store.PruneAuditLogs(cutoff)
	if err != nil {
		logger.Error("Audit log retention cleanup failed: %v", err)
	} else {
		res.AuditLogs = audits
	}

	if res.Sessions+res.Results+res.AuditLogs > 0 {
		logger.Info("Data retention: removed %d sessions, %d results, %d audit entries",
			res.Sessions, res.Results, res.AuditLogs)
	}
	return res
}
