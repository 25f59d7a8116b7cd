// Package scheduler runs the named background jobs consumed by sessions:
// recurring expiry sweeps and one-shot poll deadlines.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mevellea/telegram-menu/core/logger"
)

// Service schedules interval jobs on a cron runner and one-shot jobs on
// plain timers. Jobs are addressed by caller-supplied ids; ids are expected
// to be session-scoped so distinct sessions never collide.
type Service struct {
	cron *cron.Cron

	mu        sync.Mutex
	intervals map[string]cron.EntryID
	oneShots  map[string]*time.Timer
	stopped   bool
}

// New builds and starts the scheduler.
func New() *Service {
	s := &Service{
		cron:      cron.New(),
		intervals: make(map[string]cron.EntryID),
		oneShots:  make(map[string]*time.Timer),
	}
	s.cron.Start()
	return s
}

// AddInterval registers fn to run every interval. An existing job under the
// same id is replaced when replace is true and kept otherwise.
func (s *Service) AddInterval(interval time.Duration, jobID string, fn func(), replace bool) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: interval job %s: non-positive interval %s", jobID, interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("scheduler: add %s: stopped", jobID)
	}
	if s.hasJobLocked(jobID) {
		if !replace {
			return nil
		}
		s.cancelLocked(jobID)
	}
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), fn)
	if err != nil {
		return fmt.Errorf("scheduler: interval job %s: %w", jobID, err)
	}
	s.intervals[jobID] = id
	logger.Debug(logger.Background(), "sched", "job.interval",
		slog.String("job_id", jobID),
		slog.Duration("duration", interval),
	)
	return nil
}

// AddOneShot registers fn to run once after delay. The job unregisters
// itself right before fn runs.
func (s *Service) AddOneShot(delay time.Duration, jobID string, fn func(), replace bool) error {
	if delay < 0 {
		return fmt.Errorf("scheduler: one-shot job %s: negative delay %s", jobID, delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("scheduler: add %s: stopped", jobID)
	}
	if s.hasJobLocked(jobID) {
		if !replace {
			return nil
		}
		s.cancelLocked(jobID)
	}
	s.oneShots[jobID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.oneShots, jobID)
		s.mu.Unlock()
		fn()
	})
	logger.Debug(logger.Background(), "sched", "job.oneshot",
		slog.String("job_id", jobID),
		slog.Duration("duration", delay),
	)
	return nil
}

// Cancel removes the job with the given id, if any. A one-shot whose timer
// already fired is gone anyway.
func (s *Service) Cancel(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(jobID)
}

func (s *Service) cancelLocked(jobID string) {
	if id, ok := s.intervals[jobID]; ok {
		s.cron.Remove(id)
		delete(s.intervals, jobID)
	}
	if t, ok := s.oneShots[jobID]; ok {
		t.Stop()
		delete(s.oneShots, jobID)
	}
}

// HasJob reports whether a job is registered under the given id.
func (s *Service) HasJob(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasJobLocked(jobID)
}

func (s *Service) hasJobLocked(jobID string) bool {
	if _, ok := s.intervals[jobID]; ok {
		return true
	}
	_, ok := s.oneShots[jobID]
	return ok
}

// Stop cancels every job and halts the cron runner. Jobs already running
// finish on their own.
func (s *Service) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.oneShots {
		t.Stop()
		delete(s.oneShots, id)
	}
	for id, entry := range s.intervals {
		s.cron.Remove(entry)
		delete(s.intervals, id)
	}
	s.mu.Unlock()
	s.cron.Stop()
}
