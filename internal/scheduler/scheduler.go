// Package scheduler arms pending notification requests as gocron jobs and
// hands them to a Deliverer when their trigger fires.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/storage"
	"github.com/shaharia-lab/notifyd/internal/telemetry"
)

// immediateWindow is how close to now a one-shot fire time may be before it
// is run immediately instead of at a start date.
const immediateWindow = 10 * time.Millisecond

// Deliverer receives requests whose trigger fired.
type Deliverer interface {
	Deliver(ctx context.Context, req notification.Request, firedAt time.Time) error
}

// Config holds the scheduler configuration.
type Config struct {
	Store          storage.RequestStore
	Deliverer      Deliverer
	Logger         *slog.Logger
	Metrics        *telemetry.Metrics
	MaxConcurrency int
	// Location is used for calendar triggers. Defaults to time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler manages trigger firing using gocron.
type Scheduler struct {
	cron      gocron.Scheduler
	cfg       Config
	jobs      map[string]uuid.UUID // request id → gocron job UUID
	mu        sync.Mutex
	semaphore chan struct{}
	logger    *slog.Logger
	now       func() time.Time
	loc       *time.Location
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	cron, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}

	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 3
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:      cron,
		cfg:       cfg,
		jobs:      make(map[string]uuid.UUID),
		semaphore: make(chan struct{}, maxConc),
		logger:    logger,
		now:       now,
		loc:       loc,
	}, nil
}

// Start re-arms every persisted pending request and starts the gocron
// scheduler. Overdue one-shot requests fire as soon as it starts.
func (s *Scheduler) Start(ctx context.Context) error {
	pending, err := s.cfg.Store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("loading pending requests: %w", err)
	}

	for _, req := range pending {
		if _, ok := req.Trigger.(notification.Immediate); ok {
			continue
		}
		if err := s.Arm(req); err != nil {
			s.logger.Warn("failed to arm request on startup",
				"notification_id", req.ID, "error", err)
		}
	}

	s.cron.Start()
	s.logger.Info("notification scheduler started", "armed_requests", s.Armed())
	return nil
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// Arm adds or replaces the job for a request.
func (s *Scheduler) Arm(req notification.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(req.ID)

	jobDef, opts, err := s.buildJobDefinition(req)
	if err != nil {
		return fmt.Errorf("building job definition for %q: %w", req.ID, err)
	}

	id, repeats := req.ID, req.Trigger.Repeats()
	opts = append(opts,
		gocron.WithName(id),
		gocron.WithTags(notification.EncodeTrigger(req.Trigger).Kind),
	)
	// armed is written and read under s.mu.
	var armed uuid.UUID
	job, err := s.cron.NewJob(jobDef, gocron.NewTask(func() {
		s.mu.Lock()
		jobID := armed
		s.mu.Unlock()
		s.fire(id, jobID, repeats)
	}), opts...)
	if err != nil {
		return fmt.Errorf("arming %q: %w", req.ID, err)
	}

	armed = job.ID()
	s.jobs[req.ID] = armed
	s.logger.Debug("request armed", "notification_id", req.ID,
		"trigger", notification.EncodeTrigger(req.Trigger).Kind, "repeats", repeats)
	return nil
}

// Disarm removes the jobs for the given request ids. Unknown ids are ignored.
func (s *Scheduler) Disarm(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.removeLocked(id)
	}
}

// DisarmAll removes every armed job.
func (s *Scheduler) DisarmAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.jobs {
		s.removeLocked(id)
	}
}

// Armed returns the number of armed requests.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// NextRun reports when the request's job fires next.
func (s *Scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	jobID, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	for _, j := range s.cron.Jobs() {
		if j.ID() != jobID {
			continue
		}
		next, err := j.NextRun()
		if err != nil || next.IsZero() {
			return time.Time{}, false
		}
		return next, true
	}
	return time.Time{}, false
}

// removeLocked must be called with s.mu held.
func (s *Scheduler) removeLocked(id string) {
	jobID, ok := s.jobs[id]
	if !ok {
		return
	}
	if err := s.cron.RemoveJob(jobID); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		s.logger.Warn("failed to remove job", "notification_id", id, "error", err)
	}
	delete(s.jobs, id)
}

// forget drops the bookkeeping for a one-shot job that already ran.
func (s *Scheduler) forget(id string, jobID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.jobs[id]; ok && current == jobID {
		delete(s.jobs, id)
	}
}

// buildJobDefinition converts a request's trigger into a gocron JobDefinition.
func (s *Scheduler) buildJobDefinition(req notification.Request) (gocron.JobDefinition, []gocron.JobOption, error) {
	now := s.now()

	switch t := req.Trigger.(type) {
	case notification.At:
		if t.Repeat {
			return gocron.CronJob(yearlyCron(t.Date.In(s.loc)), true), nil, nil
		}
		return oneTimeAt(t.Date, now), nil, nil

	case notification.After:
		if t.Delay <= 0 {
			return nil, nil, fmt.Errorf("invalid delay %s", t.Delay)
		}
		if !t.Repeat {
			return oneTimeAt(req.SubmittedAt.Add(t.Delay), now), nil, nil
		}
		start := nextInterval(req.SubmittedAt, t.Delay, now)
		return gocron.DurationJob(t.Delay), []gocron.JobOption{
			gocron.WithStartAt(gocron.WithStartDateTime(start)),
		}, nil

	case notification.Immediate, nil:
		return gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()), nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported trigger %T", req.Trigger)
}

func oneTimeAt(at, now time.Time) gocron.JobDefinition {
	if at.Sub(now) < immediateWindow {
		return gocron.OneTimeJob(gocron.OneTimeJobStartImmediately())
	}
	return gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at))
}

// yearlyCron matches the second, minute, hour, day and month of t.
func yearlyCron(t time.Time) string {
	return fmt.Sprintf("%d %d %d %d %d *", t.Second(), t.Minute(), t.Hour(), t.Day(), int(t.Month()))
}

// nextInterval returns the first submitted+k*every that lies in the future,
// keeping a repeating interval aligned to its submission across restarts.
func nextInterval(submitted time.Time, every time.Duration, now time.Time) time.Time {
	next := submitted.Add(every)
	if next.Sub(now) >= immediateWindow {
		return next
	}
	elapsed := now.Sub(submitted)
	k := elapsed/every + 1
	next = submitted.Add(k * every)
	if next.Sub(now) < immediateWindow {
		next = next.Add(every)
	}
	return next
}
