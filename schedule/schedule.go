// Package schedule runs sync jobs on fixed intervals.
//
// A tick whose job is still running from the previous tick is skipped. Jobs
// also take a lock.Locker lock for the length of a run, so only one process
// of a deployment runs a given job at a time.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/xraph/vexsync/id"
	"github.com/xraph/vexsync/lock"
	"github.com/xraph/vexsync/observability"
)

// Errors returned by Add and Trigger.
var (
	ErrInvalidJob   = errors.New("vexsync: invalid job")
	ErrDuplicateJob = errors.New("vexsync: duplicate job")
	ErrUnknownJob   = errors.New("vexsync: unknown job")
	ErrRunning      = errors.New("vexsync: job already running")
)

// ManualLockTTL bounds the lock of a manual job, which has no interval.
const ManualLockTTL = time.Hour

// Job is a named unit of scheduled work.
type Job struct {
	Name     string
	Interval time.Duration

	// Jitter shifts every wait by a random offset in [-Jitter, +Jitter].
	Jitter time.Duration

	// Immediate runs the job once when the scheduler starts.
	Immediate bool

	// Manual jobs have no timer and run only through Trigger. Interval and
	// Jitter are ignored.
	Manual bool

	Run func(ctx context.Context) error
}

type entry struct {
	job     Job
	mu      sync.Mutex
	running bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLocker sets the cross-process locker. The default is lock.NewMemory().
func WithLocker(l lock.Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

// Scheduler runs jobs until its context ends.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string

	locker  lock.Locker
	logger  *slog.Logger
	metrics *observability.Metrics

	inflight sync.WaitGroup
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		entries: make(map[string]*entry),
		locker:  lock.NewMemory(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a job. Jobs must be added before Run.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("%w: %q needs a name and a run function", ErrInvalidJob, job.Name)
	}
	if !job.Manual {
		if job.Interval <= 0 {
			return fmt.Errorf("%w: %q needs a positive interval", ErrInvalidJob, job.Name)
		}
		if job.Jitter < 0 || job.Jitter >= job.Interval {
			return fmt.Errorf("%w: %q jitter must be below its interval", ErrInvalidJob, job.Name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[job.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateJob, job.Name)
	}
	s.entries[job.Name] = &entry{job: job}
	s.order = append(s.order, job.Name)
	return nil
}

// Jobs returns the names of the registered jobs in the order they were added.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Run starts every scheduled job and blocks until ctx ends, then waits for the runs in
// flight to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.order))
	for _, name := range s.order {
		if e := s.entries[name]; !e.job.Manual {
			entries = append(entries, e)
		}
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "scheduler started", "jobs", len(entries))

	var loops sync.WaitGroup
	for _, e := range entries {
		loops.Add(1)
		go func() {
			defer loops.Done()
			s.loop(ctx, e)
		}()
	}

	<-ctx.Done()
	loops.Wait()
	s.inflight.Wait()
	s.logger.InfoContext(ctx, "scheduler stopped")
	return nil
}

// Trigger runs a job now and waits for it. It returns ErrRunning or
// lock.ErrHeld when the run is skipped.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return s.run(ctx, e)
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	if e.job.Immediate {
		s.start(ctx, e)
	}

	timer := time.NewTimer(nextInterval(e.job.Interval, e.job.Jitter))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.start(ctx, e)
			timer.Reset(nextInterval(e.job.Interval, e.job.Jitter))
		case <-ctx.Done():
			return
		}
	}
}

// start runs a job in the background so a slow run never delays the timer.
func (s *Scheduler) start(ctx context.Context, e *entry) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		_ = s.run(ctx, e)
	}()
}

func (s *Scheduler) run(ctx context.Context, e *entry) error {
	name := e.job.Name

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		s.logger.WarnContext(ctx, "skipping job, previous run still going", "job", name)
		s.metrics.RecordSkippedJob(name, "overlap")
		return ErrRunning
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	ttl := e.job.Interval
	if e.job.Manual {
		ttl = ManualLockTTL
	}
	release, err := s.locker.Acquire(ctx, name, ttl)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			s.logger.InfoContext(ctx, "skipping job, locked by another process", "job", name)
			s.metrics.RecordSkippedJob(name, "locked")
		} else {
			s.logger.ErrorContext(ctx, "acquire job lock failed", "job", name, "error", err)
			s.metrics.RecordSkippedJob(name, "lock_error")
		}
		return err
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(rctx); err != nil {
			s.logger.WarnContext(ctx, "release job lock failed", "job", name, "error", err)
		}
	}()

	jobID := id.NewJobID()
	start := time.Now()
	s.logger.InfoContext(ctx, "job started", "job", name, "job_id", jobID.String())

	if err := e.job.Run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "job failed",
			"job", name,
			"job_id", jobID.String(),
			"duration", time.Since(start),
			"error", err,
		)
		return err
	}

	s.logger.InfoContext(ctx, "job finished",
		"job", name,
		"job_id", jobID.String(),
		"duration", time.Since(start),
	)
	return nil
}

// nextInterval returns interval shifted by a random offset in [-jitter, +jitter].
func nextInterval(interval, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return interval
	}
	//nolint:gosec // G404: jitter does not need cryptographic randomness
	return interval + time.Duration(rand.Int64N(int64(2*jitter)+1)) - jitter
}
