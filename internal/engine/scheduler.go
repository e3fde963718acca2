package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/slot-watcher/internal/config"
)

// CycleRunner runs one poll cycle for a target. *Engine implements it.
type CycleRunner interface {
	RunCycle(ctx context.Context, target config.Target) (Result, error)
}

// Scheduler runs a poll cycle per target at a fixed interval. Cycles for one
// target never overlap; a tick that arrives while the previous cycle is
// still running is skipped.
type Scheduler struct {
	cron     *cron.Cron
	runner   CycleRunner
	log      *slog.Logger
	interval time.Duration
	budget   time.Duration

	jobs  map[string]*targetJob
	order []string

	mu       sync.RWMutex
	ctx      context.Context
	halt     context.CancelFunc
	inflight sync.WaitGroup
}

type targetJob struct {
	s       *Scheduler
	target  config.Target
	entryID cron.EntryID
	busy    sync.Mutex
}

// NewScheduler registers one cron entry per target. A positive budget caps
// the wall-clock time Run keeps scheduling new cycles.
func NewScheduler(
	runner CycleRunner,
	targets []config.Target,
	interval time.Duration,
	budget time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	if len(targets) == 0 {
		return nil, errors.New("no targets to schedule")
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		// Recover sits inside the skip guard so a panicking cycle still
		// releases it.
		cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
	)

	s := &Scheduler{
		cron:     c,
		runner:   runner,
		log:      log,
		interval: interval,
		budget:   budget,
		jobs:     make(map[string]*targetJob, len(targets)),
		ctx:      context.Background(),
	}

	for _, t := range targets {
		job := &targetJob{s: s, target: t}
		id, err := c.AddJob("@every "+interval.String(), job)
		if err != nil {
			return nil, fmt.Errorf("scheduling target %s: %w", t.ID, err)
		}
		job.entryID = id
		s.jobs[t.ID] = job
		s.order = append(s.order, t.ID)
	}

	return s, nil
}

// Start begins scheduling and runs every target once right away. Cycles
// inherit ctx, so cancelling it interrupts fetches and backoff sleeps.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, halt := context.WithCancel(ctx)
	s.mu.Lock()
	s.ctx, s.halt = ctx, halt
	s.mu.Unlock()

	s.log.Info("scheduler started", "targets", len(s.order), "interval", s.interval)
	s.cron.Start()

	for _, id := range s.order {
		wrapped := s.cron.Entry(s.jobs[id].entryID).WrappedJob
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			wrapped.Run()
		}()
	}
}

// Stop stops scheduling new cycles. The returned context is done once every
// cycle in flight has finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	cronDone := s.cron.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.inflight.Wait()
		cancel()
	}()
	return ctx
}

// Run starts the scheduler and blocks until ctx is cancelled, the run budget
// is used up, or a cycle reports it should not continue. It waits for cycles
// in flight before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start(ctx)

	var expired <-chan time.Time
	if s.budget > 0 {
		timer := time.NewTimer(s.budget)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-s.context().Done():
		s.log.Info("scheduler interrupted")
	case <-expired:
		s.log.Info("run budget used up", "budget", s.budget)
	}

	<-s.Stop().Done()
	s.stop()
	s.log.Info("scheduler stopped")
	return nil
}

// Trigger runs a cycle for targetID now, outside the schedule.
func (s *Scheduler) Trigger(ctx context.Context, targetID string) (Result, error) {
	job, ok := s.jobs[targetID]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTarget, targetID)
	}
	if !job.busy.TryLock() {
		return Result{}, fmt.Errorf("%w: %s", ErrCycleInProgress, targetID)
	}
	defer job.busy.Unlock()

	s.log.Info("manual cycle triggered", "target", targetID)
	return s.runner.RunCycle(ctx, job.target)
}

// Targets returns the scheduled targets in configuration order.
func (s *Scheduler) Targets() []config.Target {
	out := make([]config.Target, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.jobs[id].target)
	}
	return out
}

// NextRun reports when targetID is next due. It is zero before Start.
func (s *Scheduler) NextRun(targetID string) (time.Time, bool) {
	job, ok := s.jobs[targetID]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(job.entryID).Next, true
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

func (s *Scheduler) stop() {
	s.mu.RLock()
	halt := s.halt
	s.mu.RUnlock()
	if halt != nil {
		halt()
	}
}

// Run implements cron.Job.
func (j *targetJob) Run() {
	if !j.busy.TryLock() {
		j.s.log.Info("cycle still running, skipping tick", "target", j.target.ID)
		return
	}
	defer j.busy.Unlock()

	res, err := j.s.runner.RunCycle(j.s.context(), j.target)
	if err != nil {
		j.s.log.Error("cycle failed", "target", j.target.ID, "outcome", res.Outcome, "error", err)
	}
	if !res.Continue {
		j.s.log.Info("cycle asked to stop scheduling", "target", j.target.ID)
		j.s.stop()
	}
}
