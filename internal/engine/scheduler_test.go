package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/slot-watcher/internal/config"
)

// fakeRunner records cycles and answers with fn.
type fakeRunner struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(ctx context.Context, target config.Target) (Result, error)
}

func newFakeRunner(fn func(ctx context.Context, target config.Target) (Result, error)) *fakeRunner {
	if fn == nil {
		fn = func(_ context.Context, target config.Target) (Result, error) {
			return Result{TargetID: target.ID, Continue: true}, nil
		}
	}
	return &fakeRunner{calls: make(map[string]int), fn: fn}
}

func (f *fakeRunner) RunCycle(ctx context.Context, target config.Target) (Result, error) {
	f.mu.Lock()
	f.calls[target.ID]++
	f.mu.Unlock()
	return f.fn(ctx, target)
}

func (f *fakeRunner) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func schedTargets(ids ...string) []config.Target {
	out := make([]config.Target, 0, len(ids))
	for _, id := range ids {
		out = append(out, testTarget(id))
	}
	return out
}

// runAsync starts sched.Run and returns a channel closed when it returns.
func runAsync(ctx context.Context, sched *Scheduler) <-chan error {
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNewScheduler_RegistersEntryPerTarget(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(newFakeRunner(nil), schedTargets("a", "b", "c"), 2*time.Minute, 0, quietLogger())
	require.NoError(t, err)

	assert.Len(t, sched.Entries(), 3)

	var ids []string
	for _, tg := range sched.Targets() {
		ids = append(ids, tg.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestNewScheduler_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler(newFakeRunner(nil), schedTargets("a"), 0, 0, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval must be positive")

	_, err = NewScheduler(newFakeRunner(nil), nil, time.Minute, 0, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no targets")
}

func TestScheduler_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(nil)
	sched, err := NewScheduler(runner, schedTargets("a", "b"), time.Hour, 0, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, sched)

	require.Eventually(t, func() bool {
		return runner.count("a") == 1 && runner.count("b") == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	waitDone(t, done)
}

func TestScheduler_StopsWhenBudgetUsedUp(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(nil)
	sched, err := NewScheduler(runner, schedTargets("a"), time.Hour, 50*time.Millisecond, quietLogger())
	require.NoError(t, err)

	waitDone(t, runAsync(context.Background(), sched))
	assert.Equal(t, 1, runner.count("a"))
}

func TestScheduler_WaitsForCycleInFlight(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var finished bool
	var mu sync.Mutex

	runner := newFakeRunner(func(_ context.Context, target config.Target) (Result, error) {
		close(started)
		<-release
		mu.Lock()
		finished = true
		mu.Unlock()
		return Result{TargetID: target.ID, Continue: true}, nil
	})
	sched, err := NewScheduler(runner, schedTargets("a"), time.Hour, 0, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, sched)

	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("Run returned while a cycle was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	waitDone(t, done)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, finished)
}

func TestScheduler_StopsWhenCycleSaysSo(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(func(_ context.Context, target config.Target) (Result, error) {
		return Result{TargetID: target.ID, Continue: false, Outcome: OutcomeCanceled}, context.Canceled
	})
	sched, err := NewScheduler(runner, schedTargets("a"), time.Hour, 0, quietLogger())
	require.NoError(t, err)

	waitDone(t, runAsync(context.Background(), sched))
	assert.Equal(t, 1, runner.count("a"))
}

func TestScheduler_CycleErrorsDoNotStopSchedule(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(func(_ context.Context, target config.Target) (Result, error) {
		return Result{TargetID: target.ID, Continue: true, Outcome: OutcomeFetchFailed}, ErrFetch
	})
	sched, err := NewScheduler(runner, schedTargets("a"), time.Second, 0, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, sched)

	// The panicking first run must not keep later ticks from running.
	require.Eventually(t, func() bool {
		return runner.count("a") >= 3
	}, 6*time.Second, 20*time.Millisecond)

	cancel()
	waitDone(t, done)
}

func TestScheduler_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	var once sync.Once
	runner := newFakeRunner(func(_ context.Context, target config.Target) (Result, error) {
		once.Do(func() { panic("renderer exploded") })
		return Result{TargetID: target.ID, Continue: true}, nil
	})
	sched, err := NewScheduler(runner, schedTargets("a"), time.Second, 0, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, sched)

	// The panicking first run must not keep later ticks from running.
	require.Eventually(t, func() bool {
		return runner.count("a") >= 3
	}, 6*time.Second, 20*time.Millisecond)

	cancel()
	waitDone(t, done)
}

func TestScheduler_Trigger(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(func(_ context.Context, target config.Target) (Result, error) {
		return Result{TargetID: target.ID, Continue: true, Outcome: OutcomeOpened}, nil
	})
	sched, err := NewScheduler(runner, schedTargets("a"), time.Hour, 0, quietLogger())
	require.NoError(t, err)

	res, err := sched.Trigger(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, OutcomeOpened, res.Outcome)
	assert.Equal(t, 1, runner.count("a"))
}

func TestScheduler_TriggerUnknownTarget(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(newFakeRunner(nil), schedTargets("a"), time.Hour, 0, quietLogger())
	require.NoError(t, err)

	_, err = sched.Trigger(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnknownTarget)
}

func TestScheduler_TriggerWhileCycleRunning(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var first sync.Once

	runner := newFakeRunner(func(_ context.Context, target config.Target) (Result, error) {
		first.Do(func() {
			close(started)
			<-release
		})
		return Result{TargetID: target.ID, Continue: true}, nil
	})
	sched, err := NewScheduler(runner, schedTargets("a"), time.Hour, 0, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, sched)
	<-started

	_, err = sched.Trigger(context.Background(), "a")
	require.ErrorIs(t, err, ErrCycleInProgress)

	close(release)

	require.Eventually(t, func() bool {
		_, err := sched.Trigger(context.Background(), "a")
		return !errors.Is(err, ErrCycleInProgress)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	waitDone(t, done)
}

func TestScheduler_NextRun(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(newFakeRunner(nil), schedTargets("a"), time.Hour, 0, quietLogger())
	require.NoError(t, err)

	next, ok := sched.NextRun("a")
	assert.True(t, ok)
	assert.True(t, next.IsZero())

	_, ok = sched.NextRun("zzz")
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, sched)

	require.Eventually(t, func() bool {
		next, _ := sched.NextRun("a")
		return !next.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	waitDone(t, done)
}
