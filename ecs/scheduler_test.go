package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/tessera/ecs"
)

type recordingSystem struct {
	ecs.BaseSystem
	name  string
	trace *[]string
	err   error
}

func (s *recordingSystem) Update() error {
	*s.trace = append(*s.trace, s.name)
	return s.err
}

func TestSchedulerRunsInNameOrder(t *testing.T) {
	w := ecs.NewWorld()
	var trace []string
	require.NoError(t, w.AddSystem("B", &recordingSystem{name: "B", trace: &trace}))
	require.NoError(t, w.AddSystem("A", &recordingSystem{name: "A", trace: &trace}))
	require.NoError(t, w.AddSystem("10_late", &recordingSystem{name: "10_late", trace: &trace}))

	require.NoError(t, w.RunSystems())
	assert.Equal(t, []string{"10_late", "A", "B"}, trace)
	assert.Equal(t, []string{"10_late", "A", "B"}, w.Systems())
}

func TestSchedulerRegistration(t *testing.T) {
	w := ecs.NewWorld()
	noop := ecs.SystemFunc(func() error { return nil })

	require.NoError(t, w.AddSystem("noop", noop))
	assert.True(t, errors.Is(w.AddSystem("noop", noop), ecs.ErrSystemAlreadyRegistered))
	assert.Equal(t, 1, w.Scheduler().Len())

	_, err := w.Scheduler().Get("noop")
	require.NoError(t, err)

	require.NoError(t, w.RemoveSystem("noop"))
	assert.True(t, errors.Is(w.RemoveSystem("noop"), ecs.ErrSystemNotRegistered))
	_, err = w.Scheduler().Get("noop")
	assert.True(t, errors.Is(err, ecs.ErrSystemNotRegistered))
	assert.Empty(t, w.Systems())
}

func TestSchedulerStopsOnFirstError(t *testing.T) {
	w := ecs.NewWorld()
	var trace []string
	boom := errors.New("boom")
	require.NoError(t, w.AddSystem("1", &recordingSystem{name: "1", trace: &trace}))
	require.NoError(t, w.AddSystem("2", &recordingSystem{name: "2", trace: &trace, err: boom}))
	require.NoError(t, w.AddSystem("3", &recordingSystem{name: "3", trace: &trace}))

	flushed := false
	w.Commands().Defer(func() { flushed = true })

	err := w.RunSystems()
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), `system "2"`)
	assert.Equal(t, []string{"1", "2"}, trace)
	assert.True(t, flushed, "commands are flushed even when a system fails")

	stats := w.Scheduler().GetStats()
	assert.Equal(t, int64(1), stats.Systems[1].ErrorCount)
	assert.Zero(t, stats.Systems[2].ExecutionCount)
}

func TestRunActiveSystems(t *testing.T) {
	w := ecs.NewWorld()
	var trace []string
	paused := &recordingSystem{name: "paused", trace: &trace}
	paused.SetActive(false)
	require.NoError(t, w.AddSystem("a", &recordingSystem{name: "a", trace: &trace}))
	require.NoError(t, w.AddSystem("b", paused))

	require.NoError(t, w.RunActiveSystems())
	assert.Equal(t, []string{"a"}, trace)

	require.NoError(t, w.RunSystems())
	assert.Equal(t, []string{"a", "a", "paused"}, trace, "RunSystems ignores the activation flag")

	stats := w.Scheduler().GetStats()
	assert.True(t, stats.Systems[0].Active)
	assert.False(t, stats.Systems[1].Active)
}

func TestSchedulerStats(t *testing.T) {
	w := ecs.NewWorld()
	require.NoError(t, w.AddSystem("idle", ecs.SystemFunc(func() error { return nil })))
	require.NoError(t, w.AddSystem("work", ecs.SystemFunc(func() error {
		time.Sleep(time.Millisecond)
		return nil
	})))

	stats := w.Scheduler().GetStats()
	assert.Equal(t, 2, stats.SystemCount)
	assert.Zero(t, stats.Systems[0].MinDuration, "unrun systems report zero durations")

	for i := 0; i < 3; i++ {
		require.NoError(t, w.RunSystems())
	}

	stats = w.Scheduler().GetStats()
	assert.Equal(t, int64(6), stats.TotalExecutions)
	work := stats.Systems[1]
	assert.Equal(t, "work", work.Name)
	assert.Equal(t, int64(3), work.ExecutionCount)
	assert.GreaterOrEqual(t, work.MinDuration, time.Millisecond)
	assert.GreaterOrEqual(t, work.MaxDuration, work.MinDuration)
	assert.Equal(t, work.TotalDuration/3, work.AvgDuration)
}

func TestSchedulerSystemsMayEditSchedule(t *testing.T) {
	w := ecs.NewWorld()
	var trace []string
	require.NoError(t, w.AddSystem("a", ecs.SystemFunc(func() error {
		trace = append(trace, "a")
		return w.AddSystem("b", &recordingSystem{name: "b", trace: &trace})
	})))

	require.NoError(t, w.RunSystems())
	assert.Equal(t, []string{"a"}, trace, "systems added mid-run wait for the next run")
	assert.Equal(t, []string{"a", "b"}, w.Systems())
}

func TestSchedulerRun(t *testing.T) {
	w := ecs.NewWorld()
	runs := 0
	require.NoError(t, w.AddSystem("count", ecs.SystemFunc(func() error {
		runs++
		return nil
	})))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Scheduler().Run(ctx, 5*time.Millisecond))
	assert.Positive(t, runs)

	boom := errors.New("boom")
	require.NoError(t, w.AddSystem("fail", ecs.SystemFunc(func() error { return boom })))
	err := w.Scheduler().Run(context.Background(), time.Millisecond)
	assert.True(t, errors.Is(err, boom))
}

func TestSchedulerRunBackToBack(t *testing.T) {
	w := ecs.NewWorld()
	var cancel context.CancelFunc

	runs := 0
	require.NoError(t, w.AddSystem("count", ecs.SystemFunc(func() error {
		runs++
		if runs == 100 {
			cancel()
		}
		return nil
	})))

	for _, interval := range []time.Duration{0, -time.Second} {
		runs = 0
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		require.NoError(t, w.Scheduler().Run(ctx, interval))
		assert.Equal(t, 100, runs, "interval %v", interval)
	}
}
