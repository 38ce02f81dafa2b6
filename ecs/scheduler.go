package ecs

import (
	"context"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Active         bool
	ExecutionCount int64
	ErrorCount     int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	errorCount     int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(duration time.Duration, err error) {
	s.executionCount++
	if err != nil {
		s.errorCount++
	}
	s.lastDuration = duration
	s.totalDuration += duration
	if duration < s.minDuration {
		s.minDuration = duration
	}
	if duration > s.maxDuration {
		s.maxDuration = duration
	}
}

type scheduledSystem struct {
	name   string
	system System
	stats  *systemStatsInternal
}

// Scheduler holds the systems of a World keyed by name. Systems always run
// in ascending lexicographic order of their names, whatever order they were
// added in, so name systems to express ordering between them.
type Scheduler struct {
	world   *World
	systems *treemap.Map
	log     *zap.Logger
}

func newScheduler(world *World, log *zap.Logger) *Scheduler {
	return &Scheduler{
		world:   world,
		systems: treemap.NewWithStringComparator(),
		log:     log,
	}
}

// Add registers system under name.
func (s *Scheduler) Add(name string, system System) error {
	if _, found := s.systems.Get(name); found {
		return errors.Wrapf(ErrSystemAlreadyRegistered, "system %q", name)
	}
	s.systems.Put(name, &scheduledSystem{
		name:   name,
		system: system,
		stats:  &systemStatsInternal{minDuration: time.Duration(1<<63 - 1)},
	})
	s.log.Debug("system added", zap.String("system", name))
	return nil
}

// Remove unregisters the system called name.
func (s *Scheduler) Remove(name string) error {
	if _, found := s.systems.Get(name); !found {
		return errors.Wrapf(ErrSystemNotRegistered, "system %q", name)
	}
	s.systems.Remove(name)
	s.log.Debug("system removed", zap.String("system", name))
	return nil
}

// Get returns the system registered under name.
func (s *Scheduler) Get(name string) (System, error) {
	value, found := s.systems.Get(name)
	if !found {
		return nil, errors.Wrapf(ErrSystemNotRegistered, "system %q", name)
	}
	return value.(*scheduledSystem).system, nil
}

// Names returns the registered system names in execution order.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, s.systems.Size())
	for _, key := range s.systems.Keys() {
		names = append(names, key.(string))
	}
	return names
}

// Len returns the number of registered systems.
func (s *Scheduler) Len() int {
	return s.systems.Size()
}

// snapshot copies the ordered entries so systems may add or remove systems
// while a run is in progress without disturbing it.
func (s *Scheduler) snapshot() []*scheduledSystem {
	entries := make([]*scheduledSystem, 0, s.systems.Size())
	it := s.systems.Iterator()
	for it.Next() {
		entries = append(entries, it.Value().(*scheduledSystem))
	}
	return entries
}

func (s *Scheduler) run(onlyActive bool) error {
	defer s.world.commands.flush(s.world)

	for _, entry := range s.snapshot() {
		if onlyActive {
			if a, ok := entry.system.(Activatable); ok && !a.Active() {
				continue
			}
		}

		start := time.Now()
		err := entry.system.Update()
		entry.stats.record(time.Since(start), err)
		if err != nil {
			s.log.Error("system update failed", zap.String("system", entry.name), zap.Error(err))
			return errors.Wrapf(err, "system %q", entry.name)
		}
	}
	return nil
}

// Once runs every system a single time in name order, then flushes the
// deferred commands queued during the run. The first failing system aborts
// the run.
func (s *Scheduler) Once() error {
	return s.run(false)
}

// OnceActive is like Once but skips systems whose activation flag is off.
func (s *Scheduler) OnceActive() error {
	return s.run(true)
}

// Run executes all systems repeatedly at the given interval until the
// context is cancelled or a system fails. A non-positive interval runs the
// systems back to back.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		for ctx.Err() == nil {
			if err := s.Once(); err != nil {
				return err
			}
		}
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Once(); err != nil {
				return err
			}
		}
	}
}

// GetStats returns statistics about system execution, in execution order.
func (s *Scheduler) GetStats() *SchedulerStats {
	entries := s.snapshot()
	stats := &SchedulerStats{
		SystemCount: len(entries),
		Systems:     make([]SystemStats, len(entries)),
	}

	var totalExecs int64
	for i, entry := range entries {
		internal := entry.stats
		avgDuration := time.Duration(0)
		minDuration := internal.minDuration
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		} else {
			minDuration = 0
		}

		active := true
		if a, ok := entry.system.(Activatable); ok {
			active = a.Active()
		}

		stats.Systems[i] = SystemStats{
			Name:           entry.name,
			Active:         active,
			ExecutionCount: internal.executionCount,
			ErrorCount:     internal.errorCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
