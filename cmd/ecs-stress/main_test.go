package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/plus3/tessera/ecs"
	"github.com/plus3/tessera/ecs/event"
	"github.com/plus3/tessera/internal/config"
)

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stress.toml")
	require.NoError(t, os.WriteFile(path, []byte("[stress]\nentities = 10\nchurn = 0.2\n"), 0o644))

	var configPath string
	fromFlags := config.Defaults()
	cmd := &cobra.Command{Use: "test"}
	bindFlags(cmd, fromFlags, &configPath)
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--churn", "0.5"}))
	assert.Equal(t, path, configPath)

	cfg, err := resolveConfig(cmd, configPath, fromFlags)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Stress.Entities)
	assert.Equal(t, 0.5, cfg.Stress.Churn)
	assert.Equal(t, 10*time.Second, cfg.Stress.Duration)
}

func TestWorkloadFrames(t *testing.T) {
	cfg := config.Defaults()
	cfg.Stress.Entities = 200

	a, wl, err := setup(cfg, zap.NewNop())
	require.NoError(t, err)
	_, world, err := a.Current()
	require.NoError(t, err)
	assert.Equal(t, 200, world.EntityCount())
	assert.Equal(t, []string{"10_movement", "20_damage", "30_aging", "40_reaper"}, world.Systems())

	for i := 0; i < 20; i++ {
		wl.churn(0.05)
		require.NoError(t, a.RunCurrent())
	}

	assert.Equal(t, 200, world.EntityCount(), "every kill is paired with a respawn")
	assert.Greater(t, wl.killed, int64(0))
	assert.Equal(t, int64(200)+wl.killed, wl.spawned)

	hits, err := event.Len[Hit](wl.bus)
	require.NoError(t, err)
	assert.Zero(t, hits, "hits do not outlive the frame")
}

func TestReapDropsDeathsOfKilledEntities(t *testing.T) {
	cfg := config.Defaults()
	cfg.Stress.Entities = 1

	a, wl, err := setup(cfg, zap.NewNop())
	require.NoError(t, err)
	_, world, err := a.Current()
	require.NoError(t, err)

	for i := 0; i < reapBudget+10; i++ {
		require.NoError(t, event.Push(wl.bus, Death{Target: 0}))
	}

	require.NoError(t, a.RunCurrent())
	assert.Equal(t, int64(1), wl.killed)
	assert.True(t, world.Alive(0), "the id is reused by the respawn")

	require.NoError(t, a.RunCurrent())
	assert.Equal(t, int64(1), wl.killed, "duplicate deaths must not kill the respawned entity")
	assert.Equal(t, 1, world.EntityCount())

	deaths, err := event.Len[Death](wl.bus)
	require.NoError(t, err)
	assert.Zero(t, deaths)
}

func TestWorkloadLogsFailedEmplace(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := ecs.NewWorld(ecs.WithLogger(zap.New(core)))
	wl, err := newWorkload(w, event.NewBus(), 1)
	require.NoError(t, err)

	wl.populate(w, ecs.EntityId(1<<63))
	assert.Equal(t, 1, logs.FilterMessage("workload emplace position failed").Len())
	assert.Zero(t, wl.positions.Len())
}

func TestReportGenerate(t *testing.T) {
	cfg := config.Defaults()
	cfg.Stress.Entities = 20
	a, wl, err := setup(cfg, zap.NewNop())
	require.NoError(t, err)
	_, world, _ := a.Current()
	require.NoError(t, a.RunCurrent())

	report := &Report{Duration: time.Second, Entities: 20}
	report.UpdateTime.Samples = []time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond}
	report.UpdateTime.Finalize()
	report.collect(world, wl)

	assert.Equal(t, time.Millisecond, report.UpdateTime.Min)
	assert.Equal(t, 3*time.Millisecond, report.UpdateTime.Max)
	assert.Equal(t, 2*time.Millisecond, report.UpdateTime.Avg)

	var out bytes.Buffer
	require.NoError(t, report.Generate(&out))
	assert.Contains(t, out.String(), "| 10_movement | 1 | 0 |")
	assert.Contains(t, out.String(), "main.Position")
}
