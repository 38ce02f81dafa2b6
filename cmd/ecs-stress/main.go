package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/plus3/tessera/ecs/app"
	"github.com/plus3/tessera/ecs/event"
	"github.com/plus3/tessera/ecs/plugin"
	"github.com/plus3/tessera/internal/config"
	"github.com/plus3/tessera/internal/logging"
)

type options struct {
	configPath     string
	gcPauseMetrics bool
	script         string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cfg := config.Defaults()

	root := &cobra.Command{
		Use:          "ecs-stress",
		Short:        "Drive an ECS world with a synthetic workload and report timings",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfig(cmd, opts.configPath, cfg)
			if err != nil {
				return err
			}
			return runStress(cmd.Context(), resolved, opts)
		},
	}

	bindFlags(root, cfg, &opts.configPath)
	root.Flags().BoolVar(&opts.gcPauseMetrics, "gc-pause-metrics", false, "include GC pause metrics in the report")
	root.Flags().StringVar(&opts.script, "script", "", "Lua plugin whose tick(frame) may return a number of entities to spawn")

	root.AddCommand(newViewCommand(&opts, cfg))
	return root
}

// bindFlags binds the persistent flags of cmd to the fields of cfg.
func bindFlags(cmd *cobra.Command, cfg *config.Config, configPath *string) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(configPath, "config", "c", "", "TOML or YAML config file")
	flags.DurationVar(&cfg.Stress.Duration, "duration", cfg.Stress.Duration, "total duration of the run")
	flags.IntVar(&cfg.Stress.Entities, "entities", cfg.Stress.Entities, "initial number of entities")
	flags.DurationVar(&cfg.Stress.TickInterval, "tick", cfg.Stress.TickInterval, "interval between frames, 0 runs frames back to back")
	flags.Float64Var(&cfg.Stress.Churn, "churn", cfg.Stress.Churn, "fraction of entities replaced every frame")
	flags.Int64Var(&cfg.Stress.Seed, "seed", cfg.Stress.Seed, "random seed of the workload")
	flags.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level")
	flags.StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "log format, console or json")
	flags.StringVar(&cfg.Profile.Mode, "profile", cfg.Profile.Mode, "profile mode: cpu, mem, allocs, block, mutex or trace")
	flags.StringVar(&cfg.Profile.Path, "profile-path", cfg.Profile.Path, "directory receiving profiles")
}

// flagKeys maps flag names to the config values they override.
var flagKeys = map[string]func(dst, src *config.Config){
	"duration":     func(dst, src *config.Config) { dst.Stress.Duration = src.Stress.Duration },
	"entities":     func(dst, src *config.Config) { dst.Stress.Entities = src.Stress.Entities },
	"tick":         func(dst, src *config.Config) { dst.Stress.TickInterval = src.Stress.TickInterval },
	"churn":        func(dst, src *config.Config) { dst.Stress.Churn = src.Stress.Churn },
	"seed":         func(dst, src *config.Config) { dst.Stress.Seed = src.Stress.Seed },
	"log-level":    func(dst, src *config.Config) { dst.Logging.Level = src.Logging.Level },
	"log-format":   func(dst, src *config.Config) { dst.Logging.Format = src.Logging.Format },
	"profile":      func(dst, src *config.Config) { dst.Profile.Mode = src.Profile.Mode },
	"profile-path": func(dst, src *config.Config) { dst.Profile.Path = src.Profile.Path },
}

// resolveConfig loads the config file, if any, and lets explicitly set flags
// override it.
func resolveConfig(cmd *cobra.Command, path string, fromFlags *config.Config) (*config.Config, error) {
	if path == "" {
		return fromFlags, fromFlags.Validate()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	for name, apply := range flagKeys {
		if cmd.Flags().Changed(name) {
			apply(cfg, fromFlags)
		}
	}
	return cfg, cfg.Validate()
}

func startProfile(cfg config.ProfileConfig) interface{ Stop() } {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "allocs":
		mode = profile.MemProfileAllocs
	case "block":
		mode = profile.BlockProfile
	case "mutex":
		mode = profile.MutexProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		return nil
	}
	return profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook, profile.Quiet)
}

// setup builds the world, the bus and the workload, and populates the world.
func setup(cfg *config.Config, log *zap.Logger) (*app.App[string], *workload, error) {
	a := app.New[string](app.WithLogger(log))
	world, err := a.NewWorld("stress")
	if err != nil {
		return nil, nil, err
	}
	if err := a.SetCurrent("stress"); err != nil {
		return nil, nil, err
	}

	bus := event.NewBus(event.WithLogger(log.Named("events")))
	wl, err := newWorkload(world, bus, cfg.Stress.Seed)
	if err != nil {
		return nil, nil, err
	}

	log.Info("populating world", zap.Int("entities", cfg.Stress.Entities))
	for i := 0; i < cfg.Stress.Entities; i++ {
		wl.spawn()
	}
	return a, wl, nil
}

// scriptHook loads a Lua plugin and returns a per-frame callback. The
// callback spawns as many entities as the script's tick method returns.
func scriptHook(path string, wl *workload, log *zap.Logger) (func(frame int64) error, func(), error) {
	loader := plugin.NewLoader(plugin.Lua(), plugin.WithLogger(log.Named("plugin")))
	if err := loader.Load(path); err != nil {
		return nil, nil, err
	}
	p, err := loader.Plugin()
	if err != nil {
		return nil, nil, err
	}
	unload := func() {
		if err := loader.Unload(); err != nil {
			log.Warn("unloading script", zap.Error(err))
		}
	}
	hook := func(frame int64) error {
		ret, err := p.Call("tick", lua.LNumber(frame))
		if err != nil {
			return err
		}
		if n, ok := ret.(lua.LNumber); ok {
			for i := 0; i < int(n); i++ {
				wl.spawn()
			}
		}
		return nil
	}
	return hook, unload, nil
}

func runStress(ctx context.Context, cfg *config.Config, opts options) error {
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if p := startProfile(cfg.Profile); p != nil {
		defer p.Stop()
	}

	log.Info("starting ECS stress test")
	a, wl, err := setup(cfg, log)
	if err != nil {
		return err
	}
	_, world, err := a.Current()
	if err != nil {
		return err
	}

	var hook func(int64) error
	if opts.script != "" {
		var unload func()
		if hook, unload, err = scriptHook(opts.script, wl, log); err != nil {
			return err
		}
		defer unload()
	}

	report := &Report{
		Duration:       cfg.Stress.Duration,
		Entities:       cfg.Stress.Entities,
		Components:     world.Components().Len(),
		Systems:        len(world.Systems()),
		Churn:          cfg.Stress.Churn,
		GCPauseMetrics: opts.gcPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info("running simulation", zap.Duration("duration", cfg.Stress.Duration))
	ctx, cancel := context.WithTimeout(ctx, cfg.Stress.Duration)
	defer cancel()

	var tick <-chan time.Time
	if cfg.Stress.TickInterval > 0 {
		ticker := time.NewTicker(cfg.Stress.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	startTime := time.Now()
	var frame int64
Loop:
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				break Loop
			case <-tick:
			}
		} else if ctx.Err() != nil {
			break Loop
		}

		wl.churn(cfg.Stress.Churn)
		if hook != nil {
			if err := hook(frame); err != nil {
				return err
			}
		}

		updateStart := time.Now()
		if err := a.RunCurrent(); err != nil {
			return err
		}
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		frame++
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = frame
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)
	report.collect(world, wl)

	log.Info("simulation finished", zap.Int64("frames", frame))

	out := os.Stdout
	fmt.Fprintln(out, "\n\n--- Stress Test Report ---")
	if err := report.Generate(out); err != nil {
		return err
	}
	fmt.Fprintln(out, "--- End of Report ---")
	return nil
}
