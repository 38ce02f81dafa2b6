package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plus3/tessera/ecs"
	"github.com/plus3/tessera/ecs/debugui"
	debugui_ebiten "github.com/plus3/tessera/ecs/debugui/ebiten"
	"github.com/plus3/tessera/internal/config"
	"github.com/plus3/tessera/internal/logging"
)

// newViewCommand runs the workload at display rate inside a window with the
// inspector overlay instead of measuring it.
func newViewCommand(opts *options, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Run the workload in a window with the debug UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfig(cmd, opts.configPath, cfg)
			if err != nil {
				return err
			}

			log, err := logging.New(resolved.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a, wl, err := setup(resolved, log)
			if err != nil {
				return err
			}
			_, world, err := a.Current()
			if err != nil {
				return err
			}

			game := debugui_ebiten.NewGame(world, "ecs-stress", 1280, 720)
			if err := addDebugSystems(world, wl); err != nil {
				return err
			}
			if err := world.AddSystem("00_churn", ecs.SystemFunc(func() error {
				wl.churn(resolved.Stress.Churn)
				return nil
			})); err != nil {
				return err
			}

			log.Info("opening debug view", zap.Int("entities", world.EntityCount()))
			return game.Run()
		},
	}
}

func addDebugSystems(world *ecs.World, wl *workload) error {
	if err := debugui.SpawnDebugUI(world); err != nil {
		return err
	}
	imguiSystem, err := debugui.NewImguiSystem(world)
	if err != nil {
		return err
	}
	debugSystem, err := debugui.NewDebugUISystem(world, wl.bus)
	if err != nil {
		return err
	}
	if err := world.AddSystem("90_imgui", imguiSystem); err != nil {
		return err
	}
	return world.AddSystem("91_debugui", debugSystem)
}
