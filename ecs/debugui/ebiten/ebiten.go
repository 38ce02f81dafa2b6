// Package ebiten hosts an ECS world inside an Ebiten game loop with a Dear
// ImGui overlay.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/plus3/tessera/ecs"
)

// Game implements ebiten.Game. Every tick it opens an ImGui frame, runs the
// active systems of the world and closes the frame, so systems may issue
// ImGui calls directly or through deferred render functions.
type Game struct {
	world   *ecs.World
	backend *ebitenbackend.EbitenBackend
	draw    func(screen *ebiten.Image)
	log     *zap.Logger
}

// Option configures a Game.
type Option func(*Game)

// WithDraw sets a function that draws the game content below the overlay.
func WithDraw(draw func(screen *ebiten.Image)) Option {
	return func(g *Game) {
		g.draw = draw
	}
}

// NewGame creates the ImGui backend and window and binds them to w.
func NewGame(w *ecs.World, title string, width, height int, opts ...Option) *Game {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")

	g := &Game{
		world:   w,
		backend: backend,
		log:     w.Logger().Named("ebiten"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) Update() error {
	g.backend.BeginFrame()
	err := g.world.RunActiveSystems()
	g.backend.EndFrame()
	if err != nil {
		g.log.Error("frame failed", zap.Error(err))
	}
	return err
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.draw != nil {
		g.draw(screen)
	}
	g.backend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Run blocks in the Ebiten loop until the window closes or a system fails.
func (g *Game) Run() error {
	return ebiten.RunGame(g)
}
