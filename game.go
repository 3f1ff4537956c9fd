package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/milk9111/overlay/config"
	"github.com/milk9111/overlay/donation"
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/ecs/entity"
	"github.com/milk9111/overlay/ecs/system"
	"github.com/milk9111/overlay/particles"
	"github.com/milk9111/overlay/prefabs"
	"github.com/milk9111/overlay/relay"
	"github.com/milk9111/overlay/twitch"
)

const (
	sceneFile  = "scene.yaml"
	relaySize  = 64
	randomSeed = 0x5eed
)

type Game struct {
	cfg    *config.Config
	world  *ecs.World
	ui     *ebitenui.UI
	panel  *controlPanel
	width  int
	height int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	session *twitch.Session
	watcher *prefabs.Watcher
	toggles <-chan struct{}
}

func NewGame(parent context.Context, cfg *config.Config, width, height int) (*Game, error) {
	ctx, cancel := context.WithCancel(parent)
	g := &Game{
		cfg:    cfg,
		world:  ecs.NewWorld(),
		width:  width,
		height: height,
		ctx:    ctx,
		cancel: cancel,
	}

	overlay := ecs.CreateEntity(g.world)
	if err := ecs.Add(g.world, overlay, component.OverlayComponent.Kind(), &component.Overlay{
		Width:    float64(width),
		Height:   float64(height),
		EditMode: !cfg.Window.Passthrough,
	}); err != nil {
		cancel()
		return nil, err
	}

	lib := particles.NewLibrary()
	if err := prefabs.LoadEffects(lib); err != nil {
		log.Printf("particles: %v", err)
	}

	twitchEvents := relay.New[twitch.Event]("twitch", relaySize)
	donations := relay.New[donation.Donation]("donation", relaySize)

	g.session = twitch.NewSession(twitch.NewClient(twitchConfig(cfg)), twitchEvents)
	g.goRun("twitch", g.session.Run)
	if cfg.Twitch.AutoConnect {
		g.session.Do(twitch.Connect{})
	}

	if cfg.Donation.Enabled {
		srv := donation.NewServer(cfg.Donation.Token, donations)
		g.goRun("donation", func(ctx context.Context) error {
			log.Printf("donation: listening on %s", cfg.Donation.Addr)
			return srv.ListenAndServe(ctx, cfg.Donation.Addr)
		})
	}

	var copyFn func([]byte) error
	if err := clipboard.Init(); err != nil {
		log.Printf("clipboard: %v", err)
	} else {
		copyFn = func(b []byte) error {
			clipboard.Write(clipboard.FmtText, b)
			return nil
		}
	}

	reactions := system.NewReactionSystem(cfg.Reactions.Script, func(msg string) {
		g.session.Do(twitch.SendChat{Message: msg})
	})
	patch := clockPatch(cfg.Clock)

	if cfg.Prefabs.Watch {
		watcher, err := prefabs.NewWatcher(prefabs.Dir())
		if err != nil {
			log.Printf("hot reload: %v", err)
		} else {
			g.watcher = watcher
			g.world.AddSystem(system.NewHotReloadSystem(watcher.Events, lib, reactions, sceneFile, patch))
			g.wg.Add(1)
			go func() {
				defer g.wg.Done()
				for err := range watcher.Errors {
					log.Printf("hot reload: %v", err)
				}
			}()
		}
	}

	g.world.AddSystem(system.NewInputSystem(nil))
	g.world.AddSystem(system.NewDraggableSystem(copyFn))
	g.world.AddSystem(system.NewStreamSystem(twitchEvents, donations))
	g.world.AddSystem(reactions)
	g.world.AddSystem(system.NewClockSystem())
	g.world.AddSystem(system.NewExpireSystem())
	g.world.AddSystem(system.NewFireworksSystem())
	g.world.AddSystem(system.NewClickEffectSystem())
	g.world.AddSystem(system.NewParticleSystem(lib, randomSeed))
	g.world.AddSystem(system.NewPhysicsSystem(system.PhysicsConfig{
		Gravity:    cfg.Physics.Gravity,
		Damping:    cfg.Physics.Damping,
		Iterations: cfg.Physics.Iterations,
	}))
	g.world.AddSystem(system.NewTweenSystem())
	g.world.AddSystem(system.NewAudioSystem(cfg.Audio.Volume, nil))
	g.world.AddSystem(system.NewRenderSystem())

	if _, err := entity.BuildScene(g.world, sceneFile, patch); err != nil {
		log.Printf("scene: %v", err)
	}

	g.ui = newControlUI(g)
	g.toggles = listenHotkey(ctx)
	return g, nil
}

// clockPatch places the clock where the config says and starts it with the
// configured time.
func clockPatch(c config.ClockConfig) entity.ScenePatch {
	return func(spec prefabs.EntityBuildSpec) map[string]any {
		if _, ok := spec.Components["clock"]; !ok {
			return nil
		}
		return map[string]any{
			"transform": map[string]any{"x": c.X, "y": c.Y},
			"clock": map[string]any{
				"seconds":   c.Seconds,
				"width":     c.Width,
				"height":    c.Height,
				"font_size": c.FontSize,
			},
		}
	}
}

func (g *Game) goRun(name string, run func(context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := run(g.ctx); err != nil && g.ctx.Err() == nil {
			log.Printf("%s: %v", name, err)
		}
	}()
}

func (g *Game) overlay() *component.Overlay {
	e, ok := g.world.First(component.OverlayComponent.Kind())
	if !ok {
		return nil
	}
	ov, _ := ecs.Get(g.world, e, component.OverlayComponent.Kind())
	return ov
}

func (g *Game) streamStatus() component.StreamStatus {
	e, ok := g.world.First(component.StreamStatusComponent.Kind())
	if !ok {
		return component.StreamStatus{}
	}
	st, _ := ecs.Get(g.world, e, component.StreamStatusComponent.Kind())
	return *st
}

// toggleEditMode switches between the click-through overlay and the mode in
// which decorations and the control panel take the mouse.
func (g *Game) toggleEditMode() {
	ov := g.overlay()
	if ov == nil {
		return
	}
	ov.EditMode = !ov.EditMode
	ebiten.SetWindowMousePassthrough(g.cfg.Window.Passthrough && !ov.EditMode)
	log.Printf("overlay: edit mode %v", ov.EditMode)
}

func (g *Game) push(typ string, data any) {
	g.world.Events().Push(ecs.Event{Type: typ, Data: data})
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}

	select {
	case <-g.toggles:
		g.toggleEditMode()
	default:
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) && ebiten.IsKeyPressed(ebiten.KeyShift) && inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.toggleEditMode()
	}

	if ov := g.overlay(); ov != nil && ov.EditMode {
		g.panel.refresh(g.streamStatus())
		g.ui.Update()
	}

	g.world.SetDelta(time.Second / time.Duration(ebiten.TPS()))
	g.world.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.world.Draw(screen)
	if ov := g.overlay(); ov != nil && ov.EditMode {
		g.ui.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		if ov := g.overlay(); ov != nil {
			ov.Width, ov.Height = float64(outsideWidth), float64(outsideHeight)
		}
	}
	return outsideWidth, outsideHeight
}

// Close stops the background goroutines and waits for them.
func (g *Game) Close() {
	g.cancel()
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Printf("overlay: background tasks did not stop in time")
	}
}
