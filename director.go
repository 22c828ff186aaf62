package main

import (
	"image/color"
	"log"

	"github.com/automoto/tickstage/assets"
	"github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/engine"
	"github.com/automoto/tickstage/host"
	"github.com/automoto/tickstage/input/platform"
	"github.com/automoto/tickstage/render"
	"github.com/automoto/tickstage/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/yohamta/donburi/ecs"
)

// Director is the ebiten game: it samples input, steps the host and draws
// the active scene with the presentation ECS attached to it.
type Director struct {
	game     *engine.Game
	host     *host.Host
	renderer *render.ScreenRenderer
	sampler  *platform.PointerSampler
	keys     *platform.KeyPlugin
	assets   *assets.Manager
	audio    *audio.Context

	ecs map[*engine.Scene]*ecs.ECS
}

type DirectorParams struct {
	Game     *engine.Game
	Host     *host.Host
	Renderer *render.ScreenRenderer
	Keys     *platform.KeyPlugin
	Assets   *assets.Manager
	Audio    *audio.Context
}

func NewDirector(p DirectorParams) *Director {
	d := &Director{
		game:     p.Game,
		host:     p.Host,
		renderer: p.Renderer,
		sampler:  platform.NewPointerSampler(),
		keys:     p.Keys,
		assets:   p.Assets,
		audio:    p.Audio,
		ecs:      make(map[*engine.Scene]*ecs.ECS),
	}
	d.game.OnSceneChange.Add(d.attach)
	return d
}

// attach gives a scene its presentation systems the first time it becomes
// active.
func (d *Director) attach(scene *engine.Scene) {
	if _, ok := d.ecs[scene]; ok {
		return
	}
	e := ecs.NewECS(scene.World())
	switch scene.Name() {
	case "loading":
		e.AddRenderer(systems.LayerOverlay, systems.DrawGauge)
	case "title":
		e.AddRenderer(systems.LayerOverlay, systems.DrawTitle)
	case "board":
		e.AddSystem(systems.NewPlayCues(d.audio, d.assets))
		e.AddRenderer(systems.LayerHUD, systems.DrawBoardHUD)
	}
	d.ecs[scene] = e
	scene.OnStateChange.Add(func(st engine.SceneState) {
		if st == engine.SceneStateDestroyed {
			delete(d.ecs, scene)
		}
	})
}

func (d *Director) Update() error {
	if d.game.Terminated() {
		return ebiten.Termination
	}
	if d.keys != nil {
		d.keys.Poll()
	}
	for _, ev := range d.sampler.Poll(d.game.Pointer()) {
		d.game.RaisePlaylogEvent(ev)
	}
	if err := d.host.Step(); err != nil {
		log.Printf("[director] %v", err)
		return err
	}
	if e, ok := d.ecs[d.game.Scene()]; ok {
		e.Update()
	}
	return nil
}

func (d *Director) Draw(screen *ebiten.Image) {
	// Always clear screen to prevent white flashes from OS window background
	screen.Fill(color.Black)

	d.renderer.Begin(screen)
	d.game.Render(d.renderer)
	if e, ok := d.ecs[d.game.Scene()]; ok {
		e.Draw(screen)
	}
}

func (d *Director) Layout(width, height int) (int, int) {
	return config.C.Width, config.C.Height
}
