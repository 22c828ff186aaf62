package scenes

import (
	"log"

	"github.com/automoto/tickstage/archetypes"
	"github.com/automoto/tickstage/components"
	"github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/engine"
	"github.com/automoto/tickstage/shared/playlog"
	"github.com/automoto/tickstage/storage"
)

// LaunchesKey holds how many times the title screen has been shown.
var LaunchesKey = storage.Key{Region: storage.RegionCounts, RegionKey: "launches"}

const (
	startButtonWidth  = 160
	startButtonHeight = 40
)

type TitleParams struct {
	// Saver, when set, persists the launch counter.
	Saver Saver
	// Next builds the scene the start button replaces the title with.
	Next func() *engine.Scene
}

// Title counts launches and waits for the start button.
type Title struct {
	*engine.Scene
	p     TitleParams
	start *engine.Entity
	count *engine.Entity
}

func NewTitle(g *engine.Game, p TitleParams) *Title {
	t := &Title{
		Scene: engine.NewScene(g, engine.SceneParams{
			Name:        "title",
			Local:       true,
			StorageKeys: []storage.Key{LaunchesKey},
		}),
		p: p,
	}
	// A missing counter is not worth stopping for.
	t.OnStorageLoadFailure.Add(func(f *engine.StorageLoadFailure) {
		log.Printf("[title] launch counter unavailable: %v", f.Err)
		f.Handled = true
	})
	t.OnLoad.AddOnce(t.build)
	return t
}

func (t *Title) build(*engine.Scene) {
	launches := 0
	if vs := t.StorageValues(); len(vs) > 0 {
		launches, _ = playlog.Int(vs[0].Data)
	}
	launches++

	t.count = engine.NewEntity(engine.EntityParams{
		Scene:      t.Scene,
		Components: archetypes.Launch.Components(),
	})
	components.Launch.SetValue(t.count.Entry(), components.LaunchData{Count: launches})
	if t.p.Saver != nil {
		t.p.Saver.Save([]storage.Value{{Key: LaunchesKey, Data: launches}}, func(err error) {
			if err != nil {
				log.Printf("[title] failed to save launch counter: %v", err)
			}
		})
	}

	g := t.Game()
	t.start = engine.NewEntity(engine.EntityParams{
		Scene:      t.Scene,
		X:          float64(g.Width()-startButtonWidth) / 2,
		Y:          float64(g.Height()) * 0.6,
		Width:      startButtonWidth,
		Height:     startButtonHeight,
		Touchable:  true,
		Appearance: &components.AppearanceData{Fill: config.LightBlue},
		Components: archetypes.Button.Components(),
	})
	t.start.OnPointDown.AddOnce(func(*engine.PointDownEvent) {
		if t.p.Next != nil {
			g.ReplaceScene(t.p.Next(), false)
		}
	})
}

// Launches returns the launch count, zero before the title has loaded.
func (t *Title) Launches() int {
	if t.count == nil {
		return 0
	}
	return components.Launch.Get(t.count.Entry()).Count
}

// StartButton returns the start button, nil before the title has loaded.
func (t *Title) StartButton() *engine.Entity {
	return t.start
}
