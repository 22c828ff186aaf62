package scenes

import (
	"github.com/automoto/tickstage/archetypes"
	"github.com/automoto/tickstage/assets"
	"github.com/automoto/tickstage/components"
	"github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/engine"
	"github.com/yohamta/donburi"
)

// GaugeLoading is a loading scene that eases a gauge towards the share of
// the target's assets loaded so far and ends once it has been full for a
// moment.
type GaugeLoading struct {
	*engine.LoadingScene
	gauge  *donburi.Entry
	ending bool
}

func NewGaugeLoading(g *engine.Game) *GaugeLoading {
	l := &GaugeLoading{
		LoadingScene: engine.NewLoadingScene(g, engine.LoadingSceneParams{
			SceneParams: engine.SceneParams{Name: "loading", Local: true},
			ExplicitEnd: true,
		}),
	}
	cfg := config.Loading
	e := engine.NewEntity(engine.EntityParams{
		Scene:      l.Scene,
		X:          (float64(g.Width()) - cfg.GaugeWidth) / 2,
		Y:          (float64(g.Height()) - cfg.GaugeHeight) / 2,
		Width:      cfg.GaugeWidth,
		Height:     cfg.GaugeHeight,
		Components: archetypes.Gauge.Components(),
	})
	l.gauge = e.Entry()

	fill := float32(cfg.FillDuration.Seconds())
	l.OnTargetReset.Add(func(t *engine.Scene) {
		l.ending = false
		l.Gauge().Reset(len(t.AssetIDs()))
	})
	l.OnTargetAssetLoad.Add(func(*assets.Asset) {
		gd := l.Gauge()
		gd.Loaded++
		gd.Retarget(fill)
	})
	l.OnTargetReady.Add(func(*engine.Scene) {
		gd := l.Gauge()
		gd.Ready = true
		gd.Retarget(fill)
	})
	l.OnUpdate.Add(l.update)
	return l
}

// Gauge returns the gauge state.
func (l *GaugeLoading) Gauge() *components.GaugeData {
	return components.Gauge.Get(l.gauge)
}

func (l *GaugeLoading) update(*engine.Scene) {
	gd := l.Gauge()
	gd.Step(TickSeconds())
	if l.ending || l.Target() == nil || !gd.Finished(config.Loading.MinDisplay) {
		return
	}
	l.ending = true
	l.End()
}
