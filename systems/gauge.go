package systems

import (
	"fmt"

	"github.com/automoto/tickstage/components"
	cfg "github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/fonts"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// DrawGauge renders the loading gauge and its percentage.
func DrawGauge(e *ecs.ECS, screen *ebiten.Image) {
	components.Gauge.Each(e.World, func(entry *donburi.Entry) {
		g := components.Gauge.Get(entry)
		t := components.Transform.Get(entry)

		vector.FillRect(screen,
			float32(t.X), float32(t.Y),
			float32(t.Width), float32(t.Height),
			cfg.Loading.BackColor, false)
		vector.FillRect(screen,
			float32(t.X), float32(t.Y),
			float32(t.Width*g.Shown), float32(t.Height),
			cfg.Loading.BarColor, false)

		label := fmt.Sprintf("%d%%", int(g.Shown*100))
		drawCentered(screen, label, fonts.Regular, t.X+t.Width/2, t.Y+t.Height+16, cfg.Loading.TextColor)
	})
}
