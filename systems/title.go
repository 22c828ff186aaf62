package systems

import (
	"fmt"

	"github.com/automoto/tickstage/components"
	cfg "github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/fonts"
	"github.com/automoto/tickstage/tags"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// DrawTitle renders the title, the launch counter and the button labels.
func DrawTitle(e *ecs.ECS, screen *ebiten.Image) {
	width := float64(screen.Bounds().Dx())
	height := float64(screen.Bounds().Dy())

	drawCentered(screen, cfg.C.Title, fonts.Title, width/2, height*0.35, cfg.White)

	if entry, ok := components.Launch.First(e.World); ok {
		n := components.Launch.Get(entry).Count
		drawCentered(screen, fmt.Sprintf("launch #%d", n), fonts.Regular, width/2, height*0.35+24, cfg.LightBlue)
	}

	tags.Button.Each(e.World, func(entry *donburi.Entry) {
		t := components.Transform.Get(entry)
		drawCentered(screen, "START", fonts.Label, t.X+t.Width/2, t.Y+t.Height/2+5, cfg.White)
	})
}
