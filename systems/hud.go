package systems

import (
	"fmt"

	"github.com/automoto/tickstage/components"
	cfg "github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/fonts"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi/ecs"
)

const (
	hudMargin     = 10
	hudLineHeight = 14
	hudPanelWidth = 140
)

// DrawBoardHUD renders the move counter, the players in the session and
// the latest chat lines beside the board.
func DrawBoardHUD(e *ecs.ECS, screen *ebiten.Image) {
	entry, ok := components.BoardHUD.First(e.World)
	if !ok {
		return
	}
	hud := components.BoardHUD.Get(entry)
	width := float64(screen.Bounds().Dx())
	height := float64(screen.Bounds().Dy())
	x := width - hudPanelWidth - hudMargin

	vector.FillRect(screen,
		float32(x-hudMargin/2), 0,
		float32(hudPanelWidth+hudMargin), float32(height),
		cfg.BlackOverlay, false)

	y := float64(hudMargin + hudLineHeight)
	drawText(screen, fmt.Sprintf("moves: %d", hud.Moves), fonts.Label, x, y, cfg.Yellow)
	y += hudLineHeight * 1.5

	drawText(screen, "players", fonts.Regular, x, y, cfg.LightBlue)
	for _, name := range hud.Players {
		y += hudLineHeight
		drawText(screen, name, fonts.Regular, x, y, cfg.White)
	}

	y = height - hudMargin - float64(len(hud.Lines)-1)*hudLineHeight
	for _, line := range hud.Lines {
		drawText(screen, line, fonts.Regular, x, y, cfg.White)
		y += hudLineHeight
	}
}
