package systems

import (
	"image/color"

	"github.com/automoto/tickstage/fonts"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text" //nolint:staticcheck // TODO: migrate to text/v2
	"golang.org/x/image/font"
)

// drawCentered draws s horizontally centered on cx with its baseline at y.
func drawCentered(screen *ebiten.Image, s string, name fonts.FontName, cx, y float64, c color.Color) {
	face := name.Get()
	w := font.MeasureString(face, s).Ceil()
	text.Draw(screen, s, face, int(cx)-w/2, int(y), c)
}

func drawText(screen *ebiten.Image, s string, name fonts.FontName, x, y float64, c color.Color) {
	text.Draw(screen, s, name.Get(), int(x), int(y), c)
}
