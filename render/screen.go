// Package render draws engine scenes onto an ebiten screen.
package render

import (
	"image/color"

	"github.com/automoto/tickstage/engine"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// ImageSource resolves image assets by id.
type ImageSource interface {
	Image(id string) (*ebiten.Image, bool)
}

type origin struct {
	x, y float64
}

// ScreenRenderer implements engine.Renderer. Reuse one per frame with
// Begin.
type ScreenRenderer struct {
	screen *ebiten.Image
	images ImageSource
	cur    origin
	stack  []origin
	drawOp ebiten.DrawImageOptions
}

func NewScreenRenderer(images ImageSource) *ScreenRenderer {
	return &ScreenRenderer{images: images}
}

// Begin targets screen and resets the translation stack.
func (r *ScreenRenderer) Begin(screen *ebiten.Image) {
	r.screen = screen
	r.cur = origin{}
	r.stack = r.stack[:0]
}

func (r *ScreenRenderer) Save() {
	r.stack = append(r.stack, r.cur)
}

func (r *ScreenRenderer) Restore() {
	if len(r.stack) == 0 {
		return
	}
	r.cur = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *ScreenRenderer) Translate(x, y float64) {
	r.cur.x += x
	r.cur.y += y
}

// DrawEntity draws e's appearance at the current origin. Entities without
// an appearance only position their children.
func (r *ScreenRenderer) DrawEntity(e *engine.Entity) {
	a, ok := e.Appearance()
	if !ok {
		return
	}
	if a.ImageAssetID != "" && r.images != nil {
		if img, ok := r.images.Image(a.ImageAssetID); ok {
			r.drawImage(img, e.Width(), e.Height())
			return
		}
	}
	if a.Fill.A == 0 {
		return
	}
	r.FillRect(0, 0, e.Width(), e.Height(), a.Fill)
}

// FillRect fills a rectangle relative to the current origin.
func (r *ScreenRenderer) FillRect(x, y, w, h float64, c color.Color) {
	vector.FillRect(
		r.screen,
		float32(r.cur.x+x), float32(r.cur.y+y),
		float32(w), float32(h),
		c,
		false,
	)
}

func (r *ScreenRenderer) drawImage(img *ebiten.Image, w, h float64) {
	b := img.Bounds()
	r.drawOp.GeoM.Reset()
	if b.Dx() > 0 && b.Dy() > 0 && w > 0 && h > 0 {
		r.drawOp.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	}
	r.drawOp.GeoM.Translate(r.cur.x, r.cur.y)
	r.screen.DrawImage(img, &r.drawOp)
}
