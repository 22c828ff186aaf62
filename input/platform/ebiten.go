// Package platform samples ebiten mouse, touch and keyboard input for the
// engine.
package platform

import (
	"github.com/automoto/tickstage/engine"
	"github.com/automoto/tickstage/input"
	"github.com/automoto/tickstage/shared/playlog"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// MouseIdentifier is the pointer identifier used for the mouse. Touch ids
// from ebiten are never negative.
const MouseIdentifier = -1

var mouseButtons = []ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonRight,
	ebiten.MouseButtonMiddle,
}

// PointerSampler turns ebiten's per-frame pointer state into point events.
type PointerSampler struct {
	mouseButton ebiten.MouseButton
	mouseLast   input.Point
	touchLast   map[ebiten.TouchID]input.Point

	// Reusable slices to avoid per-frame allocations
	touchIDs []ebiten.TouchID
	events   []playlog.Event
}

func NewPointerSampler() *PointerSampler {
	return &PointerSampler{
		touchLast: make(map[ebiten.TouchID]input.Point),
	}
}

// Poll samples this frame's input. The returned slice is reused by the next
// call.
func (s *PointerSampler) Poll(r *input.PointerResolver) []playlog.Event {
	s.events = s.events[:0]
	s.pollMouse(r)
	s.pollTouches(r)
	return s.events
}

func (s *PointerSampler) emit(ev playlog.Event) {
	if ev != nil {
		s.events = append(s.events, ev)
	}
}

func cursor() input.Point {
	x, y := ebiten.CursorPosition()
	return input.Point{X: float64(x), Y: float64(y)}
}

func (s *PointerSampler) pollMouse(r *input.PointerResolver) {
	p := cursor()
	if r.Held(MouseIdentifier) {
		if inpututil.IsMouseButtonJustReleased(s.mouseButton) {
			s.emit(r.PointUp(input.PointSample{Identifier: MouseIdentifier, Point: p, Button: int(s.mouseButton)}))
			return
		}
		if p != s.mouseLast {
			s.emit(r.PointMove(input.PointSample{Identifier: MouseIdentifier, Point: p, Button: int(s.mouseButton)}))
			s.mouseLast = p
		}
		return
	}
	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b) {
			s.mouseButton = b
			s.mouseLast = p
			s.emit(r.PointDown(input.PointSample{Identifier: MouseIdentifier, Point: p, Button: int(b)}))
			return
		}
	}
}

func (s *PointerSampler) pollTouches(r *input.PointerResolver) {
	s.touchIDs = inpututil.AppendJustReleasedTouchIDs(s.touchIDs[:0])
	for _, id := range s.touchIDs {
		x, y := inpututil.TouchPositionInPreviousTick(id)
		s.emit(r.PointUp(input.PointSample{Identifier: int(id), Point: input.Point{X: float64(x), Y: float64(y)}}))
		delete(s.touchLast, id)
	}

	s.touchIDs = inpututil.AppendJustPressedTouchIDs(s.touchIDs[:0])
	for _, id := range s.touchIDs {
		x, y := ebiten.TouchPosition(id)
		p := input.Point{X: float64(x), Y: float64(y)}
		s.touchLast[id] = p
		s.emit(r.PointDown(input.PointSample{Identifier: int(id), Point: p}))
	}

	s.touchIDs = ebiten.AppendTouchIDs(s.touchIDs[:0])
	for _, id := range s.touchIDs {
		last, ok := s.touchLast[id]
		if !ok {
			continue
		}
		x, y := ebiten.TouchPosition(id)
		p := input.Point{X: float64(x), Y: float64(y)}
		if p == last {
			continue
		}
		s.touchLast[id] = p
		s.emit(r.PointMove(input.PointSample{Identifier: int(id), Point: p}))
	}
}

// KeyPlugin raises an operation for every key in Keys that is pressed this
// frame. Operation data is the key name.
type KeyPlugin struct {
	Keys  []ebiten.Key
	Local bool

	raise func(engine.Operation)
}

func (k *KeyPlugin) Start(raise func(engine.Operation)) bool {
	if len(k.Keys) == 0 {
		return false
	}
	k.raise = raise
	return true
}

func (k *KeyPlugin) Stop() {
	k.raise = nil
}

// Poll must be called once per frame while the plugin runs.
func (k *KeyPlugin) Poll() {
	if k.raise == nil {
		return
	}
	for _, key := range k.Keys {
		if inpututil.IsKeyJustPressed(key) {
			k.raise(engine.Operation{
				Priority: playlog.PriorityJoined,
				Local:    k.Local,
				Data:     key.String(),
			})
		}
	}
}
