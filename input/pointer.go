// Package input turns raw platform pointer samples into playlog point
// events. It tracks one slot per pointer identifier between down and up.
package input

import (
	"github.com/automoto/tickstage/shared/playlog"
)

type Point struct {
	X, Y float64
}

// PointSample is one raw pointer reading from the platform.
type PointSample struct {
	Identifier int
	Point      Point
	Button     int
}

// PointSource is the result of a hit test. Point is relative to the target
// when HasTarget is set, absolute otherwise.
type PointSource struct {
	TargetID  int
	HasTarget bool
	Local     bool
	Point     Point
}

// PointSourceFinder resolves the topmost eligible entity under a point.
type PointSourceFinder interface {
	FindPointSource(p Point) PointSource
}

type PointerResolverParams struct {
	Source    PointSourceFinder
	PlayerID  string
	MaxPoints int
	Priority  int
}

type pointerSlot struct {
	targetID  int
	hasTarget bool
	local     bool
	point     Point
	start     Point
	prev      Point
}

// PointerResolver is not safe for concurrent use.
type PointerResolver struct {
	source    PointSourceFinder
	playerID  string
	maxPoints int
	priority  int
	slots     map[int]*pointerSlot
}

// NewPointerResolver creates a resolver. MaxPoints <= 0 means no cap.
func NewPointerResolver(p PointerResolverParams) *PointerResolver {
	return &PointerResolver{
		source:    p.Source,
		playerID:  p.PlayerID,
		maxPoints: p.MaxPoints,
		priority:  p.Priority,
		slots:     make(map[int]*pointerSlot),
	}
}

// PointDown hit-tests the sample and opens a slot for it. It returns nil
// when the concurrent pointer cap is already reached.
func (r *PointerResolver) PointDown(s PointSample) playlog.Event {
	if _, held := r.slots[s.Identifier]; !held && r.maxPoints > 0 && len(r.slots) >= r.maxPoints {
		return nil
	}
	src := r.source.FindPointSource(s.Point)
	r.slots[s.Identifier] = &pointerSlot{
		targetID:  src.TargetID,
		hasTarget: src.HasTarget,
		local:     src.Local,
		point:     src.Point,
		start:     s.Point,
		prev:      s.Point,
	}

	ev := playlog.Event{
		int(playlog.CodePointDown),
		r.flags(),
		r.player(),
		s.Identifier,
		src.Point.X,
		src.Point.Y,
		targetOrNil(src.TargetID, src.HasTarget),
		buttonOrNil(s.Button),
		localOrNil(src.Local),
	}
	return ev.Trim(playlog.PointDownY + 1)
}

// PointMove reports the move of a held pointer, or nil if the identifier
// has no slot.
func (r *PointerResolver) PointMove(s PointSample) playlog.Event {
	return r.track(playlog.CodePointMove, s, false)
}

// PointUp reports the release of a held pointer and frees its slot, or
// returns nil if the identifier has no slot.
func (r *PointerResolver) PointUp(s PointSample) playlog.Event {
	return r.track(playlog.CodePointUp, s, true)
}

func (r *PointerResolver) track(code playlog.Code, s PointSample, release bool) playlog.Event {
	slot, ok := r.slots[s.Identifier]
	if !ok {
		return nil
	}
	startDX, startDY := s.Point.X-slot.start.X, s.Point.Y-slot.start.Y
	prevDX, prevDY := s.Point.X-slot.prev.X, s.Point.Y-slot.prev.Y
	slot.prev = s.Point
	if release {
		delete(r.slots, s.Identifier)
	}

	// Move and up carry the point resolved at down; the receiver adds the
	// deltas itself.
	src := slot.point
	ev := playlog.Event{
		int(code),
		r.flags(),
		r.player(),
		s.Identifier,
		src.X,
		src.Y,
		startDX,
		startDY,
		prevDX,
		prevDY,
		targetOrNil(slot.targetID, slot.hasTarget),
		buttonOrNil(s.Button),
		localOrNil(slot.local),
	}
	return ev.Trim(playlog.PointMovePrevDeltaY + 1)
}

// Held reports whether identifier currently has a slot.
func (r *PointerResolver) Held(identifier int) bool {
	_, ok := r.slots[identifier]
	return ok
}

// Len returns the number of held pointers.
func (r *PointerResolver) Len() int {
	return len(r.slots)
}

func (r *PointerResolver) flags() int {
	return playlog.Flags(r.priority, false)
}

func (r *PointerResolver) player() any {
	if r.playerID == "" {
		return nil
	}
	return r.playerID
}

func targetOrNil(id int, ok bool) any {
	if !ok {
		return nil
	}
	return id
}

func buttonOrNil(b int) any {
	if b == 0 {
		return nil
	}
	return b
}

func localOrNil(local bool) any {
	if !local {
		return nil
	}
	return true
}
