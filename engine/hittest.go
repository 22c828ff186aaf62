package engine

import (
	"github.com/automoto/tickstage/input"
	"github.com/automoto/tickstage/tags"
	"github.com/solarlune/resolv"
)

// FindPointSource returns the topmost touchable entity of the active scene
// under p. The returned point is relative to the target.
func (g *Game) FindPointSource(p input.Point) input.PointSource {
	scene := g.Scene()
	if scene == nil {
		return input.PointSource{Point: p}
	}
	target, local := scene.findTarget(p)
	if target == nil {
		return input.PointSource{Point: p, Local: scene.local}
	}
	origin := target.GlobalPosition()
	return input.PointSource{
		TargetID:  target.id,
		HasTarget: true,
		Local:     local,
		Point:     Point{X: p.X - origin.X, Y: p.Y - origin.Y},
	}
}

// findTarget narrows candidates with the scene's resolv space, then walks
// the tree in reverse draw order for an exact hit.
func (s *Scene) findTarget(p Point) (*Entity, bool) {
	s.syncHitAreas()

	probe := resolv.NewObject(p.X, p.Y, 1, 1)
	s.space.Add(probe)
	check := probe.Check(0, 0, tags.ResolvTouchable)
	s.space.Remove(probe)
	if check == nil {
		return nil, false
	}
	candidates := make(map[*Entity]bool, len(check.Objects))
	for _, obj := range check.Objects {
		if e, ok := obj.Data.(*Entity); ok {
			candidates[e] = true
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	e := topmost(s.children, Point{}, p, candidates)
	if e == nil {
		return nil, false
	}
	return e, e.local || s.local
}

func topmost(list []*Entity, origin, p Point, candidates map[*Entity]bool) *Entity {
	for i := len(list) - 1; i >= 0; i-- {
		e := list[i]
		if e.hidden {
			continue
		}
		at := Point{X: origin.X + e.X(), Y: origin.Y + e.Y()}
		if hit := topmost(e.children, at, p, candidates); hit != nil {
			return hit
		}
		if !e.touchable || !candidates[e] {
			continue
		}
		if p.X >= at.X && p.X < at.X+e.Width() && p.Y >= at.Y && p.Y < at.Y+e.Height() {
			return e
		}
	}
	return nil
}

// syncHitAreas moves every hit area to its entity's scene position.
func (s *Scene) syncHitAreas() {
	var walk func(list []*Entity, origin Point)
	walk = func(list []*Entity, origin Point) {
		for _, e := range list {
			at := Point{X: origin.X + e.X(), Y: origin.Y + e.Y()}
			if e.touchable {
				obj := e.hitArea()
				obj.X, obj.Y = at.X, at.Y
				obj.W, obj.H = e.Width(), e.Height()
				obj.Update()
			}
			walk(e.children, at)
		}
	}
	walk(s.children, Point{})
}
