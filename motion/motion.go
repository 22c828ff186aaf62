// Package motion eases entity transforms with gween sequences. Steps use a
// fixed dt per tick so every participant sees the same positions.
package motion

import (
	"github.com/automoto/tickstage/components"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
)

// Slide eases entry's transform to (x, y) over seconds. Axes already at
// their target are left alone; a slide in progress is replaced.
func Slide(entry *donburi.Entry, x, y float64, seconds float32) {
	t := components.Transform.Get(entry)
	tw := components.TweenData{ToX: x, ToY: y}
	if t.X != x {
		tw.X = gween.NewSequence(gween.New(float32(t.X), float32(x), seconds, ease.OutQuad))
	}
	if t.Y != y {
		tw.Y = gween.NewSequence(gween.New(float32(t.Y), float32(y), seconds, ease.OutQuad))
	}
	if tw.X == nil && tw.Y == nil {
		if entry.HasComponent(components.Tween) {
			entry.RemoveComponent(components.Tween)
		}
		return
	}
	if !entry.HasComponent(components.Tween) {
		entry.AddComponent(components.Tween)
	}
	components.Tween.SetValue(entry, tw)
}

// Moving reports whether entry is still easing.
func Moving(entry *donburi.Entry) bool {
	return entry.HasComponent(components.Tween)
}

// Update advances every tween in w by dt seconds and drops finished ones.
// Finished entries land exactly on their target.
func Update(w donburi.World, dt float32) {
	var finished []*donburi.Entry
	components.Tween.Each(w, func(entry *donburi.Entry) {
		tw := components.Tween.Get(entry)
		t := components.Transform.Get(entry)
		if tw.X != nil {
			if v, _, done := tw.X.Update(dt); done {
				t.X, tw.X = tw.ToX, nil
			} else {
				t.X = float64(v)
			}
		}
		if tw.Y != nil {
			if v, _, done := tw.Y.Update(dt); done {
				t.Y, tw.Y = tw.ToY, nil
			} else {
				t.Y = float64(v)
			}
		}
		if tw.X == nil && tw.Y == nil {
			finished = append(finished, entry)
		}
	})
	for _, entry := range finished {
		entry.RemoveComponent(components.Tween)
	}
}
