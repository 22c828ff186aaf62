package engine

import (
	"slices"

	"github.com/automoto/tickstage/archetypes"
	"github.com/automoto/tickstage/components"
	"github.com/automoto/tickstage/tags"
	"github.com/automoto/tickstage/trigger"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

type EntityParams struct {
	Scene *Scene
	// Parent, when set, receives the entity as its last child instead of the
	// scene.
	Parent *Entity
	// Local entities are invisible to other participants. Entities of a
	// local scene are always local.
	Local bool

	X, Y          float64
	Width, Height float64
	Touchable     bool
	Hidden        bool
	Appearance    *components.AppearanceData
	// Components are extra donburi components or tags for the entity's
	// world entry.
	Components []donburi.IComponentType
}

// Entity is a node of a scene's entity tree. Its box lives in the scene's
// donburi world so ECS systems can move it.
type Entity struct {
	id        int
	local     bool
	scene     *Scene
	parent    *Entity
	children  []*Entity
	entry     *donburi.Entry
	touchable bool
	hidden    bool
	destroyed bool

	OnPointDown trigger.Trigger[*PointDownEvent]
	OnPointMove trigger.Trigger[*PointMoveEvent]
	OnPointUp   trigger.Trigger[*PointUpEvent]
}

// NewEntity creates an entity, assigns it the next id of its namespace and
// attaches it to its parent or scene.
func NewEntity(p EntityParams) *Entity {
	e := newEntity(p)
	p.Scene.game.Register(e)
	e.attach(p)
	return e
}

// NewEntityWithID recreates an entity under a known id, as when restoring a
// snapshot.
func NewEntityWithID(p EntityParams, id int) (*Entity, error) {
	e := newEntity(p)
	if err := p.Scene.game.RegisterWithID(e, id); err != nil {
		return nil, err
	}
	e.attach(p)
	return e, nil
}

func newEntity(p EntityParams) *Entity {
	if p.Scene == nil {
		panic("engine: entity without scene")
	}
	return &Entity{
		local:  p.Local || p.Scene.local,
		scene:  p.Scene,
		hidden: p.Hidden,
	}
}

func (e *Entity) attach(p EntityParams) {
	w := e.scene.world
	e.entry = archetypes.Entity.Spawn(w, p.Components...)
	components.Identity.SetValue(e.entry, components.IdentityData{ID: e.id, Local: e.local})
	components.Transform.SetValue(e.entry, components.TransformData{
		X: p.X, Y: p.Y, Width: p.Width, Height: p.Height,
	})
	if p.Appearance != nil {
		if !e.entry.HasComponent(components.Appearance) {
			e.entry.AddComponent(components.Appearance)
		}
		components.Appearance.SetValue(e.entry, *p.Appearance)
	}
	if e.local && !e.entry.HasComponent(tags.Local) {
		e.entry.AddComponent(tags.Local)
	}
	if p.Touchable {
		e.SetTouchable(true)
	}
	if p.Parent != nil {
		p.Parent.Append(e)
	} else {
		e.scene.Append(e)
	}
}

func (e *Entity) ID() int {
	return e.id
}

func (e *Entity) Local() bool {
	return e.local
}

func (e *Entity) Scene() *Scene {
	return e.scene
}

func (e *Entity) Parent() *Entity {
	return e.parent
}

func (e *Entity) Children() []*Entity {
	return e.children
}

// Entry returns the entity's donburi entry.
func (e *Entity) Entry() *donburi.Entry {
	return e.entry
}

func (e *Entity) Destroyed() bool {
	return e.destroyed
}

func (e *Entity) X() float64      { return components.Transform.Get(e.entry).X }
func (e *Entity) Y() float64      { return components.Transform.Get(e.entry).Y }
func (e *Entity) Width() float64  { return components.Transform.Get(e.entry).Width }
func (e *Entity) Height() float64 { return components.Transform.Get(e.entry).Height }

func (e *Entity) MoveTo(x, y float64) {
	t := components.Transform.Get(e.entry)
	t.X, t.Y = x, y
}

func (e *Entity) Resize(w, h float64) {
	t := components.Transform.Get(e.entry)
	t.Width, t.Height = w, h
}

// Appearance returns the entity's appearance, if it has one.
func (e *Entity) Appearance() (*components.AppearanceData, bool) {
	if !e.entry.HasComponent(components.Appearance) {
		return nil, false
	}
	return components.Appearance.Get(e.entry), true
}

// GlobalPosition returns the entity's origin in scene coordinates.
func (e *Entity) GlobalPosition() Point {
	var p Point
	for n := e; n != nil; n = n.parent {
		p.X += n.X()
		p.Y += n.Y()
	}
	return p
}

func (e *Entity) Visible() bool {
	return !e.hidden
}

func (e *Entity) Show() { e.hidden = false }
func (e *Entity) Hide() { e.hidden = true }

func (e *Entity) Touchable() bool {
	return e.touchable
}

// SetTouchable makes the entity eligible for hit testing.
func (e *Entity) SetTouchable(touchable bool) {
	if touchable == e.touchable || e.destroyed {
		return
	}
	e.touchable = touchable
	if touchable {
		t := components.Transform.Get(e.entry)
		obj := resolv.NewObject(t.X, t.Y, t.Width, t.Height, tags.ResolvTouchable)
		obj.Data = e
		e.scene.space.Add(obj)
		e.entry.AddComponent(components.HitArea)
		components.HitArea.SetValue(e.entry, components.HitAreaData{Object: obj})
		e.entry.AddComponent(tags.Touchable)
		return
	}
	e.removeHitArea()
}

func (e *Entity) hitArea() *resolv.Object {
	return components.HitArea.Get(e.entry).Object
}

func (e *Entity) removeHitArea() {
	if !e.entry.HasComponent(components.HitArea) {
		return
	}
	e.scene.space.Remove(components.HitArea.Get(e.entry).Object)
	e.entry.RemoveComponent(components.HitArea)
	e.entry.RemoveComponent(tags.Touchable)
}

// Append makes child the last child of e.
func (e *Entity) Append(child *Entity) {
	child.detach()
	child.parent = e
	e.children = append(e.children, child)
}

// Remove detaches child without destroying it.
func (e *Entity) Remove(child *Entity) {
	if child.parent == e {
		child.detach()
	}
}

func (e *Entity) detach() {
	if e.parent != nil {
		e.parent.children = slices.DeleteFunc(e.parent.children, func(c *Entity) bool { return c == e })
		e.parent = nil
		return
	}
	e.scene.remove(e)
}

// Destroy destroys e and its descendants and releases their ids.
func (e *Entity) Destroy() {
	if e.destroyed {
		return
	}
	for _, c := range slices.Clone(e.children) {
		c.Destroy()
	}
	e.detach()
	if e.touchable {
		e.removeHitArea()
		e.touchable = false
	}
	if e.entry.Valid() {
		e.scene.world.Remove(e.entry.Entity())
	}
	e.scene.game.Unregister(e)
	e.OnPointDown.Destroy()
	e.OnPointMove.Destroy()
	e.OnPointUp.Destroy()
	e.destroyed = true
}

func (e *Entity) render(r Renderer) {
	if e.hidden {
		return
	}
	r.Save()
	r.Translate(e.X(), e.Y())
	r.DrawEntity(e)
	for _, c := range e.children {
		c.render(r)
	}
	r.Restore()
}
