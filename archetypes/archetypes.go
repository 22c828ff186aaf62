package archetypes

import (
	"slices"

	"github.com/automoto/tickstage/components"
	"github.com/automoto/tickstage/tags"
	"github.com/yohamta/donburi"
)

// Entity carries what every engine entity has. The others are the extra
// components passed through EntityParams.Components.
var (
	Entity = newArchetype(
		components.Identity,
		components.Transform,
	)
	Board = newArchetype(
		tags.Board,
		components.BoardHUD,
	)
	Cell = newArchetype(
		tags.Cell,
		components.Appearance,
	)
	Piece = newArchetype(
		tags.Piece,
		components.Piece,
		components.Appearance,
	)
	Button = newArchetype(
		tags.Button,
		components.Appearance,
	)
	Gauge = newArchetype(
		components.Gauge,
	)
	Launch = newArchetype(
		components.Launch,
	)
)

type archetype struct {
	components []donburi.IComponentType
}

func newArchetype(cs ...donburi.IComponentType) *archetype {
	return &archetype{
		components: cs,
	}
}

func (a *archetype) Components() []donburi.IComponentType {
	return a.components
}

func (a *archetype) Spawn(w donburi.World, cs ...donburi.IComponentType) *donburi.Entry {
	e := w.Entry(w.Create(
		slices.Concat(a.components, cs)...,
	))
	return e
}
