package components

import (
	"image/color"

	"github.com/solarlune/resolv"
	"github.com/tanema/gween"
	"github.com/yohamta/donburi"
)

// IdentityData mirrors the owning engine entity's id.
type IdentityData struct {
	ID    int
	Local bool
}

var Identity = donburi.NewComponentType[IdentityData]()

// TransformData is the entity's box relative to its parent.
type TransformData struct {
	X, Y          float64
	Width, Height float64
}

var Transform = donburi.NewComponentType[TransformData]()

// HitAreaData is the broadphase object of a touchable entity, kept in
// scene coordinates.
type HitAreaData struct {
	*resolv.Object
}

var HitArea = donburi.NewComponentType[HitAreaData]()

// AppearanceData is what a renderer draws for an entity. An ImageAssetID
// takes precedence over Fill.
type AppearanceData struct {
	Fill         color.RGBA
	ImageAssetID string
}

var Appearance = donburi.NewComponentType[AppearanceData]()

// TweenData eases the entity's position. A nil sequence leaves that axis
// alone.
type TweenData struct {
	X, Y     *gween.Sequence
	ToX, ToY float64
}

var Tween = donburi.NewComponentType[TweenData]()
