// Package scenes builds the demo's engine scenes: a title screen, the
// shared board and the loading gauge shown between them. It only drives
// simulation state; drawing and audio live in package systems.
package scenes

import (
	"github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/storage"
)

// OperationKeys is the operation code of the keyboard plugin.
const OperationKeys = 1

// Saver persists storage values. *storage.Manager implements it.
type Saver interface {
	Save(values []storage.Value, done func(error))
}

// Declarer reports which assets exist. *assets.Manager implements it.
type Declarer interface {
	Declared(id string) bool
}

// TickSeconds is the fixed easing step of one tick.
func TickSeconds() float32 {
	if config.Server.TickRate <= 0 {
		return 1.0 / 60
	}
	return 1 / float32(config.Server.TickRate)
}
