// Package host drives an engine.Game once per frame, offline or from the
// ticks of a relay.
package host

import (
	"fmt"
	"log"

	"github.com/automoto/tickstage/engine"
	"github.com/automoto/tickstage/shared/playlog"
)

// TickFeed delivers relay ticks. *network.Client implements it.
type TickFeed interface {
	Joined() bool
	DrainTicks() []playlog.Tick
}

type Host struct {
	game *engine.Game
	feed TickFeed
	// lastAge is the age of the last relay tick run, -1 before the first.
	lastAge int
}

// New returns a host for g. A nil feed runs offline: every frame is one
// advancing tick.
func New(g *engine.Game, feed TickFeed) *Host {
	return &Host{game: g, feed: feed, lastAge: -1}
}

// Step runs this frame's ticks.
//
// Offline, it runs one advancing tick with the locally raised events.
// Online and joined, it runs every relay tick received since the last
// frame; local events go with the first of them, and when several ticks
// arrive at once the first one reports the others as omitted local ticks.
// Without relay ticks, or before the join, it runs a local tick that does
// not advance the age.
//
// A tick that fails to decode terminates the game.
func (h *Host) Step() error {
	local := h.game.TakeLocalEvents()
	if h.feed == nil {
		return h.tick(true, 0, local)
	}
	if !h.feed.Joined() {
		return h.tick(false, 0, local)
	}
	ticks := h.feed.DrainTicks()
	if len(ticks) == 0 {
		return h.tick(false, 0, local)
	}
	for i, t := range ticks {
		if h.lastAge >= 0 && t.Age != h.lastAge+1 {
			log.Printf("[host] relay jumped from tick %d to %d", h.lastAge, t.Age)
		}
		h.lastAge = t.Age

		evs, omitted := t.Events, 0
		if i == 0 {
			evs = append(local, t.Events...)
			omitted = len(ticks) - 1
		}
		if err := h.tick(true, omitted, evs); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) tick(advance bool, omitted int, evs []playlog.Event) error {
	if _, err := h.game.Tick(advance, omitted, evs); err != nil {
		h.game.Terminate()
		return fmt.Errorf("host: %w", err)
	}
	return nil
}
