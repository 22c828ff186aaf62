package components

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
)

// PieceData is a piece's logical cell. The transform may still be easing
// towards it.
type PieceData struct {
	Col, Row int
	Color    int
	Name     string
}

var Piece = donburi.NewComponentType[PieceData]()

// GaugeData drives the loading gauge.
type GaugeData struct {
	Loaded int
	Total  int
	// Shown is the displayed fraction, eased towards Loaded/Total.
	Shown float64
	Ease  *gween.Tween
	Ticks int
	Ready bool
}

var Gauge = donburi.NewComponentType[GaugeData]()

// Reset starts the gauge over for a target with total assets.
func (g *GaugeData) Reset(total int) {
	*g = GaugeData{Total: total}
}

// Target is the fraction the gauge is easing towards.
func (g *GaugeData) Target() float64 {
	if g.Ready {
		return 1
	}
	if g.Total == 0 {
		return 0
	}
	return min(float64(g.Loaded)/float64(g.Total), 1)
}

// Retarget eases from the shown fraction to Target over seconds.
func (g *GaugeData) Retarget(seconds float32) {
	g.Ease = gween.New(float32(g.Shown), float32(g.Target()), seconds, ease.OutCubic)
}

// Step advances the gauge by one tick of dt seconds.
func (g *GaugeData) Step(dt float32) {
	g.Ticks++
	if g.Ease == nil {
		return
	}
	v, done := g.Ease.Update(dt)
	g.Shown = float64(v)
	if done {
		g.Ease = nil
	}
}

// Finished reports whether a ready gauge is full and has been shown for at
// least minTicks.
func (g *GaugeData) Finished(minTicks int) bool {
	return g.Ready && g.Ease == nil && g.Shown >= 1 && g.Ticks >= minTicks
}

// LaunchData is the title screen's persisted launch counter.
type LaunchData struct {
	Count int
}

var Launch = donburi.NewComponentType[LaunchData]()

// BoardHUDData is what the board overlay shows. Cues are sound ids queued
// by the simulation for the audio system to play and clear.
type BoardHUDData struct {
	Players []string
	Lines   []string
	Moves   int
	Cues    []string
}

var BoardHUD = donburi.NewComponentType[BoardHUDData]()

// Say appends a chat line, keeping the last max.
func (h *BoardHUDData) Say(line string, max int) {
	h.Lines = append(h.Lines, line)
	if n := len(h.Lines) - max; n > 0 {
		h.Lines = append(h.Lines[:0], h.Lines[n:]...)
	}
}
