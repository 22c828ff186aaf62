package systems

import (
	"log"

	"github.com/automoto/tickstage/assets"
	"github.com/automoto/tickstage/assets/media"
	"github.com/automoto/tickstage/components"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// NewPlayCues returns a system playing the sound cues the board queued
// during the last ticks. Players are created once per sound.
func NewPlayCues(ctx *audio.Context, m *assets.Manager) ecs.System {
	players := make(map[string]*audio.Player)
	return func(e *ecs.ECS) {
		components.BoardHUD.Each(e.World, func(entry *donburi.Entry) {
			hud := components.BoardHUD.Get(entry)
			for _, id := range hud.Cues {
				playCue(ctx, m, players, id)
			}
			hud.Cues = hud.Cues[:0]
		})
	}
}

func playCue(ctx *audio.Context, m *assets.Manager, players map[string]*audio.Player, id string) {
	if ctx == nil {
		return
	}
	p, ok := players[id]
	if !ok {
		var err error
		p, err = media.Player(ctx, m, id)
		if err != nil {
			log.Printf("[audio] %v", err)
			return
		}
		players[id] = p
	}
	if err := p.Rewind(); err != nil {
		log.Printf("[audio] rewind %s: %v", id, err)
	}
	p.Play()
}
