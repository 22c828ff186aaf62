package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/automoto/tickstage/shared/playlog"
	"github.com/automoto/tickstage/storage"
)

var (
	ErrVersionMismatch = errors.New("version mismatch")
	ErrAlreadyJoined   = errors.New("player already joined")
	ErrNotJoined       = errors.New("player not joined")
	ErrReservedCode    = errors.New("event code is reserved for the relay")
	ErrLocalEvent      = errors.New("local events are not relayed")
	ErrDisconnected    = errors.New("connection closed while joining")
)

// SessionsKey counts a player's joins. Its value travels with the join event.
var SessionsKey = storage.Key{Region: storage.RegionCounts, RegionKey: "sessions"}

type RelayParams struct {
	// Version is the required client version. Empty accepts any.
	Version string
	// TimestampEvery makes Step add a timestamp event every n ticks. Zero
	// disables it.
	TimestampEvery int
	// Store, when set, keeps per-player session counts.
	Store storage.Store
	// Now defaults to time.Now.
	Now func() time.Time
}

// Relay orders the events of a session into ticks. It originates join,
// leave and timestamp events itself and stamps every other event with its
// sender's player id. Safe for concurrent use.
type Relay struct {
	mu      sync.Mutex
	p       RelayParams
	age     int
	pending []playlog.Event
	players map[string]string
	// Ids whose join is waiting on the store. They are not players yet, so
	// a Leave for them is ignored.
	joining map[string]bool
}

func NewRelay(p RelayParams) *Relay {
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Relay{
		p:       p,
		players: make(map[string]string),
		joining: make(map[string]bool),
	}
}

// Join admits a player and queues its join event. The player is recorded
// and its event queued under one lock; until then a Leave for it is a no-op.
func (r *Relay) Join(ctx context.Context, id, name, version string) error {
	if r.p.Version != "" && version != r.p.Version {
		return fmt.Errorf("%w: server requires %q, got %q", ErrVersionMismatch, r.p.Version, version)
	}
	r.mu.Lock()
	if _, ok := r.players[id]; ok || r.joining[id] {
		r.mu.Unlock()
		return fmt.Errorf("join %s: %w", id, ErrAlreadyJoined)
	}
	r.joining[id] = true
	r.mu.Unlock()

	ev := playlog.Event{
		int(playlog.CodeJoin),
		playlog.Flags(playlog.PrioritySystem, false),
		id,
		name,
	}
	if data, ok := r.countSession(ctx, id); ok {
		ev = append(ev, data)
	}

	r.mu.Lock()
	delete(r.joining, id)
	r.players[id] = name
	r.pending = append(r.pending, ev)
	r.mu.Unlock()
	return nil
}

// countSession bumps the player's session counter and returns the join
// storage data.
func (r *Relay) countSession(ctx context.Context, id string) (map[string]any, bool) {
	if r.p.Store == nil {
		return nil, false
	}
	key := SessionsKey
	key.UserID = id
	values, err := r.p.Store.Load(ctx, []storage.Key{key})
	if err != nil {
		log.Printf("[relay] load sessions for %s: %v", id, err)
		return nil, false
	}
	n := 0
	if len(values) > 0 {
		n, _ = playlog.Int(values[0].Data)
	}
	n++
	if err := r.p.Store.Save(ctx, []storage.Value{{Key: key, Data: n}}); err != nil {
		log.Printf("[relay] save sessions for %s: %v", id, err)
	}
	return map[string]any{key.RegionKey: n}, true
}

// Leave removes a player and queues its leave event. Unknown ids are
// ignored.
func (r *Relay) Leave(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	r.pending = append(r.pending, playlog.Event{
		int(playlog.CodeLeave),
		playlog.Flags(playlog.PrioritySystem, false),
		id,
	})
}

// Raise queues an event sent by a joined player.
func (r *Relay) Raise(id string, ev playlog.Event) error {
	switch ev.Code() {
	case playlog.CodeJoin, playlog.CodeLeave, playlog.CodeTimestamp:
		return fmt.Errorf("%w: %s", ErrReservedCode, ev.Code())
	case -1:
		return fmt.Errorf("raise from %s: malformed event", id)
	}
	if ev.Local() {
		return ErrLocalEvent
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[id]; !ok {
		return fmt.Errorf("raise from %s: %w", id, ErrNotJoined)
	}
	stamped := make(playlog.Event, max(len(ev), playlog.IndexPlayerID+1))
	copy(stamped, ev)
	stamped[playlog.IndexPlayerID] = id
	r.pending = append(r.pending, stamped)
	return nil
}

// Step closes the current tick and returns it.
func (r *Relay) Step() playlog.Tick {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := r.p.TimestampEvery; n > 0 && r.age%n == 0 {
		r.pending = append(r.pending, playlog.Event{
			int(playlog.CodeTimestamp),
			playlog.Flags(playlog.PrioritySystem, false),
			nil,
			float64(r.p.Now().UnixMilli()),
		})
	}
	t := playlog.Tick{Age: r.age, Events: r.pending}
	r.pending = nil
	r.age++
	return t
}

// Players returns the number of joined players.
func (r *Relay) Players() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}
