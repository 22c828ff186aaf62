package engine

import (
	"fmt"

	"github.com/automoto/tickstage/shared/playlog"
)

// EntityFinder resolves entity ids in the namespace their sign selects.
type EntityFinder interface {
	FindEntity(id int) (*Entity, bool)
}

// EventConverter translates between wire tuples and rich events. It caches
// player records so later events carry the fullest record seen so far.
type EventConverter struct {
	finder   EntityFinder
	playerID string
	players  map[string]*Player
}

func NewEventConverter(finder EntityFinder, playerID string) *EventConverter {
	return &EventConverter{
		finder:   finder,
		playerID: playerID,
		players:  make(map[string]*Player),
	}
}

type decoder func(c *EventConverter, pev playlog.Event, b EventBase) (Event, error)

var decoders = map[playlog.Code]decoder{
	playlog.CodeJoin:       (*EventConverter).decodeJoin,
	playlog.CodeLeave:      (*EventConverter).decodeLeave,
	playlog.CodeTimestamp:  (*EventConverter).decodeTimestamp,
	playlog.CodePlayerInfo: (*EventConverter).decodePlayerInfo,
	playlog.CodeMessage:    (*EventConverter).decodeMessage,
	playlog.CodePointDown:  (*EventConverter).decodePointDown,
	playlog.CodePointMove:  (*EventConverter).decodePointMove,
	playlog.CodePointUp:    (*EventConverter).decodePointUp,
	playlog.CodeOperation:  (*EventConverter).decodeOperation,
}

// Player returns the cached record for id.
func (c *EventConverter) Player(id string) (*Player, bool) {
	p, ok := c.players[id]
	return p, ok
}

// ToGameEvent decodes a wire tuple. Unknown codes and missing required
// fields are errors.
func (c *EventConverter) ToGameEvent(pev playlog.Event) (Event, error) {
	code := pev.Code()
	dec, ok := decoders[code]
	if !ok {
		if len(pev) == 0 {
			return nil, fmt.Errorf("%w: empty event", ErrMalformedEvent)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnknownEventCode, pev[playlog.IndexCode])
	}
	b := EventBase{
		Priority:  pev.Priority(),
		Ignorable: pev.Flags()&playlog.FlagIgnorable != 0,
	}
	return dec(c, pev, b)
}

func (c *EventConverter) player(pev playlog.Event) *Player {
	id, ok := pev.PlayerID()
	if !ok {
		return nil
	}
	if p, ok := c.players[id]; ok {
		return p
	}
	return &Player{ID: id}
}

// remember replaces the cached record for p, carrying user data forward
// when the update has none.
func (c *EventConverter) remember(p *Player) {
	if prev, ok := c.players[p.ID]; ok && p.UserData == nil {
		p.UserData = prev.UserData
	}
	c.players[p.ID] = p
}

func malformed(code playlog.Code, field string) error {
	return fmt.Errorf("%w: %s without %s", ErrMalformedEvent, code, field)
}

func (c *EventConverter) decodeJoin(pev playlog.Event, b EventBase) (Event, error) {
	id, ok := pev.PlayerID()
	if !ok {
		return nil, malformed(playlog.CodeJoin, "player id")
	}
	name, _ := pev.String(playlog.JoinPlayerName)
	p := &Player{ID: id, Name: name}
	c.remember(p)
	b.Player = p
	var data any
	if pev.Has(playlog.JoinStorageData) {
		data = pev[playlog.JoinStorageData]
	}
	return &JoinEvent{EventBase: b, StorageData: data}, nil
}

func (c *EventConverter) decodeLeave(pev playlog.Event, b EventBase) (Event, error) {
	b.Player = c.player(pev)
	if b.Player != nil {
		delete(c.players, b.Player.ID)
	}
	return &LeaveEvent{EventBase: b}, nil
}

func (c *EventConverter) decodeTimestamp(pev playlog.Event, b EventBase) (Event, error) {
	ts, ok := pev.Float(playlog.TimestampValue)
	if !ok {
		return nil, malformed(playlog.CodeTimestamp, "timestamp")
	}
	b.Player = c.player(pev)
	return &TimestampEvent{EventBase: b, Timestamp: ts}, nil
}

func (c *EventConverter) decodePlayerInfo(pev playlog.Event, b EventBase) (Event, error) {
	id, ok := pev.PlayerID()
	if !ok {
		return nil, malformed(playlog.CodePlayerInfo, "player id")
	}
	name, _ := pev.String(playlog.PlayerInfoPlayerName)
	p := &Player{ID: id, Name: name}
	if pev.Has(playlog.PlayerInfoUserData) {
		p.UserData = pev[playlog.PlayerInfoUserData]
	}
	c.remember(p)
	b.Player = p
	return &PlayerInfoEvent{EventBase: b}, nil
}

func (c *EventConverter) decodeMessage(pev playlog.Event, b EventBase) (Event, error) {
	if len(pev) <= playlog.MessageData {
		return nil, malformed(playlog.CodeMessage, "data")
	}
	b.Player = c.player(pev)
	b.Local = pev.Bool(playlog.MessageLocal)
	return &MessageEvent{EventBase: b, Data: pev[playlog.MessageData]}, nil
}

func (c *EventConverter) decodePoint(pev playlog.Event, b EventBase, entityIdx, buttonIdx, localIdx int) (PointEventBase, error) {
	code := pev.Code()
	pointerID, ok := pev.Int(playlog.PointDownPointerID)
	if !ok {
		return PointEventBase{}, malformed(code, "pointer id")
	}
	x, okX := pev.Float(playlog.PointDownX)
	y, okY := pev.Float(playlog.PointDownY)
	if !okX || !okY {
		return PointEventBase{}, malformed(code, "point")
	}
	b.Player = c.player(pev)
	b.Local = pev.Bool(localIdx)
	pb := PointEventBase{EventBase: b, PointerID: pointerID, Point: Point{X: x, Y: y}}
	pb.Button, _ = pev.Int(buttonIdx)
	if id, ok := pev.Int(entityIdx); ok {
		// A target that no longer exists leaves the event untargeted.
		if e, found := c.finder.FindEntity(id); found {
			pb.Target = e
		}
	}
	return pb, nil
}

func (c *EventConverter) decodeDeltas(pev playlog.Event) (start, prev Point, err error) {
	vals := [4]float64{}
	for i := range vals {
		v, ok := pev.Float(playlog.PointMoveStartDeltaX + i)
		if !ok {
			return Point{}, Point{}, malformed(pev.Code(), "deltas")
		}
		vals[i] = v
	}
	return Point{X: vals[0], Y: vals[1]}, Point{X: vals[2], Y: vals[3]}, nil
}

func (c *EventConverter) decodePointDown(pev playlog.Event, b EventBase) (Event, error) {
	pb, err := c.decodePoint(pev, b, playlog.PointDownEntityID, playlog.PointDownButton, playlog.PointDownLocal)
	if err != nil {
		return nil, err
	}
	return &PointDownEvent{PointEventBase: pb}, nil
}

func (c *EventConverter) decodePointMove(pev playlog.Event, b EventBase) (Event, error) {
	pb, err := c.decodePoint(pev, b, playlog.PointMoveEntityID, playlog.PointMoveButton, playlog.PointMoveLocal)
	if err != nil {
		return nil, err
	}
	start, prev, err := c.decodeDeltas(pev)
	if err != nil {
		return nil, err
	}
	return &PointMoveEvent{PointEventBase: pb, StartDelta: start, PrevDelta: prev}, nil
}

func (c *EventConverter) decodePointUp(pev playlog.Event, b EventBase) (Event, error) {
	pb, err := c.decodePoint(pev, b, playlog.PointMoveEntityID, playlog.PointMoveButton, playlog.PointMoveLocal)
	if err != nil {
		return nil, err
	}
	start, prev, err := c.decodeDeltas(pev)
	if err != nil {
		return nil, err
	}
	return &PointUpEvent{PointEventBase: pb, StartDelta: start, PrevDelta: prev}, nil
}

func (c *EventConverter) decodeOperation(pev playlog.Event, b EventBase) (Event, error) {
	code, ok := pev.Int(playlog.OperationCode)
	if !ok {
		return nil, malformed(playlog.CodeOperation, "operation code")
	}
	b.Player = c.player(pev)
	b.Local = pev.Bool(playlog.OperationLocal)
	var data any
	if pev.Has(playlog.OperationData) {
		data = pev[playlog.OperationData]
	}
	return &OperationEvent{EventBase: b, Code: code, Data: data}, nil
}

// ToPlaylogEvent encodes e. With preservePlayer the event keeps its own
// player id; otherwise it is raised as this instance's player. Join and
// Leave are only ever originated by the transport and cannot be encoded.
func (c *EventConverter) ToPlaylogEvent(e Event, preservePlayer bool) (playlog.Event, error) {
	b := e.base()
	head := []any{nil, playlog.Flags(b.Priority, b.Ignorable), c.playerField(b, preservePlayer)}

	var ev playlog.Event
	var keep int
	switch v := e.(type) {
	case *JoinEvent, *LeaveEvent:
		return nil, fmt.Errorf("%w: %s", ErrUnencodableEvent, e.Type())
	case *TimestampEvent:
		head[0] = int(playlog.CodeTimestamp)
		ev, keep = append(head, v.Timestamp), playlog.TimestampValue+1
	case *PlayerInfoEvent:
		head[0] = int(playlog.CodePlayerInfo)
		var name, data any
		if v.Player != nil {
			name, data = v.Player.Name, v.Player.UserData
		}
		ev, keep = append(head, name, data), playlog.PlayerInfoPlayerName+1
	case *MessageEvent:
		head[0] = int(playlog.CodeMessage)
		ev, keep = append(head, v.Data, flagOrNil(v.Local)), playlog.MessageData+1
	case *PointDownEvent:
		head[0] = int(playlog.CodePointDown)
		ev = append(head, v.PointerID, v.Point.X, v.Point.Y,
			targetField(v.Target), buttonField(v.Button), flagOrNil(v.Local))
		keep = playlog.PointDownY + 1
	case *PointMoveEvent:
		head[0] = int(playlog.CodePointMove)
		ev = append(head, v.PointerID, v.Point.X, v.Point.Y,
			v.StartDelta.X, v.StartDelta.Y, v.PrevDelta.X, v.PrevDelta.Y,
			targetField(v.Target), buttonField(v.Button), flagOrNil(v.Local))
		keep = playlog.PointMovePrevDeltaY + 1
	case *PointUpEvent:
		head[0] = int(playlog.CodePointUp)
		ev = append(head, v.PointerID, v.Point.X, v.Point.Y,
			v.StartDelta.X, v.StartDelta.Y, v.PrevDelta.X, v.PrevDelta.Y,
			targetField(v.Target), buttonField(v.Button), flagOrNil(v.Local))
		keep = playlog.PointMovePrevDeltaY + 1
	case *OperationEvent:
		head[0] = int(playlog.CodeOperation)
		ev, keep = append(head, v.Code, v.Data, flagOrNil(v.Local)), playlog.OperationData+1
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnencodableEvent, e)
	}
	return ev.Trim(keep), nil
}

// Operation is an operation plugin's request to raise an event.
type Operation struct {
	Priority  int
	Ignorable bool
	Local     bool
	Data      any
}

// MakePlaylogOperationEvent encodes an operation raised by the plugin
// registered under code. It always carries this instance's player id.
func (c *EventConverter) MakePlaylogOperationEvent(code int, op Operation) playlog.Event {
	ev := playlog.Event{
		int(playlog.CodeOperation),
		playlog.Flags(op.Priority, op.Ignorable),
		c.selfField(),
		code,
		op.Data,
		flagOrNil(op.Local),
	}
	return ev.Trim(playlog.OperationData + 1)
}

func (c *EventConverter) playerField(b *EventBase, preservePlayer bool) any {
	if !preservePlayer {
		return c.selfField()
	}
	if b.Player == nil {
		return nil
	}
	return b.Player.ID
}

func (c *EventConverter) selfField() any {
	if c.playerID == "" {
		return nil
	}
	return c.playerID
}

func targetField(e *Entity) any {
	if e == nil {
		return nil
	}
	return e.ID()
}

func buttonField(b int) any {
	if b == 0 {
		return nil
	}
	return b
}

func flagOrNil(b bool) any {
	if !b {
		return nil
	}
	return true
}
