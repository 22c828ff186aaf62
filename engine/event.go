package engine

import (
	"github.com/automoto/tickstage/input"
	"github.com/yohamta/donburi/features/events"
)

// Message and operation events are also published into the active scene's
// world. Subscribers run right before the scene's update.
var (
	MessageEvents   = events.NewEventType[*MessageEvent]()
	OperationEvents = events.NewEventType[*OperationEvent]()
)

// EventType is the closed set of rich event kinds.
type EventType int

const (
	EventTypeJoin EventType = iota
	EventTypeLeave
	EventTypeTimestamp
	EventTypePlayerInfo
	EventTypeMessage
	EventTypePointDown
	EventTypePointMove
	EventTypePointUp
	EventTypeOperation
)

func (t EventType) String() string {
	switch t {
	case EventTypeJoin:
		return "join"
	case EventTypeLeave:
		return "leave"
	case EventTypeTimestamp:
		return "timestamp"
	case EventTypePlayerInfo:
		return "playerinfo"
	case EventTypeMessage:
		return "message"
	case EventTypePointDown:
		return "pointdown"
	case EventTypePointMove:
		return "pointmove"
	case EventTypePointUp:
		return "pointup"
	case EventTypeOperation:
		return "operation"
	}
	return "unknown"
}

type Point = input.Point

// Player is the cached view of a participant.
type Player struct {
	ID       string
	Name     string
	UserData any
}

// EventBase holds the envelope shared by every event.
type EventBase struct {
	Priority  int
	Ignorable bool
	Player    *Player
	Local     bool
}

func (b *EventBase) base() *EventBase { return b }

// Event is implemented only by the event types of this package.
type Event interface {
	Type() EventType
	base() *EventBase
}

type JoinEvent struct {
	EventBase
	StorageData any
}

func (*JoinEvent) Type() EventType { return EventTypeJoin }

type LeaveEvent struct {
	EventBase
}

func (*LeaveEvent) Type() EventType { return EventTypeLeave }

type TimestampEvent struct {
	EventBase
	Timestamp float64
}

func (*TimestampEvent) Type() EventType { return EventTypeTimestamp }

// PlayerInfoEvent carries the updated record in EventBase.Player.
type PlayerInfoEvent struct {
	EventBase
}

func (*PlayerInfoEvent) Type() EventType { return EventTypePlayerInfo }

type MessageEvent struct {
	EventBase
	Data any
}

func (*MessageEvent) Type() EventType { return EventTypeMessage }

// PointEventBase is shared by the three pointer events. Point is relative to
// Target when there is one.
type PointEventBase struct {
	EventBase
	PointerID int
	Point     Point
	Target    *Entity
	Button    int
}

type PointDownEvent struct {
	PointEventBase
}

func (*PointDownEvent) Type() EventType { return EventTypePointDown }

// PointMoveEvent reports movement of a held pointer. Point is where the
// pointer went down.
type PointMoveEvent struct {
	PointEventBase
	StartDelta Point
	PrevDelta  Point
}

func (*PointMoveEvent) Type() EventType { return EventTypePointMove }

type PointUpEvent struct {
	PointEventBase
	StartDelta Point
	PrevDelta  Point
}

func (*PointUpEvent) Type() EventType { return EventTypePointUp }

type OperationEvent struct {
	EventBase
	Code int
	Data any
}

func (*OperationEvent) Type() EventType { return EventTypeOperation }
