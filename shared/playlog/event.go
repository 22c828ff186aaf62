// Package playlog defines the compact wire representation exchanged between
// participants and the relay. It must have zero dependencies on ebiten or the
// engine so the relay binary stays headless.
//
// An Event is a position-indexed tuple. Position is the schema: index 0 is
// always the event code, index 1 the flags (priority bits), index 2 the player
// id. The remaining positions depend on the code. Optional trailing fields are
// detected by length, never by sentinel values.
package playlog

// Code identifies the kind of a wire event.
type Code int

const (
	CodeJoin       Code = 0
	CodeLeave      Code = 1
	CodeTimestamp  Code = 2
	CodePlayerInfo Code = 3
	CodeMessage    Code = 32
	CodePointDown  Code = 33
	CodePointMove  Code = 34
	CodePointUp    Code = 35
	CodeOperation  Code = 64
)

func (c Code) String() string {
	switch c {
	case CodeJoin:
		return "join"
	case CodeLeave:
		return "leave"
	case CodeTimestamp:
		return "timestamp"
	case CodePlayerInfo:
		return "playerinfo"
	case CodeMessage:
		return "message"
	case CodePointDown:
		return "pointdown"
	case CodePointMove:
		return "pointmove"
	case CodePointUp:
		return "pointup"
	case CodeOperation:
		return "operation"
	}
	return "unknown"
}

// Common field positions.
const (
	IndexCode     = 0
	IndexFlags    = 1
	IndexPlayerID = 2
)

// Join: [code, flags, playerID, playerName, storageData?]
const (
	JoinPlayerName  = 3
	JoinStorageData = 4
)

// Timestamp: [code, flags, playerID, timestamp]
const (
	TimestampValue = 3
)

// PlayerInfo: [code, flags, playerID, playerName, userData?]
const (
	PlayerInfoPlayerName = 3
	PlayerInfoUserData   = 4
)

// Message: [code, flags, playerID, data, local?]
const (
	MessageData  = 3
	MessageLocal = 4
)

// PointDown: [code, flags, playerID, pointerID, x, y, entityID?, button?, local?]
const (
	PointDownPointerID = 3
	PointDownX         = 4
	PointDownY         = 5
	PointDownEntityID  = 6
	PointDownButton    = 7
	PointDownLocal     = 8
)

// PointMove / PointUp share one layout:
// [code, flags, playerID, pointerID, x, y, startDX, startDY, prevDX, prevDY, entityID?, button?, local?]
const (
	PointMovePointerID   = 3
	PointMoveX           = 4
	PointMoveY           = 5
	PointMoveStartDeltaX = 6
	PointMoveStartDeltaY = 7
	PointMovePrevDeltaX  = 8
	PointMovePrevDeltaY  = 9
	PointMoveEntityID    = 10
	PointMoveButton      = 11
	PointMoveLocal       = 12
)

// Operation: [code, flags, playerID, operationCode, data, local?]
const (
	OperationCode  = 3
	OperationData  = 4
	OperationLocal = 5
)

// Flags layout. The low two bits carry the priority.
const (
	PriorityMask  = 0x03
	FlagIgnorable = 0x08
)

const (
	PriorityLowest  = 0
	PriorityJoined  = 1
	PrioritySystem  = 2
	PriorityHighest = 3
)

// Flags packs a priority and the ignorable bit into a flags value.
func Flags(priority int, ignorable bool) int {
	f := priority & PriorityMask
	if ignorable {
		f |= FlagIgnorable
	}
	return f
}

// Event is one wire event tuple.
type Event []any

// Code returns the event code or -1 if position 0 is not an integer.
func (e Event) Code() Code {
	if len(e) == 0 {
		return -1
	}
	n, ok := Int(e[IndexCode])
	if !ok {
		return -1
	}
	return Code(n)
}

// Flags returns the flags value, 0 when absent.
func (e Event) Flags() int {
	if len(e) <= IndexFlags {
		return 0
	}
	n, _ := Int(e[IndexFlags])
	return n
}

// Priority returns the priority bits of the flags value.
func (e Event) Priority() int {
	return e.Flags() & PriorityMask
}

// PlayerID returns the player id at position 2; ok is false when the slot is
// missing or null.
func (e Event) PlayerID() (string, bool) {
	return e.String(IndexPlayerID)
}

// Has reports whether position i is present and non-null.
func (e Event) Has(i int) bool {
	return i < len(e) && e[i] != nil
}

// Int reads position i as an integer.
func (e Event) Int(i int) (int, bool) {
	if !e.Has(i) {
		return 0, false
	}
	return Int(e[i])
}

// Float reads position i as a float.
func (e Event) Float(i int) (float64, bool) {
	if !e.Has(i) {
		return 0, false
	}
	return Float(e[i])
}

// String reads position i as a string.
func (e Event) String(i int) (string, bool) {
	if !e.Has(i) {
		return "", false
	}
	return String(e[i])
}

// Bool reads position i as a bool; absent means false.
func (e Event) Bool(i int) bool {
	if !e.Has(i) {
		return false
	}
	b, _ := e[i].(bool)
	return b
}

// Local reports the kind-specific local flag. Join, Leave, Timestamp and
// PlayerInfo are never local.
func (e Event) Local() bool {
	switch e.Code() {
	case CodeMessage:
		return e.Bool(MessageLocal)
	case CodePointDown:
		return e.Bool(PointDownLocal)
	case CodePointMove, CodePointUp:
		return e.Bool(PointMoveLocal)
	case CodeOperation:
		return e.Bool(OperationLocal)
	}
	return false
}

// Trim drops trailing nil positions so optional fields stay length-dependent.
// Positions below min are always kept.
func (e Event) Trim(min int) Event {
	n := len(e)
	for n > min && e[n-1] == nil {
		n--
	}
	return e[:n]
}

// Tick is one simulation step as broadcast by the relay.
type Tick struct {
	Age    int
	Events []Event
}

// Int converts any decoded numeric value to int.
func Int(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		if float32(int(n)) == n {
			return int(n), true
		}
	case float64:
		if float64(int(n)) == n {
			return int(n), true
		}
	}
	return 0, false
}

// Float converts any decoded numeric value to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := Int(v); ok {
		return float64(i), true
	}
	return 0, false
}

// String converts a decoded string (or raw bytes) to string.
func String(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}
