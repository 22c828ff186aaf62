package messages

// RaiseEvent carries one msgpack-encoded playlog event from a participant
// to the relay.
type RaiseEvent struct {
	Payload []byte
}

// TickMessage carries one msgpack-encoded playlog tick from the relay to
// every joined participant.
type TickMessage struct {
	Payload []byte
}
