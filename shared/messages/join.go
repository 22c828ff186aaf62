// Package messages holds the structs exchanged over the necs router
// between participants and the relay.
package messages

// JoinRequest is sent by a client after connecting to request joining the
// session. PlayerID is chosen by the client and must be unique in the session.
type JoinRequest struct {
	Version    string
	PlayerID   string
	PlayerName string
}

// JoinAccepted is sent by the relay when a client's join request is accepted.
type JoinAccepted struct {
	PlayerID   string
	ServerName string
	TickRate   int
}

// JoinRejected is sent by the relay when a client's join request is rejected.
type JoinRejected struct {
	Reason string
}
