package core

import (
	"context"
	"log"
	"sync"

	"github.com/automoto/tickstage/shared/messages"
	"github.com/automoto/tickstage/shared/playlog"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

type ServerParams struct {
	RelayParams
	TickRate int
	Name     string
}

// Server relays the session over necs websockets. Each tick of the loop is
// broadcast to every joined client.
type Server struct {
	relay     *Relay
	loop      *GameLoop
	transport *transports.WsServerTransport
	name      string
	tickRate  int

	// Joined clients and their player ids, keyed by connection id
	clients map[string]*router.NetworkClient
	players map[string]string
	mu      sync.RWMutex
}

// NewServer creates a new relay server
func NewServer(p ServerParams) *Server {
	s := &Server{
		relay:    NewRelay(p.RelayParams),
		name:     p.Name,
		tickRate: p.TickRate,
		clients:  make(map[string]*router.NetworkClient),
		players:  make(map[string]string),
	}
	s.loop = NewGameLoop(s, p.TickRate)

	// Register router callbacks
	s.setupRouterCallbacks()

	return s
}

// Start begins the server on the given port
func (s *Server) Start(port uint) error {
	// Start tick loop
	go s.loop.Run()

	// Create and start WebSocket transport
	s.transport = transports.NewWsServerTransport(port, "", nil)
	return s.transport.Start()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() {
	s.loop.Stop()
}

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		log.Printf("Client connected: %s", client.Id())
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		s.onDisconnect(client, err)
	})

	router.On(func(client *router.NetworkClient, msg messages.JoinRequest) {
		s.onJoinRequest(client, msg)
	})

	router.On(func(client *router.NetworkClient, msg messages.RaiseEvent) {
		s.onRaiseEvent(client, msg)
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		log.Printf("Client error: %v", err)
	})
}

func (s *Server) onJoinRequest(client *router.NetworkClient, msg messages.JoinRequest) {
	conn := client.Id()
	id, err := s.join(conn, msg)
	if err != nil {
		log.Printf("Rejected join from %s: %v", conn, err)
		if err := client.SendMessage(messages.JoinRejected{Reason: err.Error()}); err != nil {
			log.Printf("Failed to send rejection to %s: %v", conn, err)
		}
		return
	}

	err = client.SendMessage(messages.JoinAccepted{
		PlayerID:   id,
		ServerName: s.name,
		TickRate:   s.tickRate,
	})
	if err != nil {
		log.Printf("Failed to accept %s: %v", conn, err)
		s.part(conn)
		return
	}

	s.mu.Lock()
	if _, ok := s.players[conn]; ok {
		s.clients[conn] = client
	}
	s.mu.Unlock()
	log.Printf("Player %q joined as %s", msg.PlayerName, id)
}

// join admits conn into the relay. The connection is recorded before the
// relay call so a disconnect during it still reaches part; if it did, the
// player is removed again once the relay has admitted it.
func (s *Server) join(conn string, msg messages.JoinRequest) (string, error) {
	id := msg.PlayerID
	if id == "" {
		id = conn
	}
	s.mu.Lock()
	if _, ok := s.players[conn]; ok {
		s.mu.Unlock()
		return "", ErrAlreadyJoined
	}
	s.players[conn] = id
	s.mu.Unlock()

	if err := s.relay.Join(context.Background(), id, msg.PlayerName, msg.Version); err != nil {
		s.mu.Lock()
		if s.players[conn] == id {
			delete(s.players, conn)
		}
		s.mu.Unlock()
		return "", err
	}

	s.mu.RLock()
	_, still := s.players[conn]
	s.mu.RUnlock()
	if !still {
		s.relay.Leave(id)
		return "", ErrDisconnected
	}
	return id, nil
}

// part forgets conn and removes its player from the relay.
func (s *Server) part(conn string) {
	s.mu.Lock()
	id, joined := s.players[conn]
	delete(s.clients, conn)
	delete(s.players, conn)
	s.mu.Unlock()
	if joined {
		s.relay.Leave(id)
	}
}

// playerOf returns the player id of a joined connection.
func (s *Server) playerOf(client *router.NetworkClient) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.players[client.Id()]
	return id, ok
}

func (s *Server) onRaiseEvent(client *router.NetworkClient, msg messages.RaiseEvent) {
	id, ok := s.playerOf(client)
	if !ok {
		log.Printf("Dropped event from %s: not joined", client.Id())
		return
	}
	ev, err := playlog.DecodeEvent(msg.Payload)
	if err != nil {
		log.Printf("Bad event from %s: %v", id, err)
		return
	}
	if err := s.relay.Raise(id, ev); err != nil {
		log.Printf("Dropped event from %s: %v", id, err)
	}
}

func (s *Server) onDisconnect(client *router.NetworkClient, err error) {
	conn := client.Id()
	if err != nil {
		log.Printf("Client %s disconnected with error: %v", conn, err)
	} else {
		log.Printf("Client %s disconnected", conn)
	}

	s.part(conn)
}

// broadcastTick sends one tick to every joined client.
func (s *Server) broadcastTick(t playlog.Tick) {
	payload, err := playlog.EncodeTick(t)
	if err != nil {
		log.Printf("Failed to encode tick %d: %v", t.Age, err)
		return
	}
	msg := messages.TickMessage{Payload: payload}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn, client := range s.clients {
		if err := client.SendMessage(msg); err != nil {
			log.Printf("Failed to send tick %d to %s: %v", t.Age, conn, err)
		}
	}
}

// PlayerCount returns the number of joined players
func (s *Server) PlayerCount() int {
	return s.relay.Players()
}
