package network

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/automoto/tickstage/shared/messages"
	"github.com/automoto/tickstage/shared/playlog"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoinedGame
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoinedGame:
		return "joined"
	case StateError:
		return "error"
	}
	return "unknown"
}

// tickBuffer is how many relay ticks may queue before the router goroutine
// blocks. Ticks are never dropped.
const tickBuffer = 256

// Client manages a WebSocket connection to the relay.
// All shared fields are protected by mu (router callbacks run on necs goroutines).
type Client struct {
	mu sync.RWMutex

	state      ClientState
	lastError  error
	playerID   string
	serverName string
	tickRate   int
	conn       *websocket.Conn

	tickCh chan playlog.Tick
	// Events raised after connecting but before the join is accepted. They
	// go out in order on the host goroutine once joined.
	held []playlog.Event
}

func NewClient() *Client {
	return &Client{
		state:  StateDisconnected,
		tickCh: make(chan playlog.Tick, tickBuffer),
	}
}

// Connect dials the relay in a background goroutine and initiates the join handshake.
func (c *Client) Connect(address, version, playerID, playerName string) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		log.Println("[client] connected to relay")
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()

		if err := c.SendMessage(messages.JoinRequest{
			Version:    version,
			PlayerID:   playerID,
			PlayerName: playerName,
		}); err != nil {
			c.setError(fmt.Errorf("failed to send join request: %w", err))
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinAccepted) {
		log.Printf("[client] join accepted: playerID=%s server=%s tickRate=%d",
			msg.PlayerID, msg.ServerName, msg.TickRate)
		c.mu.Lock()
		c.playerID = msg.PlayerID
		c.serverName = msg.ServerName
		c.tickRate = msg.TickRate
		c.state = StateJoinedGame
		c.mu.Unlock()
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinRejected) {
		log.Printf("[client] join rejected: %s", msg.Reason)
		c.setError(fmt.Errorf("join rejected: %s", msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, msg messages.TickMessage) {
		t, err := playlog.DecodeTick(msg.Payload)
		if err != nil {
			c.setError(fmt.Errorf("bad tick from relay: %w", err))
			return
		}
		c.tickCh <- t
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] disconnected: %v", err)
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] error: %v", err)
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	c.held = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Joined reports whether the relay has accepted this client.
func (c *Client) Joined() bool {
	return c.State() == StateJoinedGame
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// PlayerID returns the id the relay assigned, empty before the join.
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *Client) TickRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickRate
}

// DrainTicks returns every relay tick received so far, in order. Non-blocking.
// It also sends events held back while the join was pending.
func (c *Client) DrainTicks() []playlog.Tick {
	c.flushHeld()
	return drainChan(c.tickCh)
}

// SendEvent raises ev for the session. Until the relay accepts the join, ev
// is held and sent after it; the relay drops events from players it has not
// admitted. Events raised while disconnected are dropped. Send failures are
// logged.
func (c *Client) SendEvent(ev playlog.Event) {
	c.mu.Lock()
	switch c.state {
	case StateConnecting, StateConnected:
		c.held = append(c.held, ev)
		c.mu.Unlock()
		return
	case StateJoinedGame:
	default:
		state := c.state
		c.mu.Unlock()
		log.Printf("[client] dropped %s: %s", ev.Code(), state)
		return
	}
	c.mu.Unlock()
	c.flushHeld()
	c.send(ev)
}

func (c *Client) flushHeld() {
	c.mu.Lock()
	if c.state != StateJoinedGame || len(c.held) == 0 {
		c.mu.Unlock()
		return
	}
	held := c.held
	c.held = nil
	c.mu.Unlock()
	for _, ev := range held {
		c.send(ev)
	}
}

func (c *Client) send(ev playlog.Event) {
	payload, err := playlog.EncodeEvent(ev)
	if err != nil {
		log.Printf("[client] %v", err)
		return
	}
	if err := c.SendMessage(messages.RaiseEvent{Payload: payload}); err != nil {
		log.Printf("[client] failed to raise %s: %v", ev.Code(), err)
	}
}

func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.held = nil
	c.mu.Unlock()
}

func drainChan[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}
