package core

import (
	"context"
	"errors"
	"testing"

	"github.com/automoto/tickstage/shared/messages"
	"github.com/automoto/tickstage/shared/playlog"
	"github.com/automoto/tickstage/storage"
	"github.com/leap-fish/necs/router"
)

// gateStore holds Load until release is closed.
type gateStore struct {
	entered chan struct{}
	release chan struct{}
}

func newGateStore() *gateStore {
	return &gateStore{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gateStore) Load(ctx context.Context, keys []storage.Key) ([]storage.Value, error) {
	close(g.entered)
	<-g.release
	return nil, nil
}

func (g *gateStore) Save(ctx context.Context, values []storage.Value) error { return nil }
func (g *gateStore) Close() error                                          { return nil }

func newTestServer(p RelayParams) *Server {
	return &Server{
		relay:   NewRelay(p),
		clients: make(map[string]*router.NetworkClient),
		players: make(map[string]string),
	}
}

func codes(tick playlog.Tick) []playlog.Code {
	var out []playlog.Code
	for _, ev := range tick.Events {
		out = append(out, ev.Code())
	}
	return out
}

func TestRelayLeaveWhileJoining(t *testing.T) {
	store := newGateStore()
	r := NewRelay(RelayParams{Store: store})
	done := make(chan error)
	go func() { done <- r.Join(context.Background(), "p1", "pat", "") }()

	<-store.entered
	r.Leave("p1")
	if err := r.Join(context.Background(), "p1", "pat", ""); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("Expected ErrAlreadyJoined while joining, got %v", err)
	}
	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("Join: %v", err)
	}

	got := codes(r.Step())
	if len(got) != 1 || got[0] != playlog.CodeJoin {
		t.Errorf("Expected only [join], got %v", got)
	}
	if r.Players() != 1 {
		t.Errorf("Expected 1 player, got %d", r.Players())
	}
}

func TestServerDisconnectWhileJoining(t *testing.T) {
	store := newGateStore()
	s := newTestServer(RelayParams{Store: store})
	done := make(chan error)
	go func() {
		_, err := s.join("conn-1", messages.JoinRequest{PlayerID: "p1", PlayerName: "pat"})
		done <- err
	}()

	<-store.entered
	s.part("conn-1")
	close(store.release)
	if err := <-done; !errors.Is(err, ErrDisconnected) {
		t.Errorf("Expected ErrDisconnected, got %v", err)
	}

	got := codes(s.relay.Step())
	want := []playlog.Code{playlog.CodeJoin, playlog.CodeLeave}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if s.relay.Players() != 0 {
		t.Errorf("Expected no players, got %d", s.relay.Players())
	}
	if _, err := s.join("conn-2", messages.JoinRequest{PlayerID: "p1", PlayerName: "pat"}); err != nil {
		t.Errorf("Expected a rejoin to succeed, got %v", err)
	}
}

func TestServerJoinBookkeeping(t *testing.T) {
	s := newTestServer(RelayParams{Version: "1"})
	tests := []struct {
		name    string
		conn    string
		req     messages.JoinRequest
		wantID  string
		wantErr error
	}{
		{"connection id fallback", "c1", messages.JoinRequest{Version: "1"}, "c1", nil},
		{"same connection twice", "c1", messages.JoinRequest{Version: "1", PlayerID: "x"}, "", ErrAlreadyJoined},
		{"bad version", "c2", messages.JoinRequest{Version: "0"}, "", ErrVersionMismatch},
		{"chosen id", "c2", messages.JoinRequest{Version: "1", PlayerID: "p2"}, "p2", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := s.join(tt.conn, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if id != tt.wantID {
				t.Errorf("Expected id %q, got %q", tt.wantID, id)
			}
		})
	}
	if s.PlayerCount() != 2 {
		t.Errorf("Expected 2 players, got %d", s.PlayerCount())
	}
	s.part("c1")
	if s.PlayerCount() != 1 {
		t.Errorf("Expected 1 player after part, got %d", s.PlayerCount())
	}
}
