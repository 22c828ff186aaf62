package host

import (
	"errors"
	"testing"

	"github.com/automoto/tickstage/engine"
	"github.com/automoto/tickstage/shared/playlog"
)

type feed struct {
	joined bool
	ticks  []playlog.Tick
}

func (f *feed) Joined() bool { return f.joined }

func (f *feed) DrainTicks() []playlog.Tick {
	ts := f.ticks
	f.ticks = nil
	return ts
}

func startGame(t *testing.T) (*engine.Game, *[]string) {
	t.Helper()
	var said []string
	g := engine.NewGame(engine.GameParams{Width: 100, Height: 100, SelfID: "me"})
	g.Start()
	g.Scene().OnMessage.Add(func(ev *engine.MessageEvent) {
		said = append(said, ev.Data.(string))
	})
	return g, &said
}

func message(player, text string) playlog.Event {
	return playlog.Event{int(playlog.CodeMessage), 0, player, text}
}

func localMessage(text string) playlog.Event {
	return playlog.Event{int(playlog.CodeMessage), 0, "me", text, true}
}

func TestOfflineStepAdvances(t *testing.T) {
	g, said := startGame(t)
	h := New(g, nil)
	g.RaisePlaylogEvent(message("me", "hi"))

	if err := h.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if g.Age() != 1 || g.IsLastTickLocal() {
		t.Errorf("Expected one advancing tick, got age %d (local=%v)", g.Age(), g.IsLastTickLocal())
	}
	if len(*said) != 1 || (*said)[0] != "hi" {
		t.Errorf("Expected the queued message, got %v", *said)
	}
}

func TestOnlineStep(t *testing.T) {
	tests := []struct {
		name        string
		joined      bool
		ticks       []playlog.Tick
		wantAge     int
		wantLocal   bool
		wantOmitted int
		wantSaid    []string
	}{
		{
			name:      "waiting for the join",
			joined:    false,
			wantAge:   0,
			wantLocal: true,
			wantSaid:  []string{"local"},
		},
		{
			name:      "no relay ticks yet",
			joined:    true,
			wantAge:   0,
			wantLocal: true,
			wantSaid:  []string{"local"},
		},
		{
			name:     "one relay tick",
			joined:   true,
			ticks:    []playlog.Tick{{Age: 0, Events: []playlog.Event{message("p2", "a")}}},
			wantAge:  1,
			wantSaid: []string{"local", "a"},
		},
		{
			name:   "catching up",
			joined: true,
			ticks: []playlog.Tick{
				{Age: 0, Events: []playlog.Event{message("p2", "a")}},
				{Age: 1},
				{Age: 2, Events: []playlog.Event{message("p2", "b")}},
			},
			wantAge:     3,
			wantOmitted: 0,
			wantSaid:    []string{"local", "a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, said := startGame(t)
			h := New(g, &feed{joined: tt.joined, ticks: tt.ticks})
			g.RaisePlaylogEvent(localMessage("local"))

			if err := h.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
			if g.Age() != tt.wantAge {
				t.Errorf("Expected age %d, got %d", tt.wantAge, g.Age())
			}
			if g.IsLastTickLocal() != tt.wantLocal {
				t.Errorf("Expected last tick local=%v", tt.wantLocal)
			}
			if g.LastOmittedLocalTickCount() != tt.wantOmitted {
				t.Errorf("Expected %d omitted, got %d", tt.wantOmitted, g.LastOmittedLocalTickCount())
			}
			if len(*said) != len(tt.wantSaid) {
				t.Fatalf("Expected %v, got %v", tt.wantSaid, *said)
			}
			for i := range tt.wantSaid {
				if (*said)[i] != tt.wantSaid[i] {
					t.Errorf("Expected %v, got %v", tt.wantSaid, *said)
					break
				}
			}
		})
	}
}

func TestCatchUpReportsOmittedTicks(t *testing.T) {
	g, _ := startGame(t)
	var omitted []int
	g.Scene().OnUpdate.Add(func(*engine.Scene) {
		// Post-tick tasks run once the tick has recorded its counts.
		g.PushPostTickTask(func() {
			omitted = append(omitted, g.LastOmittedLocalTickCount())
		})
	})
	h := New(g, &feed{joined: true, ticks: []playlog.Tick{{Age: 0}, {Age: 1}, {Age: 2}}})
	if err := h.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	want := []int{2, 0, 0}
	if len(omitted) != len(want) {
		t.Fatalf("Expected %v, got %v", want, omitted)
	}
	for i := range want {
		if omitted[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, omitted)
			break
		}
	}
}

func TestBadTickTerminates(t *testing.T) {
	g, _ := startGame(t)
	h := New(g, &feed{joined: true, ticks: []playlog.Tick{{Age: 0, Events: []playlog.Event{{99}}}}})
	err := h.Step()
	if !errors.Is(err, engine.ErrUnknownEventCode) {
		t.Errorf("Expected ErrUnknownEventCode, got %v", err)
	}
	if !g.Terminated() {
		t.Error("Expected the game to be terminated")
	}
}
