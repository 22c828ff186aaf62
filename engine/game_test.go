package engine

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/automoto/tickstage/shared/playlog"
)

func message(data any) playlog.Event {
	return playlog.Event{int(playlog.CodeMessage), 0, "p1", data}
}

func TestStartRunsMain(t *testing.T) {
	ran := false
	g := startGame(GameParams{}, func(g *Game) { ran = true })

	if !ran {
		t.Fatal("Expected main to run during Start")
	}
	if len(g.Scenes()) != 1 {
		t.Fatalf("Expected only the initial scene, got %d", len(g.Scenes()))
	}
	if s := g.Scene(); s.State() != SceneStateActive || s.LoadingState() != LoadingStateLoadedFired {
		t.Errorf("Expected active loaded initial scene, got %v/%v", s.State(), s.LoadingState())
	}
}

func TestTickOrdering(t *testing.T) {
	var log []string
	var scene *Scene
	g := startGame(GameParams{}, func(g *Game) {
		scene = NewScene(g, SceneParams{Name: "main"})
		scene.OnMessage.Add(func(e *MessageEvent) {
			log = append(log, fmt.Sprint("msg:", e.Data))
			g.PushPostTickTask(func() { log = append(log, fmt.Sprint("task:", e.Data)) })
		})
		scene.OnUpdate.Add(func(*Scene) { log = append(log, "update") })
		g.PushScene(scene)
	})
	if g.Scene() != scene {
		t.Fatal("Expected the pushed scene to be active after Start")
	}

	tick(g, message("a"), message("b"), message("c"))

	want := []string{"msg:a", "msg:b", "msg:c", "update", "task:a", "task:b", "task:c"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("Expected %v, got %v", want, log)
	}
}

func TestTickAge(t *testing.T) {
	g := startGame(GameParams{}, nil)

	tick(g)
	tick(g)
	if _, err := g.Tick(false, 3, nil); err != nil {
		t.Fatal(err)
	}
	if g.Age() != 2 {
		t.Errorf("Expected age 2, got %d", g.Age())
	}
	if !g.IsLastTickLocal() || g.LastOmittedLocalTickCount() != 3 {
		t.Errorf("Expected local tick with 3 omitted, got %v/%d", g.IsLastTickLocal(), g.LastOmittedLocalTickCount())
	}
}

func TestTickUpdateFiresOnceWithoutEvents(t *testing.T) {
	updates := 0
	g := startGame(GameParams{}, func(g *Game) {
		g.Scene().OnUpdate.Add(func(*Scene) { updates++ })
	})
	for range 3 {
		tick(g)
	}
	if updates != 3 {
		t.Errorf("Expected 3 updates, got %d", updates)
	}
}

func TestTerminateLatches(t *testing.T) {
	updates := 0
	terminated := 0
	g := startGame(GameParams{}, func(g *Game) {
		g.Scene().OnUpdate.Add(func(*Scene) { updates++ })
	})
	g.OnTerminate.Add(func(*Game) { terminated++ })

	g.Terminate()
	g.Terminate()
	changed, err := g.Tick(true, 0, []playlog.Event{{"garbage"}})
	if changed || err != nil {
		t.Errorf("Expected no-op tick, got changed=%v err=%v", changed, err)
	}
	if updates != 0 || g.Age() != 0 {
		t.Errorf("Expected nothing to run after termination, got updates=%d age=%d", updates, g.Age())
	}
	if terminated != 1 {
		t.Errorf("Expected OnTerminate once, got %d", terminated)
	}
}

func TestTickRejectsUnknownCode(t *testing.T) {
	g := startGame(GameParams{}, nil)
	_, err := g.Tick(true, 0, []playlog.Event{{99, 0, "p1"}})
	if !errors.Is(err, ErrUnknownEventCode) {
		t.Errorf("Expected ErrUnknownEventCode, got %v", err)
	}
}

func TestTickRejectsMalformedEvent(t *testing.T) {
	g := startGame(GameParams{}, nil)
	_, err := g.Tick(true, 0, []playlog.Event{{int(playlog.CodeTimestamp), 0, "p1"}})
	if !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("Expected ErrMalformedEvent, got %v", err)
	}
}

func TestGameLevelEvents(t *testing.T) {
	g := startGame(GameParams{}, nil)
	var joined, left []string
	var ts float64
	g.OnJoin.Add(func(e *JoinEvent) { joined = append(joined, e.Player.Name) })
	g.OnLeave.Add(func(e *LeaveEvent) { left = append(left, e.Player.Name) })
	g.OnTimestamp.Add(func(e *TimestampEvent) { ts = e.Timestamp })

	tick(g,
		playlog.Event{int(playlog.CodeJoin), playlog.PriorityJoined, "p1", "alice"},
		playlog.Event{int(playlog.CodeTimestamp), 0, "p1", 1234.5},
		playlog.Event{int(playlog.CodeLeave), playlog.PriorityJoined, "p1"},
	)
	if !reflect.DeepEqual(joined, []string{"alice"}) || !reflect.DeepEqual(left, []string{"alice"}) {
		t.Errorf("Expected alice to join and leave, got %v / %v", joined, left)
	}
	if ts != 1234.5 {
		t.Errorf("Expected timestamp 1234.5, got %v", ts)
	}
}

func TestStackInvariant(t *testing.T) {
	var a, b *Scene
	g := startGame(GameParams{}, func(g *Game) {
		a = NewScene(g, SceneParams{Name: "a"})
		b = NewScene(g, SceneParams{Name: "b"})
		g.PushScene(a)
		g.PushScene(b)
	})
	if len(g.Scenes()) != 3 || g.Scene() != b {
		t.Fatalf("Expected [initial a b], got %d scenes", len(g.Scenes()))
	}
	if a.State() != SceneStateDeactive {
		t.Errorf("Expected buried scene to be deactive, got %v", a.State())
	}

	g.PopScene(false, 5)
	tick(g)

	if len(g.Scenes()) != 1 {
		t.Fatalf("Expected only the initial scene, got %d", len(g.Scenes()))
	}
	if g.Scene().Name() != "initial" || g.Scene().State() != SceneStateActive {
		t.Errorf("Expected active initial scene, got %s/%v", g.Scene().Name(), g.Scene().State())
	}
	if activeCount(g) != 1 {
		t.Errorf("Expected exactly one active scene, got %d", activeCount(g))
	}
	if a.State() != SceneStateDestroyed || b.State() != SceneStateDestroyed {
		t.Errorf("Expected popped scenes destroyed, got %v/%v", a.State(), b.State())
	}
}

func TestStackMutationIsDeferred(t *testing.T) {
	var a *Scene
	g := startGame(GameParams{}, nil)
	a = NewScene(g, SceneParams{Name: "a"})

	var seen *Scene
	g.Scene().OnUpdate.Add(func(*Scene) {
		g.PushScene(a)
		seen = g.Scene()
	})
	changed := tick(g)

	if seen.Name() != "initial" {
		t.Errorf("Expected push to wait for the end of the tick, saw %s", seen.Name())
	}
	if !changed || g.Scene() != a {
		t.Errorf("Expected the tick to report the scene change, changed=%v", changed)
	}
	if tick(g) {
		t.Error("Expected a quiet tick to report no change")
	}
}

func TestReplaceScene(t *testing.T) {
	var a, b *Scene
	g := startGame(GameParams{}, func(g *Game) {
		a = NewScene(g, SceneParams{Name: "a"})
		g.ReplaceScene(a, false)
	})
	if len(g.Scenes()) != 2 || g.Scene() != a {
		t.Fatalf("Expected replace over the initial scene to push, got %d scenes", len(g.Scenes()))
	}

	b = NewScene(g, SceneParams{Name: "b"})
	g.ReplaceScene(b, true)
	tick(g)

	if len(g.Scenes()) != 2 || g.Scene() != b {
		t.Fatalf("Expected [initial b], got %d scenes", len(g.Scenes()))
	}
	if a.State() != SceneStateDeactive {
		t.Errorf("Expected preserved scene to be deactive, got %v", a.State())
	}
}

func TestPopStateTransitions(t *testing.T) {
	var a *Scene
	var states []SceneState
	g := startGame(GameParams{}, func(g *Game) {
		a = NewScene(g, SceneParams{Name: "a"})
		a.OnStateChange.Add(func(s SceneState) { states = append(states, s) })
		g.PushScene(a)
	})
	g.PopScene(false, 1)
	tick(g)

	want := []SceneState{SceneStateActive, SceneStateBeforeDestroyed, SceneStateDestroyed}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("Expected %v, got %v", want, states)
	}
}

func TestReentrantPostTickTasks(t *testing.T) {
	var order []int
	g := startGame(GameParams{}, nil)
	a := NewScene(g, SceneParams{Name: "a"})

	g.PushPostTickTask(func() {
		order = append(order, 1)
		g.PushPostTickTask(func() {
			order = append(order, 3)
			g.PushScene(a)
			g.PushPostTickTask(func() { order = append(order, 4) })
		})
	})
	g.PushPostTickTask(func() { order = append(order, 2) })
	tick(g)

	if !reflect.DeepEqual(order, []int{1, 2, 3, 4}) {
		t.Errorf("Expected [1 2 3 4], got %v", order)
	}
	if g.Scene() != a {
		t.Error("Expected the nested push to run in the same drain")
	}
}

func TestRaiseEvent(t *testing.T) {
	sink := &sinkRecorder{}
	g := startGame(GameParams{SelfID: "me", Sink: sink}, nil)

	if err := g.RaiseEvent(&MessageEvent{Data: "hi"}); err != nil {
		t.Fatal(err)
	}
	if err := g.RaiseEvent(&MessageEvent{EventBase: EventBase{Local: true}, Data: "local"}); err != nil {
		t.Fatal(err)
	}
	if err := g.RaiseEvent(&JoinEvent{}); !errors.Is(err, ErrUnencodableEvent) {
		t.Errorf("Expected ErrUnencodableEvent, got %v", err)
	}

	if len(sink.sent) != 1 {
		t.Fatalf("Expected one sent event, got %d", len(sink.sent))
	}
	if id, _ := sink.sent[0].PlayerID(); id != "me" {
		t.Errorf("Expected raised event to carry own id, got %q", id)
	}
	local := g.TakeLocalEvents()
	if len(local) != 1 || !local[0].Local() {
		t.Fatalf("Expected one local event, got %v", local)
	}
	if len(g.TakeLocalEvents()) != 0 {
		t.Error("Expected local queue to be cleared")
	}
}

func TestOperationPlugin(t *testing.T) {
	sink := &sinkRecorder{}
	g := startGame(GameParams{SelfID: "me", Sink: sink}, nil)
	p := &fakePlugin{}
	if err := g.Operations().Register(5, p); err != nil {
		t.Fatal(err)
	}
	if err := g.Operations().Register(5, p); err == nil {
		t.Error("Expected duplicate code to be rejected")
	}
	if !g.Operations().Start(5) {
		t.Fatal("Expected plugin to start")
	}
	p.raise(Operation{Priority: 1, Data: []any{"jump"}})

	if len(sink.sent) != 1 {
		t.Fatalf("Expected one operation event, got %d", len(sink.sent))
	}
	ev := sink.sent[0]
	if ev.Code() != playlog.CodeOperation || ev.Priority() != 1 {
		t.Errorf("Expected operation with priority 1, got %v", ev)
	}
	if code, _ := ev.Int(playlog.OperationCode); code != 5 {
		t.Errorf("Expected operation code 5, got %d", code)
	}

	var got *OperationEvent
	g.Scene().OnOperation.Add(func(e *OperationEvent) { got = e })
	tick(g, ev)
	if got == nil || got.Code != 5 || got.Player.ID != "me" {
		t.Errorf("Expected decoded operation from me, got %+v", got)
	}

	g.Terminate()
	if !p.stopped {
		t.Error("Expected termination to stop plugins")
	}
}

type fakePlugin struct {
	raise   func(Operation)
	stopped bool
}

func (p *fakePlugin) Start(raise func(Operation)) bool {
	p.raise = raise
	return true
}

func (p *fakePlugin) Stop() {
	p.stopped = true
}
