// Package engine is the deterministic core: a scene stack driven by ticks,
// load-gated scenes, and the transcoder between wire tuples and rich
// events. Everything in it runs on the host goroutine.
package engine

import (
	"fmt"
	"log"

	"github.com/automoto/tickstage/input"
	"github.com/automoto/tickstage/shared/playlog"
	"github.com/automoto/tickstage/storage"
	"github.com/automoto/tickstage/trigger"
	"github.com/yohamta/donburi/features/events"
)

// StorageManager is the storage collaborator a Game consumes.
// *storage.Manager implements it.
type StorageManager interface {
	Load(keys []storage.Key, h storage.Handler)
	Dispatch() int
}

// EventSink receives wire events this instance raises for the session.
type EventSink interface {
	SendEvent(ev playlog.Event)
}

type GameParams struct {
	Width, Height int
	// SelfID is this participant's player id.
	SelfID  string
	Assets  AssetManager
	Storage StorageManager
	// Sink receives non-local raised events. Without one they are queued
	// locally, as in single-player runs.
	Sink EventSink
	// MaxPoints caps concurrent pointers; zero means no cap.
	MaxPoints int
	// Main runs once the initial scene has loaded.
	Main func(g *Game)
}

type taskKind int

const (
	taskPush taskKind = iota
	taskReplace
	taskPop
	taskCall
)

type postTickTask struct {
	kind     taskKind
	scene    *Scene
	preserve bool
	fn       func()
}

// Game owns the scene stack and dispatches ticks to the active scene.
type Game struct {
	width, height int
	selfID        string

	age                       int
	isLastTickLocal           bool
	lastOmittedLocalTickCount int

	scenes        []*Scene
	postTickTasks []postTickTask
	sceneChanged  bool
	terminated    bool
	started       bool

	registry      *registry
	converter     *EventConverter
	pointer       *input.PointerResolver
	operations    *OperationPluginManager
	eventTriggers map[EventType]func(Event)

	assets      AssetManager
	storage     StorageManager
	sink        EventSink
	localEvents []playlog.Event

	initialScene        *Scene
	defaultLoadingScene *LoadingScene
	loadingScene        *LoadingScene
	main                func(g *Game)

	OnJoin        trigger.Trigger[*JoinEvent]
	OnLeave       trigger.Trigger[*LeaveEvent]
	OnTimestamp   trigger.Trigger[*TimestampEvent]
	OnPlayerInfo  trigger.Trigger[*PlayerInfoEvent]
	OnSceneChange trigger.Trigger[*Scene]
	OnTerminate   trigger.Trigger[*Game]
}

func NewGame(p GameParams) *Game {
	g := &Game{
		width:    p.Width,
		height:   p.Height,
		selfID:   p.SelfID,
		registry: newRegistry(),
		assets:   p.Assets,
		storage:  p.Storage,
		sink:     p.Sink,
		main:     p.Main,
	}
	g.converter = NewEventConverter(g, p.SelfID)
	g.pointer = input.NewPointerResolver(input.PointerResolverParams{
		Source:    g,
		PlayerID:  p.SelfID,
		MaxPoints: p.MaxPoints,
		Priority:  playlog.PriorityJoined,
	})
	g.operations = newOperationPluginManager(g)
	g.initialScene = NewScene(g, SceneParams{Name: "initial", Local: true})
	g.initialScene.OnLoad.AddOnce(func(*Scene) {
		if g.main != nil {
			g.main(g)
		}
	})
	g.defaultLoadingScene = NewLoadingScene(g, LoadingSceneParams{
		SceneParams: SceneParams{Name: "default-loading", Local: true},
	})
	return g
}

// Start pushes the initial scene. Main runs before Start returns.
func (g *Game) Start() {
	if g.started {
		return
	}
	g.started = true
	g.PushScene(g.initialScene)
	g.flushPostTickTasks()
}

func (g *Game) Width() int  { return g.width }
func (g *Game) Height() int { return g.height }

func (g *Game) SelfID() string {
	return g.selfID
}

// Age counts advancing ticks.
func (g *Game) Age() int {
	return g.age
}

// IsLastTickLocal reports whether the last tick did not advance the age.
func (g *Game) IsLastTickLocal() bool {
	return g.isLastTickLocal
}

func (g *Game) LastOmittedLocalTickCount() int {
	return g.lastOmittedLocalTickCount
}

func (g *Game) Terminated() bool {
	return g.terminated
}

// Scene returns the active scene, or nil before Start.
func (g *Game) Scene() *Scene {
	if len(g.scenes) == 0 {
		return nil
	}
	return g.scenes[len(g.scenes)-1]
}

// Scenes returns the stack, bottom first.
func (g *Game) Scenes() []*Scene {
	return g.scenes
}

func (g *Game) Converter() *EventConverter {
	return g.converter
}

// Pointer returns the resolver that turns platform samples into wire
// events hit-tested against the active scene.
func (g *Game) Pointer() *input.PointerResolver {
	return g.pointer
}

func (g *Game) Operations() *OperationPluginManager {
	return g.operations
}

// SetLoadingScene replaces the loading scene used for later pushes. nil
// restores the default one.
func (g *Game) SetLoadingScene(l *LoadingScene) {
	g.loadingScene = l
}

// Tick runs one simulation step: pending collaborator completions, then the
// events in order, then one update of the active scene, then the post-tick
// tasks. It reports whether the active scene changed. A transcoding error
// aborts the step; the caller is expected to terminate.
func (g *Game) Tick(advance bool, omittedCount int, evs []playlog.Event) (bool, error) {
	if g.terminated {
		return false, nil
	}
	g.sceneChanged = false
	g.dispatchCollaborators()

	for _, pev := range evs {
		if g.terminated {
			return false, nil
		}
		ev, err := g.converter.ToGameEvent(pev)
		if err != nil {
			return false, fmt.Errorf("tick %d: %w", g.age, err)
		}
		if fire, ok := g.eventTriggers[ev.Type()]; ok {
			fire(ev)
		}
	}
	if g.terminated {
		return false, nil
	}

	if scene := g.Scene(); scene != nil {
		events.ProcessAllEvents(scene.world)
		scene.OnUpdate.Fire(scene)
	}
	if advance {
		g.age++
	}
	g.isLastTickLocal = !advance
	g.lastOmittedLocalTickCount = omittedCount

	g.flushPostTickTasks()
	return g.sceneChanged, nil
}

func (g *Game) dispatchCollaborators() {
	if g.assets != nil {
		g.assets.Dispatch()
	}
	if g.storage != nil {
		g.storage.Dispatch()
	}
}

// updateEventTriggers rebuilds the routing table for the new active scene.
func (g *Game) updateEventTriggers(scene *Scene) {
	g.eventTriggers = map[EventType]func(Event){
		EventTypeJoin:       func(e Event) { g.OnJoin.Fire(e.(*JoinEvent)) },
		EventTypeLeave:      func(e Event) { g.OnLeave.Fire(e.(*LeaveEvent)) },
		EventTypeTimestamp:  func(e Event) { g.OnTimestamp.Fire(e.(*TimestampEvent)) },
		EventTypePlayerInfo: func(e Event) { g.OnPlayerInfo.Fire(e.(*PlayerInfoEvent)) },
		EventTypeMessage: func(e Event) {
			ev := e.(*MessageEvent)
			scene.OnMessage.Fire(ev)
			MessageEvents.Publish(scene.world, ev)
		},
		EventTypePointDown: func(e Event) {
			ev := e.(*PointDownEvent)
			scene.OnPointDownCapture.Fire(ev)
			if t := ev.Target; t != nil && !t.Destroyed() {
				t.OnPointDown.Fire(ev)
			}
		},
		EventTypePointMove: func(e Event) {
			ev := e.(*PointMoveEvent)
			scene.OnPointMoveCapture.Fire(ev)
			if t := ev.Target; t != nil && !t.Destroyed() {
				t.OnPointMove.Fire(ev)
			}
		},
		EventTypePointUp: func(e Event) {
			ev := e.(*PointUpEvent)
			scene.OnPointUpCapture.Fire(ev)
			if t := ev.Target; t != nil && !t.Destroyed() {
				t.OnPointUp.Fire(ev)
			}
		},
		EventTypeOperation: func(e Event) {
			ev := e.(*OperationEvent)
			scene.OnOperation.Fire(ev)
			OperationEvents.Publish(scene.world, ev)
		},
	}
}

// PushScene requests scene to be pushed after the current tick.
func (g *Game) PushScene(scene *Scene) {
	g.postTickTasks = append(g.postTickTasks, postTickTask{kind: taskPush, scene: scene})
}

// ReplaceScene requests the active scene be replaced by scene after the
// current tick. The replaced scene is destroyed unless preserve is set.
func (g *Game) ReplaceScene(scene *Scene, preserve bool) {
	g.postTickTasks = append(g.postTickTasks, postTickTask{kind: taskReplace, scene: scene, preserve: preserve})
}

// PopScene requests step pops after the current tick.
func (g *Game) PopScene(preserve bool, step int) {
	if step < 1 {
		step = 1
	}
	for range step {
		g.postTickTasks = append(g.postTickTasks, postTickTask{kind: taskPop, preserve: preserve})
	}
}

// PushPostTickTask runs fn after the current tick's dispatch, in order with
// scene changes.
func (g *Game) PushPostTickTask(fn func()) {
	g.postTickTasks = append(g.postTickTasks, postTickTask{kind: taskCall, fn: fn})
}

// flushPostTickTasks drains the task queue, including tasks queued by the
// tasks it runs.
func (g *Game) flushPostTickTasks() {
	for len(g.postTickTasks) > 0 {
		tasks := g.postTickTasks
		g.postTickTasks = nil
		for _, t := range tasks {
			if g.terminated {
				g.postTickTasks = nil
				return
			}
			switch t.kind {
			case taskPush:
				g.pushWithLoadGate(t.scene, g.currentLoadingScene())
			case taskReplace:
				if len(g.scenes) > 1 {
					g.popRaw(t.preserve)
				}
				g.pushWithLoadGate(t.scene, g.currentLoadingScene())
			case taskPop:
				g.popRaw(t.preserve)
			case taskCall:
				t.fn()
			}
		}
	}
}

func (g *Game) currentLoadingScene() *LoadingScene {
	if g.loadingScene != nil {
		return g.loadingScene
	}
	return g.defaultLoadingScene
}

// pushWithLoadGate pushes scene. A scene that still needs loading is
// buried under loading, which is itself pushed through the gate with the
// default loading scene.
func (g *Game) pushWithLoadGate(scene *Scene, loading *LoadingScene) {
	if !scene.needsLoading() || scene.loadingState >= LoadingStateLoadedFired {
		g.pushRaw(scene)
		return
	}
	if g.defaultLoadingScene.needsLoading() {
		panic("engine: the default loading scene must not depend on assets or storage")
	}
	if loading.Scene == scene {
		loading = g.defaultLoadingScene
	}
	g.deactivateTop()
	g.scenes = append(g.scenes, scene)
	scene.setState(SceneStateDeactive)

	g.pushWithLoadGate(loading.Scene, g.defaultLoadingScene)
	loading.reset(scene)
}

// pushRaw makes scene the active scene and starts its load.
func (g *Game) pushRaw(scene *Scene) {
	g.deactivateTop()
	g.scenes = append(g.scenes, scene)
	g.activate(scene)
	scene.load()
}

func (g *Game) popRaw(preserve bool) {
	if len(g.scenes) <= 1 {
		log.Printf("[game] refusing to pop the initial scene")
		return
	}
	top := g.scenes[len(g.scenes)-1]
	g.scenes = g.scenes[:len(g.scenes)-1]
	if preserve {
		top.setState(SceneStateDeactive)
	} else {
		top.destroy()
	}
	g.activate(g.scenes[len(g.scenes)-1])
}

func (g *Game) deactivateTop() {
	if top := g.Scene(); top != nil {
		top.setState(SceneStateDeactive)
	}
}

func (g *Game) activate(scene *Scene) {
	scene.setState(SceneStateActive)
	g.sceneChanged = true
	g.updateEventTriggers(scene)
	g.OnSceneChange.Fire(scene)
}

// Register assigns e the next id of its namespace.
func (g *Game) Register(e *Entity) {
	g.registry.register(e)
}

// RegisterWithID registers e under a known id. The id's sign must match the
// entity's local flag and the id must be free.
func (g *Game) RegisterWithID(e *Entity, id int) error {
	return g.registry.registerWithID(e, id)
}

func (g *Game) Unregister(e *Entity) {
	g.registry.unregister(e)
}

// FindEntity looks id up among local entities when negative and global
// entities otherwise.
func (g *Game) FindEntity(id int) (*Entity, bool) {
	return g.registry.find(id)
}

// Terminate stops the game for good. Later ticks are no-ops.
func (g *Game) Terminate() {
	if g.terminated {
		return
	}
	g.terminated = true
	g.operations.StopAll()
	log.Printf("[game] terminated at age %d", g.age)
	g.OnTerminate.Fire(g)
}

// RaiseEvent encodes e as this instance's player and sends it.
func (g *Game) RaiseEvent(e Event) error {
	pev, err := g.converter.ToPlaylogEvent(e, false)
	if err != nil {
		return fmt.Errorf("raise %s: %w", e.Type(), err)
	}
	g.RaisePlaylogEvent(pev)
	return nil
}

// RaisePlaylogEvent sends an already encoded event. Local events, and all
// events when there is no sink, are queued for TakeLocalEvents.
func (g *Game) RaisePlaylogEvent(pev playlog.Event) {
	if pev == nil {
		return
	}
	if pev.Local() || g.sink == nil {
		g.localEvents = append(g.localEvents, pev)
		return
	}
	g.sink.SendEvent(pev)
}

// TakeLocalEvents returns and clears the locally queued events; the host
// feeds them to the next Tick.
func (g *Game) TakeLocalEvents() []playlog.Event {
	evs := g.localEvents
	g.localEvents = nil
	return evs
}

// Render draws the active scene.
func (g *Game) Render(r Renderer) {
	if s := g.Scene(); s != nil {
		s.Render(r)
	}
}
