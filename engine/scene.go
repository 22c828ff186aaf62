package engine

import (
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/automoto/tickstage/assets"
	"github.com/automoto/tickstage/storage"
	"github.com/automoto/tickstage/trigger"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
)

type SceneState int

const (
	SceneStateStandby SceneState = iota
	SceneStateActive
	SceneStateDeactive
	SceneStateBeforeDestroyed
	SceneStateDestroyed
)

func (s SceneState) String() string {
	switch s {
	case SceneStateStandby:
		return "standby"
	case SceneStateActive:
		return "active"
	case SceneStateDeactive:
		return "deactive"
	case SceneStateBeforeDestroyed:
		return "before-destroyed"
	case SceneStateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// LoadingState only moves forward.
type LoadingState int

const (
	LoadingStateInitial LoadingState = iota
	LoadingStateReady
	LoadingStateReadyFired
	LoadingStateLoadedFired
)

func (s LoadingState) String() string {
	switch s {
	case LoadingStateInitial:
		return "initial"
	case LoadingStateReady:
		return "ready"
	case LoadingStateReadyFired:
		return "ready-fired"
	case LoadingStateLoadedFired:
		return "loaded-fired"
	}
	return "unknown"
}

const hitCellSize = 32

type SceneParams struct {
	Name        string
	AssetIDs    []string
	StorageKeys []storage.Key
	// Local scenes only hold local entities.
	Local bool
}

// AssetLoadFailure is fired on Scene.OnAssetLoadFailure. Setting CancelRetry
// makes the handler responsible for the asset: the scene neither retries it
// nor terminates the game.
type AssetLoadFailure struct {
	AssetID     string
	Err         error
	Retriable   bool
	CancelRetry bool
}

// StorageLoadFailure is fired on Scene.OnStorageLoadFailure. Unless a
// handler sets Handled the game is terminated.
type StorageLoadFailure struct {
	Err     error
	Handled bool
}

// Scene is a load-gated container of entities.
type Scene struct {
	game  *Game
	name  string
	local bool

	children     []*Entity
	state        SceneState
	loadingState LoadingState

	assetIDs      []string
	storageKeys   []storage.Key
	storageValues []storage.Value
	storageLoaded bool
	loaded        bool
	prefetched    bool
	// gated is set once a loading scene owns the loaded notification.
	gated   bool
	holder  *assetHolder
	holders []*assetHolder

	world donburi.World
	space *resolv.Space

	OnUpdate           trigger.Trigger[*Scene]
	OnMessage          trigger.Trigger[*MessageEvent]
	OnPointDownCapture trigger.Trigger[*PointDownEvent]
	OnPointMoveCapture trigger.Trigger[*PointMoveEvent]
	OnPointUpCapture   trigger.Trigger[*PointUpEvent]
	OnOperation        trigger.Trigger[*OperationEvent]

	OnLoad               trigger.Trigger[*Scene]
	OnStateChange        trigger.Trigger[SceneState]
	OnAssetLoad          trigger.Trigger[*assets.Asset]
	OnAssetLoadFailure   trigger.Trigger[*AssetLoadFailure]
	OnStorageLoadFailure trigger.Trigger[*StorageLoadFailure]

	onReady trigger.Trigger[*Scene]
}

func NewScene(g *Game, p SceneParams) *Scene {
	if len(p.AssetIDs) > 0 && g.assets == nil {
		panic(fmt.Sprintf("engine: scene %q needs assets but the game has no asset manager", p.Name))
	}
	return &Scene{
		game:        g,
		name:        p.Name,
		local:       p.Local,
		assetIDs:    slices.Clone(p.AssetIDs),
		storageKeys: slices.Clone(p.StorageKeys),
		world:       donburi.NewWorld(),
		space:       resolv.NewSpace(g.width, g.height, hitCellSize, hitCellSize),
	}
}

func (s *Scene) Name() string {
	return s.name
}

func (s *Scene) Game() *Game {
	return s.game
}

func (s *Scene) Local() bool {
	return s.local
}

func (s *Scene) State() SceneState {
	return s.state
}

func (s *Scene) LoadingState() LoadingState {
	return s.loadingState
}

// World returns the donburi world holding the scene's entities.
func (s *Scene) World() donburi.World {
	return s.world
}

func (s *Scene) Children() []*Entity {
	return s.children
}

// Append makes e the last top-level entity of the scene.
func (s *Scene) Append(e *Entity) {
	e.detach()
	s.children = append(s.children, e)
}

func (s *Scene) remove(e *Entity) {
	s.children = slices.DeleteFunc(s.children, func(c *Entity) bool { return c == e })
}

// Asset returns a loaded asset this scene may use.
func (s *Scene) Asset(id string) (*assets.Asset, bool) {
	if s.game.assets == nil {
		return nil, false
	}
	return s.game.assets.Asset(id)
}

// StorageValues returns the values loaded for the scene's storage keys, in
// key order.
func (s *Scene) StorageValues() []storage.Value {
	return s.storageValues
}

// AssetIDs returns the assets the scene needs before it is ready.
func (s *Scene) AssetIDs() []string {
	return slices.Clone(s.assetIDs)
}

func (s *Scene) Destroyed() bool {
	return s.state == SceneStateDestroyed || s.state == SceneStateBeforeDestroyed
}

// Prefetch starts the scene's asset requests early. It does nothing once
// the scene has started loading.
func (s *Scene) Prefetch() {
	if s.loaded || s.prefetched {
		return
	}
	s.prefetched = true
	s.requestPrimaryAssets()
}

// RequestAssets loads additional assets after the scene has fired ready.
// done runs as a post-tick task once every asset has loaded.
func (s *Scene) RequestAssets(ids []string, done func()) error {
	if s.Destroyed() {
		return fmt.Errorf("request assets for %q: %w", s.name, ErrSceneDestroyed)
	}
	if s.loadingState < LoadingStateReadyFired {
		return fmt.Errorf("request assets for %q: %w", s.name, ErrSceneNotReady)
	}
	if s.game.assets == nil {
		panic(fmt.Sprintf("engine: scene %q requests assets but the game has no asset manager", s.name))
	}
	h := newAssetHolder(s, ids, func() {
		s.game.PushPostTickTask(func() {
			if !s.Destroyed() && done != nil {
				done()
			}
		})
	})
	s.holders = append(s.holders, h)
	h.request()
	return nil
}

func (s *Scene) needsStorage() bool {
	return len(s.storageKeys) > 0 && s.game.storage != nil
}

func (s *Scene) needsLoading() bool {
	return len(s.assetIDs) > 0 || s.needsStorage()
}

func (s *Scene) requestPrimaryAssets() {
	if s.holder != nil || len(s.assetIDs) == 0 {
		return
	}
	s.holder = newAssetHolder(s, s.assetIDs, s.checkReady)
	s.holder.request()
}

// load starts the scene's asset and storage dependencies. It runs at most
// once.
func (s *Scene) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	if s.needsStorage() {
		s.game.storage.Load(s.storageKeys, sceneStorageHandler{s})
	} else {
		s.storageLoaded = true
	}
	s.requestPrimaryAssets()
	s.checkReady()
}

// checkReady moves the scene to ready once every dependency has resolved.
// The ready event itself is fired from a post-tick task.
func (s *Scene) checkReady() {
	if !s.loaded || s.loadingState != LoadingStateInitial || s.Destroyed() {
		return
	}
	if (s.holder != nil && s.holder.pending()) || !s.storageLoaded {
		return
	}
	s.advance(LoadingStateReady)
	s.game.PushPostTickTask(s.fireReady)
}

func (s *Scene) advance(to LoadingState) {
	if to > s.loadingState {
		s.loadingState = to
	}
}

func (s *Scene) fireReady() {
	if s.Destroyed() || s.loadingState >= LoadingStateReadyFired {
		return
	}
	s.advance(LoadingStateReadyFired)
	s.onReady.Fire(s)
	if !s.gated {
		s.fireLoaded()
	}
}

func (s *Scene) fireLoaded() {
	if s.Destroyed() || s.loadingState >= LoadingStateLoadedFired {
		return
	}
	s.advance(LoadingStateLoadedFired)
	s.OnLoad.Fire(s)
}

func (s *Scene) handleAssetError(id string, lerr *assets.LoadError) {
	f := &AssetLoadFailure{AssetID: id, Err: lerr, Retriable: lerr.Retriable}
	s.OnAssetLoadFailure.Fire(f)
	if f.CancelRetry || s.game.terminated {
		return
	}
	if !lerr.Retriable {
		log.Printf("[scene] %s: giving up on asset %q: %v", s.name, id, lerr)
		s.game.Terminate()
		return
	}
	if err := s.game.assets.Retry(id); err != nil {
		log.Printf("[scene] %s: retry %q failed: %v", s.name, id, err)
		if errors.Is(err, assets.ErrRetryLimitExceeded) {
			s.game.Terminate()
		}
	}
}

type sceneStorageHandler struct {
	s *Scene
}

func (h sceneStorageHandler) OnStorageLoaded(values []storage.Value) {
	s := h.s
	if s.Destroyed() {
		return
	}
	s.storageValues = values
	s.storageLoaded = true
	s.checkReady()
}

func (h sceneStorageHandler) OnStorageLoadError(err error) {
	s := h.s
	if s.Destroyed() {
		return
	}
	f := &StorageLoadFailure{Err: err}
	s.OnStorageLoadFailure.Fire(f)
	if !f.Handled {
		log.Printf("[scene] %s: storage load failed: %v", s.name, err)
		s.game.Terminate()
		return
	}
	s.storageLoaded = true
	s.checkReady()
}

func (s *Scene) setState(st SceneState) {
	if s.state == st {
		return
	}
	s.state = st
	s.OnStateChange.Fire(st)
}

func (s *Scene) destroy() {
	if s.Destroyed() {
		return
	}
	s.setState(SceneStateBeforeDestroyed)
	for _, c := range slices.Clone(s.children) {
		c.Destroy()
	}
	if s.holder != nil {
		s.holder.destroy()
	}
	for _, h := range s.holders {
		h.destroy()
	}
	s.holders = nil
	s.setState(SceneStateDestroyed)

	s.OnUpdate.Destroy()
	s.OnMessage.Destroy()
	s.OnPointDownCapture.Destroy()
	s.OnPointMoveCapture.Destroy()
	s.OnPointUpCapture.Destroy()
	s.OnOperation.Destroy()
	s.OnLoad.Destroy()
	s.OnStateChange.Destroy()
	s.OnAssetLoad.Destroy()
	s.OnAssetLoadFailure.Destroy()
	s.OnStorageLoadFailure.Destroy()
	s.onReady.Destroy()
}

// Render draws the scene's entity tree in order.
func (s *Scene) Render(r Renderer) {
	for _, c := range s.children {
		c.render(r)
	}
}
