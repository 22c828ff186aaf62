package engine

import (
	"errors"
	"slices"

	"github.com/automoto/tickstage/assets"
	"github.com/automoto/tickstage/shared/playlog"
	"github.com/automoto/tickstage/storage"
)

var errBoom = errors.New("boom")

// fakeAssets completes requests only when told to, and only on Dispatch.
type fakeAssets struct {
	handlers map[string][]assets.Handler
	loaded   map[string]*assets.Asset
	refs     map[string]int
	queue    []func()
	requests int
	retries  []string
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{
		handlers: make(map[string][]assets.Handler),
		loaded:   make(map[string]*assets.Asset),
		refs:     make(map[string]int),
	}
}

func (f *fakeAssets) RequestAssets(ids []string, h assets.Handler) int {
	f.requests++
	n := 0
	for _, id := range ids {
		f.refs[id]++
		if _, ok := f.loaded[id]; ok {
			continue
		}
		n++
		f.handlers[id] = append(f.handlers[id], h)
	}
	return n
}

func (f *fakeAssets) UnrefAssets(ids []string) {
	for _, id := range ids {
		f.refs[id]--
	}
}

func (f *fakeAssets) RemoveHandler(h assets.Handler) {
	for id, hs := range f.handlers {
		f.handlers[id] = slices.DeleteFunc(hs, func(x assets.Handler) bool { return x == h })
	}
}

func (f *fakeAssets) Retry(id string) error {
	f.retries = append(f.retries, id)
	return nil
}

func (f *fakeAssets) Asset(id string) (*assets.Asset, bool) {
	a, ok := f.loaded[id]
	return a, ok
}

func (f *fakeAssets) Dispatch() int {
	q := f.queue
	f.queue = nil
	for _, fn := range q {
		fn()
	}
	return len(q)
}

func (f *fakeAssets) succeed(id string) {
	f.queue = append(f.queue, func() {
		a := &assets.Asset{ID: id, Type: assets.TypeText, Data: id}
		f.loaded[id] = a
		hs := f.handlers[id]
		delete(f.handlers, id)
		for _, h := range hs {
			h.OnAssetLoad(a)
		}
	})
}

func (f *fakeAssets) fail(id string, retriable bool) {
	f.queue = append(f.queue, func() {
		for _, h := range slices.Clone(f.handlers[id]) {
			h.OnAssetError(id, &assets.LoadError{AssetID: id, Err: errBoom, Retriable: retriable})
		}
	})
}

type fakeStorage struct {
	queue  []func()
	loads  int
	err    error
	values []storage.Value
}

func (f *fakeStorage) Load(keys []storage.Key, h storage.Handler) {
	f.loads++
	f.queue = append(f.queue, func() {
		if f.err != nil {
			h.OnStorageLoadError(f.err)
			return
		}
		h.OnStorageLoaded(f.values)
	})
}

func (f *fakeStorage) Dispatch() int {
	q := f.queue
	f.queue = nil
	for _, fn := range q {
		fn()
	}
	return len(q)
}

type sinkRecorder struct {
	sent []playlog.Event
}

func (s *sinkRecorder) SendEvent(ev playlog.Event) {
	s.sent = append(s.sent, ev)
}

// startGame starts a game whose main pushes the scenes built by setup.
func startGame(p GameParams, setup func(g *Game)) *Game {
	if p.Width == 0 {
		p.Width, p.Height = 320, 240
	}
	p.Main = setup
	g := NewGame(p)
	g.Start()
	return g
}

func tick(g *Game, evs ...playlog.Event) bool {
	changed, err := g.Tick(true, 0, evs)
	if err != nil {
		panic(err)
	}
	return changed
}

func activeCount(g *Game) int {
	n := 0
	for _, s := range g.Scenes() {
		if s.State() == SceneStateActive {
			n++
		}
	}
	return n
}
