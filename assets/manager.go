// Package assets is the asset-management collaborator: it loads declared
// assets on worker goroutines, reference counts them, bounds retries, and
// reports completions through Dispatch on the host goroutine.
package assets

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"slices"

	"github.com/automoto/tickstage/shared/mailbox"
	"golang.org/x/sync/semaphore"
)

// Loader decodes one asset from the file system.
type Loader func(fsys fs.FS, path string) (any, error)

type ManagerParams struct {
	// MaxErrorCount is how many failed attempts an asset may retry after.
	MaxErrorCount int
	// Workers bounds concurrent loads. Zero means 4.
	Workers int
}

type loading struct {
	id         string
	handlers   []Handler
	errorCount int
	inFlight   bool
	fatal      bool
}

// Manager owns loaded assets. All methods except the worker side are meant
// to be called from the host goroutine.
type Manager struct {
	fsys          fs.FS
	decls         map[string]Declaration
	loaders       map[Type]Loader
	maxErrorCount int

	assets    map[string]*Asset
	refCounts map[string]int
	loadings  map[string]*loading

	mailbox *mailbox.Mailbox
	sem     *semaphore.Weighted
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewManager(fsys fs.FS, decls map[string]Declaration, p ManagerParams) *Manager {
	workers := p.Workers
	if workers <= 0 {
		workers = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		fsys:          fsys,
		decls:         make(map[string]Declaration, len(decls)),
		loaders:       make(map[Type]Loader),
		maxErrorCount: p.MaxErrorCount,
		assets:        make(map[string]*Asset),
		refCounts:     make(map[string]int),
		loadings:      make(map[string]*loading),
		mailbox:       mailbox.New(),
		sem:           semaphore.NewWeighted(int64(workers)),
		ctx:           ctx,
		cancel:        cancel,
	}
	for id, d := range decls {
		m.decls[id] = d
	}
	registerDefaultLoaders(m)
	return m
}

// RegisterLoader installs or replaces the loader for t.
func (m *Manager) RegisterLoader(t Type, l Loader) {
	m.loaders[t] = l
}

// Declare adds or replaces an asset declaration.
func (m *Manager) Declare(id string, d Declaration) {
	m.decls[id] = d
}

// Declared reports whether id has a declaration.
func (m *Manager) Declared(id string) bool {
	_, ok := m.decls[id]
	return ok
}

// MaxErrorCount returns the retry budget per asset.
func (m *Manager) MaxErrorCount() int {
	return m.maxErrorCount
}

// RequestAssets references ids and starts loading those not yet loaded. It
// returns how many of them h will hear about; already loaded assets are
// available immediately through Asset.
func (m *Manager) RequestAssets(ids []string, h Handler) int {
	waiting := 0
	for _, id := range ids {
		m.refCounts[id]++
		if _, ok := m.assets[id]; ok {
			continue
		}
		waiting++
		if l, ok := m.loadings[id]; ok {
			l.handlers = append(l.handlers, h)
			continue
		}
		l := &loading{id: id, handlers: []Handler{h}}
		m.loadings[id] = l
		m.start(l)
	}
	return waiting
}

// UnrefAssets drops one reference to each id. Assets without references are
// released; results of loads still in flight for them are discarded.
func (m *Manager) UnrefAssets(ids []string) {
	for _, id := range ids {
		n, ok := m.refCounts[id]
		if !ok {
			continue
		}
		if n > 1 {
			m.refCounts[id] = n - 1
			continue
		}
		delete(m.refCounts, id)
		delete(m.assets, id)
		delete(m.loadings, id)
	}
}

// RemoveHandler stops h from hearing about any pending load.
func (m *Manager) RemoveHandler(h Handler) {
	for _, l := range m.loadings {
		l.handlers = slices.DeleteFunc(l.handlers, func(x Handler) bool { return x == h })
	}
}

// Retry restarts a failed load. Every handler of a failed load may call it;
// calls while the retry is already in flight do nothing. It fails when the
// asset is not waiting for a retry or its error budget is spent.
func (m *Manager) Retry(id string) error {
	l, ok := m.loadings[id]
	if ok && l.inFlight {
		return nil
	}
	if !ok || l.fatal {
		return fmt.Errorf("retry %q: %w", id, ErrNotRetryable)
	}
	if l.errorCount > m.maxErrorCount {
		return fmt.Errorf("retry %q: %w", id, ErrRetryLimitExceeded)
	}
	m.start(l)
	return nil
}

// Asset returns a loaded asset.
func (m *Manager) Asset(id string) (*Asset, bool) {
	a, ok := m.assets[id]
	return a, ok
}

// RefCount returns the number of live references to id.
func (m *Manager) RefCount(id string) int {
	return m.refCounts[id]
}

// Dispatch delivers finished loads to their handlers and returns how many
// completions were processed.
func (m *Manager) Dispatch() int {
	return m.mailbox.Drain()
}

// Wait blocks until every started load has finished. Results still need a
// Dispatch to be delivered.
func (m *Manager) Wait() {
	m.mailbox.Wait()
}

// Close cancels loads that are still waiting for a worker slot.
func (m *Manager) Close() {
	m.cancel()
}

func (m *Manager) start(l *loading) {
	l.inFlight = true
	id := l.id
	decl, ok := m.decls[id]
	m.mailbox.Begin()
	if !ok {
		m.mailbox.Post(func() { m.finish(id, nil, ErrUnknownAsset, false) })
		return
	}
	loader, ok := m.loaders[decl.Type]
	if !ok {
		m.mailbox.Post(func() { m.finish(id, nil, fmt.Errorf("%w: %s", ErrNoLoader, decl.Type), false) })
		return
	}

	go func() {
		if err := m.sem.Acquire(m.ctx, 1); err != nil {
			m.mailbox.Post(func() { m.finish(id, nil, err, false) })
			return
		}
		data, err := loader(m.fsys, decl.Path)
		m.sem.Release(1)
		m.mailbox.Post(func() { m.finish(id, data, err, true) })
	}()
}

func (m *Manager) finish(id string, data any, err error, retriable bool) {
	l, ok := m.loadings[id]
	if !ok {
		// Released while loading.
		return
	}
	l.inFlight = false
	handlers := slices.Clone(l.handlers)

	if err != nil {
		l.errorCount++
		lerr := &LoadError{AssetID: id, Err: err, Retriable: retriable}
		if retriable && l.errorCount > m.maxErrorCount {
			lerr.Err = fmt.Errorf("%w: %w", ErrRetryLimitExceeded, err)
			lerr.Retriable = false
		}
		l.fatal = !retriable
		log.Printf("[assets] %v (attempt %d, retriable=%v)", lerr, l.errorCount, lerr.Retriable)
		for _, h := range handlers {
			h.OnAssetError(id, lerr)
		}
		return
	}

	decl := m.decls[id]
	a := &Asset{ID: id, Type: decl.Type, Path: decl.Path, Data: data}
	delete(m.loadings, id)
	m.assets[id] = a
	for _, h := range handlers {
		h.OnAssetLoad(a)
	}
}
