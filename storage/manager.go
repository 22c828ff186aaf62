package storage

import (
	"context"
	"log"

	"github.com/automoto/tickstage/shared/mailbox"
)

// Manager runs store I/O off the host goroutine.
type Manager struct {
	store   Store
	mailbox *mailbox.Mailbox
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
}

func NewManager(store Store) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:   store,
		mailbox: mailbox.New(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Load reads keys and reports to h on a later Dispatch.
func (m *Manager) Load(keys []Key, h Handler) {
	m.mailbox.Begin()
	if m.closed {
		m.mailbox.Post(func() { h.OnStorageLoadError(ErrClosed) })
		return
	}
	for _, k := range keys {
		if err := k.validate(); err != nil {
			m.mailbox.Post(func() { h.OnStorageLoadError(err) })
			return
		}
	}
	keys = append([]Key(nil), keys...)
	go func() {
		values, err := m.store.Load(m.ctx, keys)
		m.mailbox.Post(func() {
			if err != nil {
				log.Printf("[storage] load failed: %v", err)
				h.OnStorageLoadError(err)
				return
			}
			h.OnStorageLoaded(values)
		})
	}()
}

// Save writes values; done, if non-nil, runs on a later Dispatch.
func (m *Manager) Save(values []Value, done func(error)) {
	m.mailbox.Begin()
	if m.closed {
		m.post(done, ErrClosed)
		return
	}
	for _, v := range values {
		if err := v.Key.validate(); err != nil {
			m.post(done, err)
			return
		}
	}
	values = append([]Value(nil), values...)
	go func() {
		err := m.store.Save(m.ctx, values)
		if err != nil {
			log.Printf("[storage] save failed: %v", err)
		}
		m.post(done, err)
	}()
}

func (m *Manager) post(done func(error), err error) {
	if done == nil {
		m.mailbox.Done()
		return
	}
	m.mailbox.Post(func() { done(err) })
}

// Dispatch delivers finished loads and saves.
func (m *Manager) Dispatch() int {
	return m.mailbox.Drain()
}

// Wait blocks until every started operation has finished.
func (m *Manager) Wait() {
	m.mailbox.Wait()
}

// Close waits for outstanding work and closes the store.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.mailbox.Wait()
	m.cancel()
	return m.store.Close()
}
