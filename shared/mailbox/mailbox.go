// Package mailbox hands completions from worker goroutines back to the host
// loop. Workers Post; the single consumer calls Drain between ticks so engine
// state is only ever mutated on the host goroutine.
package mailbox

import "sync"

type Mailbox struct {
	mu      sync.Mutex
	pending []func()
	wg      sync.WaitGroup
}

func New() *Mailbox {
	return &Mailbox{}
}

// Begin marks one piece of in-flight work. Every Begin must be matched by a
// Post (or Done when the work produced nothing to deliver).
func (m *Mailbox) Begin() {
	m.wg.Add(1)
}

// Post queues fn for the consumer and completes one unit of in-flight work.
func (m *Mailbox) Post(fn func()) {
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
	m.wg.Done()
}

// Done completes one unit of in-flight work without queuing anything.
func (m *Mailbox) Done() {
	m.wg.Done()
}

// Drain runs every queued completion in post order and returns how many ran.
// Completions posted while draining are left for the next call.
func (m *Mailbox) Drain() int {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Len returns the number of queued completions.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Wait blocks until all in-flight work has posted.
func (m *Mailbox) Wait() {
	m.wg.Wait()
}
