package engine

import (
	"fmt"
	"log"
	"slices"
)

// OperationPlugin turns some platform input into operation events. Start
// receives the function to raise operations with and reports whether the
// plugin could start.
type OperationPlugin interface {
	Start(raise func(op Operation)) bool
	Stop()
}

type operationPluginEntry struct {
	plugin  OperationPlugin
	started bool
}

// OperationPluginManager owns the registered plugins by operation code.
type OperationPluginManager struct {
	game    *Game
	plugins map[int]*operationPluginEntry
}

func newOperationPluginManager(g *Game) *OperationPluginManager {
	return &OperationPluginManager{
		game:    g,
		plugins: make(map[int]*operationPluginEntry),
	}
}

// Register adds p under code. Codes are unique.
func (m *OperationPluginManager) Register(code int, p OperationPlugin) error {
	if _, ok := m.plugins[code]; ok {
		return fmt.Errorf("operation plugin %d already registered", code)
	}
	m.plugins[code] = &operationPluginEntry{plugin: p}
	return nil
}

// Start starts the plugin registered under code.
func (m *OperationPluginManager) Start(code int) bool {
	entry, ok := m.plugins[code]
	if !ok || entry.started {
		return false
	}
	entry.started = entry.plugin.Start(func(op Operation) {
		m.game.RaisePlaylogEvent(m.game.converter.MakePlaylogOperationEvent(code, op))
	})
	if !entry.started {
		log.Printf("[game] operation plugin %d did not start", code)
	}
	return entry.started
}

func (m *OperationPluginManager) Stop(code int) {
	entry, ok := m.plugins[code]
	if !ok || !entry.started {
		return
	}
	entry.plugin.Stop()
	entry.started = false
}

// StopAll stops every started plugin in code order.
func (m *OperationPluginManager) StopAll() {
	codes := make([]int, 0, len(m.plugins))
	for code := range m.plugins {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		m.Stop(code)
	}
}
