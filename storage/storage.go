// Package storage is the storage collaborator consumed by scenes: it loads
// keyed values on a worker goroutine and hands the result back through
// Dispatch on the host goroutine.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Region partitions stored values by purpose.
type Region int

const (
	RegionSlots  Region = 1
	RegionScores Region = 2
	RegionCounts Region = 3
	RegionValues Region = 4
)

func (r Region) String() string {
	switch r {
	case RegionSlots:
		return "slots"
	case RegionScores:
		return "scores"
	case RegionCounts:
		return "counts"
	case RegionValues:
		return "values"
	}
	return fmt.Sprintf("region(%d)", int(r))
}

// Key addresses one stored value.
type Key struct {
	Region    Region `json:"region"`
	RegionKey string `json:"regionKey"`
	UserID    string `json:"userId,omitempty"`
}

// Value is a stored value. Data must be JSON-serializable; a nil Data means
// the key has never been written.
type Value struct {
	Key  Key `json:"key"`
	Data any `json:"data"`
}

var (
	ErrClosed     = errors.New("storage closed")
	ErrInvalidKey = errors.New("invalid storage key")
)

func (k Key) validate() error {
	if k.Region < RegionSlots || k.Region > RegionValues {
		return fmt.Errorf("%w: %v", ErrInvalidKey, k.Region)
	}
	if k.RegionKey == "" {
		return fmt.Errorf("%w: empty region key", ErrInvalidKey)
	}
	return nil
}

// Store is a storage backend. Load returns one Value per key, in key order.
type Store interface {
	Load(ctx context.Context, keys []Key) ([]Value, error)
	Save(ctx context.Context, values []Value) error
	Close() error
}

// Handler receives the outcome of Manager.Load on the Dispatch goroutine.
type Handler interface {
	OnStorageLoaded(values []Value)
	OnStorageLoadError(err error)
}
