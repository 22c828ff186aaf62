package assets

import (
	"errors"
	"fmt"
)

// Type selects the loader used for an asset.
type Type string

const (
	TypeText     Type = "text"
	TypeJSON     Type = "json"
	TypeBinary   Type = "binary"
	TypeTiledMap Type = "tiledmap"
	TypeImage    Type = "image"
	TypeAudio    Type = "audio"
)

// Declaration describes where an asset lives and how to decode it.
type Declaration struct {
	Type Type   `json:"type"`
	Path string `json:"path"`
}

// Asset is a loaded, decoded asset.
type Asset struct {
	ID   string
	Type Type
	Path string
	Data any
}

var (
	ErrUnknownAsset       = errors.New("unknown asset")
	ErrNoLoader           = errors.New("no loader for asset type")
	ErrRetryLimitExceeded = errors.New("retry limit exceeded")
	ErrNotRetryable       = errors.New("asset is not waiting for a retry")
)

// LoadError reports a failed load attempt. Retriable is false once the
// asset's error budget is spent or the failure cannot be fixed by retrying.
type LoadError struct {
	AssetID   string
	Err       error
	Retriable bool
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load asset %q: %v", e.AssetID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Handler receives completion callbacks for requested assets. Callbacks run
// on the goroutine that calls Manager.Dispatch.
type Handler interface {
	OnAssetLoad(a *Asset)
	OnAssetError(id string, err *LoadError)
}
