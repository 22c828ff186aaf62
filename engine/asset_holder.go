package engine

import "github.com/automoto/tickstage/assets"

// AssetManager is the asset collaborator a Game consumes. *assets.Manager
// implements it.
type AssetManager interface {
	RequestAssets(ids []string, h assets.Handler) int
	UnrefAssets(ids []string)
	RemoveHandler(h assets.Handler)
	Retry(id string) error
	Asset(id string) (*assets.Asset, bool)
	Dispatch() int
}

// assetHolder tracks one batch of requested assets for a scene.
type assetHolder struct {
	scene      *Scene
	ids        []string
	waiting    int
	requested  bool
	completed  bool
	destroyed  bool
	onComplete func()
}

func newAssetHolder(s *Scene, ids []string, onComplete func()) *assetHolder {
	return &assetHolder{
		scene:      s,
		ids:        ids,
		onComplete: onComplete,
	}
}

func (h *assetHolder) request() {
	h.requested = true
	h.waiting = h.scene.game.assets.RequestAssets(h.ids, h)
	if h.waiting == 0 {
		h.complete()
	}
}

func (h *assetHolder) pending() bool {
	return h.requested && !h.completed
}

func (h *assetHolder) OnAssetLoad(a *assets.Asset) {
	if h.destroyed || h.completed {
		return
	}
	h.scene.OnAssetLoad.Fire(a)
	h.waiting--
	if h.waiting <= 0 {
		h.complete()
	}
}

func (h *assetHolder) OnAssetError(id string, err *assets.LoadError) {
	if h.destroyed || h.completed {
		return
	}
	h.scene.handleAssetError(id, err)
}

func (h *assetHolder) complete() {
	h.completed = true
	h.onComplete()
}

func (h *assetHolder) destroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true
	if h.requested {
		m := h.scene.game.assets
		m.RemoveHandler(h)
		m.UnrefAssets(h.ids)
	}
}
