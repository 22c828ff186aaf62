package engine

import (
	"log"

	"github.com/automoto/tickstage/assets"
	"github.com/automoto/tickstage/trigger"
)

type LoadingSceneParams struct {
	SceneParams
	// ExplicitEnd leaves the call to End to game code, e.g. to finish an
	// animation after the target is ready.
	ExplicitEnd bool
}

// LoadingScene is shown above a scene whose dependencies are still loading.
// It is popped, preserved, when End is called, after which the target fires
// its loaded event.
type LoadingScene struct {
	*Scene
	explicitEnd bool
	target      *Scene

	resetHandle trigger.Handle
	readyHandle trigger.Handle
	assetHandle trigger.Handle

	OnTargetReset     trigger.Trigger[*Scene]
	OnTargetReady     trigger.Trigger[*Scene]
	OnTargetAssetLoad trigger.Trigger[*assets.Asset]
}

func NewLoadingScene(g *Game, p LoadingSceneParams) *LoadingScene {
	return &LoadingScene{
		Scene:       NewScene(g, p.SceneParams),
		explicitEnd: p.ExplicitEnd,
	}
}

// Target returns the scene being waited for, or nil.
func (l *LoadingScene) Target() *Scene {
	return l.target
}

// reset binds the loading scene to target. The target starts loading once
// the loading scene itself has fired loaded.
func (l *LoadingScene) reset(target *Scene) {
	l.clearTarget()
	l.target = target
	target.gated = true
	if l.loadingState < LoadingStateLoadedFired {
		l.resetHandle = l.OnLoad.AddOnce(func(*Scene) { l.doReset() })
		return
	}
	l.doReset()
}

func (l *LoadingScene) doReset() {
	t := l.target
	if t == nil {
		return
	}
	l.OnTargetReset.Fire(t)
	l.assetHandle = t.OnAssetLoad.Add(func(a *assets.Asset) {
		l.OnTargetAssetLoad.Fire(a)
	})
	if t.loadingState >= LoadingStateReadyFired {
		l.fireTargetReady(t)
		return
	}
	l.readyHandle = t.onReady.AddOnce(l.fireTargetReady)
	t.load()
}

func (l *LoadingScene) fireTargetReady(t *Scene) {
	if t != l.target {
		return
	}
	l.OnTargetReady.Fire(t)
	if !l.explicitEnd {
		l.End()
	}
}

// End pops the loading scene and fires the target's loaded event. Both
// happen as post-tick tasks.
func (l *LoadingScene) End() {
	t := l.target
	if t == nil {
		log.Printf("[scene] %s: End without target", l.name)
		return
	}
	if t.loadingState < LoadingStateReadyFired {
		log.Printf("[scene] %s: End before %s is ready", l.name, t.name)
		return
	}
	l.clearTarget()
	l.game.PopScene(true, 1)
	l.game.PushPostTickTask(t.fireLoaded)
}

func (l *LoadingScene) clearTarget() {
	l.OnLoad.Remove(l.resetHandle)
	if l.target != nil {
		l.target.onReady.Remove(l.readyHandle)
		l.target.OnAssetLoad.Remove(l.assetHandle)
	}
	l.resetHandle, l.readyHandle, l.assetHandle = trigger.Handle{}, trigger.Handle{}, trigger.Handle{}
	l.target = nil
}
