package engine

import (
	"io/fs"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/automoto/tickstage/assets"
)

// flakyManager returns a real asset manager whose "a" fails the first
// failures loads.
func flakyManager(maxErrors int, failures int32) *assets.Manager {
	decls := map[string]assets.Declaration{"a": {Type: assets.TypeText, Path: "a.txt"}}
	m := assets.NewManager(fstest.MapFS{"a.txt": {Data: []byte("a")}}, decls, assets.ManagerParams{MaxErrorCount: maxErrors})
	var left atomic.Int32
	left.Store(failures)
	m.RegisterLoader(assets.TypeText, func(fsys fs.FS, path string) (any, error) {
		if left.Add(-1) >= 0 {
			return nil, errBoom
		}
		b, err := fs.ReadFile(fsys, path)
		return string(b), err
	})
	return m
}

func TestAssetRetryWithManager(t *testing.T) {
	tests := []struct {
		name           string
		maxErrors      int
		failures       int32
		holders        int
		wantTerminated bool
		wantLoads      int
	}{
		{"recovers within budget", 3, 1, 1, false, 1},
		{"shared failing asset", 3, 1, 2, false, 2},
		{"shared asset fails twice", 3, 2, 2, false, 2},
		{"exhausted budget terminates", 1, 100, 1, true, 0},
		{"exhausted budget terminates shared", 1, 100, 2, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := flakyManager(tt.maxErrors, tt.failures)
			defer m.Close()
			g := startGame(GameParams{Assets: m}, nil)

			loads, failures := 0, 0
			for i := range tt.holders {
				scene := NewScene(g, SceneParams{Name: string(rune('p' + i)), AssetIDs: []string{"a"}})
				scene.OnAssetLoad.Add(func(*assets.Asset) { loads++ })
				scene.OnAssetLoadFailure.Add(func(*AssetLoadFailure) { failures++ })
				scene.Prefetch()
			}
			for range 10 {
				if g.Terminated() {
					break
				}
				m.Wait()
				tick(g)
			}

			if g.Terminated() != tt.wantTerminated {
				t.Errorf("Expected terminated=%v, got %v", tt.wantTerminated, g.Terminated())
			}
			if loads != tt.wantLoads {
				t.Errorf("Expected %d loads, got %d", tt.wantLoads, loads)
			}
			if tt.failures < 100 && failures != int(tt.failures)*tt.holders {
				t.Errorf("Expected %d failures, got %d", int(tt.failures)*tt.holders, failures)
			}
			if _, ok := m.Asset("a"); ok == tt.wantTerminated {
				t.Errorf("Expected asset loaded=%v", !tt.wantTerminated)
			}
		})
	}
}
