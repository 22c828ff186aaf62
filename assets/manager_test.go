package assets

import (
	"errors"
	"testing"
	"testing/fstest"
)

type recorder struct {
	loaded []string
	errs   []*LoadError
}

func (r *recorder) OnAssetLoad(a *Asset) {
	r.loaded = append(r.loaded, a.ID)
}

func (r *recorder) OnAssetError(id string, err *LoadError) {
	r.errs = append(r.errs, err)
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"text/hello.txt":  {Data: []byte("hello")},
		"data/board.json": {Data: []byte(`{"w":8,"h":8}`)},
		"bin/blob":        {Data: []byte{1, 2, 3}},
	}
}

func testDecls() map[string]Declaration {
	return map[string]Declaration{
		"hello":   {Type: TypeText, Path: "text/hello.txt"},
		"board":   {Type: TypeJSON, Path: "data/board.json"},
		"blob":    {Type: TypeBinary, Path: "bin/blob"},
		"missing": {Type: TypeText, Path: "text/nope.txt"},
		"weird":   {Type: "shader", Path: "text/hello.txt"},
	}
}

func settle(m *Manager) {
	m.Wait()
	m.Dispatch()
}

func TestRequestAssetsLoads(t *testing.T) {
	m := NewManager(testFS(), testDecls(), ManagerParams{})
	defer m.Close()
	r := &recorder{}

	if n := m.RequestAssets([]string{"hello", "board", "blob"}, r); n != 3 {
		t.Fatalf("Expected 3 waiting, got %d", n)
	}
	if len(r.loaded) != 0 {
		t.Fatal("Expected no callbacks before Dispatch")
	}
	settle(m)

	if len(r.loaded) != 3 {
		t.Fatalf("Expected 3 loads, got %v", r.loaded)
	}
	a, ok := m.Asset("hello")
	if !ok || a.Data.(string) != "hello" {
		t.Errorf("Expected text asset \"hello\", got %#v", a)
	}
	b, _ := m.Asset("board")
	obj, ok := b.Data.(map[string]any)
	if !ok || obj["w"] != float64(8) {
		t.Errorf("Expected decoded json object, got %#v", b.Data)
	}
	c, _ := m.Asset("blob")
	if raw := c.Data.([]byte); len(raw) != 3 {
		t.Errorf("Expected 3 bytes, got %d", len(raw))
	}
}

func TestRequestAssetsAlreadyLoaded(t *testing.T) {
	m := NewManager(testFS(), testDecls(), ManagerParams{})
	defer m.Close()
	first := &recorder{}
	m.RequestAssets([]string{"hello"}, first)
	settle(m)

	second := &recorder{}
	if n := m.RequestAssets([]string{"hello"}, second); n != 0 {
		t.Errorf("Expected 0 waiting for loaded asset, got %d", n)
	}
	if got := m.RefCount("hello"); got != 2 {
		t.Errorf("Expected ref count 2, got %d", got)
	}
}

func TestUnknownAssetIsNotRetriable(t *testing.T) {
	m := NewManager(testFS(), testDecls(), ManagerParams{MaxErrorCount: 3})
	defer m.Close()
	r := &recorder{}
	m.RequestAssets([]string{"ghost", "weird"}, r)
	settle(m)

	if len(r.errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(r.errs))
	}
	for _, e := range r.errs {
		if e.Retriable {
			t.Errorf("Expected %s to be non-retriable", e.AssetID)
		}
	}
	if !errors.Is(r.errs[0], ErrUnknownAsset) {
		t.Errorf("Expected ErrUnknownAsset, got %v", r.errs[0])
	}
	if !errors.Is(r.errs[1], ErrNoLoader) {
		t.Errorf("Expected ErrNoLoader, got %v", r.errs[1])
	}
	if err := m.Retry("ghost"); !errors.Is(err, ErrNotRetryable) {
		t.Errorf("Expected ErrNotRetryable, got %v", err)
	}
}

func TestRetryBudget(t *testing.T) {
	m := NewManager(testFS(), testDecls(), ManagerParams{MaxErrorCount: 1})
	defer m.Close()
	r := &recorder{}
	m.RequestAssets([]string{"missing"}, r)
	settle(m)

	if len(r.errs) != 1 || !r.errs[0].Retriable {
		t.Fatalf("Expected one retriable error, got %v", r.errs)
	}
	if err := m.Retry("missing"); err != nil {
		t.Fatalf("Expected retry to start, got %v", err)
	}
	settle(m)

	if len(r.errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(r.errs))
	}
	last := r.errs[1]
	if last.Retriable {
		t.Error("Expected budget to be spent")
	}
	if !errors.Is(last, ErrRetryLimitExceeded) {
		t.Errorf("Expected ErrRetryLimitExceeded, got %v", last)
	}
	if err := m.Retry("missing"); !errors.Is(err, ErrRetryLimitExceeded) {
		t.Errorf("Expected retry refusal, got %v", err)
	}
}

func TestRetryAfterFixingFile(t *testing.T) {
	fsys := testFS()
	m := NewManager(fsys, testDecls(), ManagerParams{MaxErrorCount: 2})
	defer m.Close()
	r := &recorder{}
	m.RequestAssets([]string{"missing"}, r)
	settle(m)

	fsys["text/nope.txt"] = &fstest.MapFile{Data: []byte("found")}
	if err := m.Retry("missing"); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	settle(m)

	if len(r.loaded) != 1 || r.loaded[0] != "missing" {
		t.Errorf("Expected asset to load after retry, got %v", r.loaded)
	}
}

func TestRetryWhileInFlight(t *testing.T) {
	fsys := testFS()
	m := NewManager(fsys, testDecls(), ManagerParams{MaxErrorCount: 1})
	defer m.Close()
	first, second := &recorder{}, &recorder{}
	m.RequestAssets([]string{"missing"}, first)
	m.RequestAssets([]string{"missing"}, second)
	settle(m)

	fsys["text/nope.txt"] = &fstest.MapFile{Data: []byte("found")}
	for i := range 2 {
		if err := m.Retry("missing"); err != nil {
			t.Fatalf("Retry %d: %v", i, err)
		}
	}
	settle(m)

	for _, r := range []*recorder{first, second} {
		if len(r.errs) != 1 || len(r.loaded) != 1 {
			t.Errorf("Expected one error then one load, got %d errors and %v", len(r.errs), r.loaded)
		}
	}
}

func TestUnrefReleases(t *testing.T) {
	m := NewManager(testFS(), testDecls(), ManagerParams{})
	defer m.Close()
	r := &recorder{}
	m.RequestAssets([]string{"hello"}, r)
	m.RequestAssets([]string{"hello"}, r)
	settle(m)

	m.UnrefAssets([]string{"hello"})
	if _, ok := m.Asset("hello"); !ok {
		t.Fatal("Expected asset to survive while referenced")
	}
	m.UnrefAssets([]string{"hello"})
	if _, ok := m.Asset("hello"); ok {
		t.Error("Expected asset to be released")
	}
}

func TestUnrefDiscardsInFlight(t *testing.T) {
	m := NewManager(testFS(), testDecls(), ManagerParams{})
	defer m.Close()
	r := &recorder{}
	m.RequestAssets([]string{"hello"}, r)
	m.UnrefAssets([]string{"hello"})
	settle(m)

	if len(r.loaded) != 0 {
		t.Errorf("Expected released load to be dropped, got %v", r.loaded)
	}
}

func TestRemoveHandler(t *testing.T) {
	m := NewManager(testFS(), testDecls(), ManagerParams{})
	defer m.Close()
	a, b := &recorder{}, &recorder{}
	m.RequestAssets([]string{"hello"}, a)
	m.RequestAssets([]string{"hello"}, b)
	m.RemoveHandler(a)
	settle(m)

	if len(a.loaded) != 0 {
		t.Errorf("Expected removed handler to stay silent, got %v", a.loaded)
	}
	if len(b.loaded) != 1 {
		t.Errorf("Expected remaining handler to be notified, got %v", b.loaded)
	}
}
