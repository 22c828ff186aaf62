package scenes

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/automoto/tickstage/assets"
	"github.com/automoto/tickstage/engine"
	"github.com/automoto/tickstage/input"
	"github.com/automoto/tickstage/motion"
	"github.com/automoto/tickstage/shared/playlog"
	"github.com/automoto/tickstage/storage"
)

const boardMap = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" renderorder="right-down" width="5" height="4" tilewidth="40" tileheight="40" infinite="0" nextlayerid="2" nextobjectid="3">
 <objectgroup id="1" name="pieces">
  <object id="1" name="sun" x="40" y="80" width="40" height="40"/>
  <object id="2" name="moon" x="160" y="120" width="40" height="40"/>
 </objectgroup>
</map>
`

type demo struct {
	g       *engine.Game
	assets  *assets.Manager
	storage *storage.Manager
	store   *storage.SQLiteStore
	title   *Title
	board   *Board
	loading *GaugeLoading
}

func newDemo(t *testing.T, seed int) *demo {
	t.Helper()
	store, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if seed > 0 {
		if err := store.Save(context.Background(), []storage.Value{{Key: LaunchesKey, Data: seed}}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	fsys := fstest.MapFS{"board.tmx": {Data: []byte(boardMap)}}
	d := &demo{
		assets: assets.NewManager(fsys, map[string]assets.Declaration{
			"board-map": {Type: assets.TypeTiledMap, Path: "board.tmx"},
		}, assets.ManagerParams{MaxErrorCount: 1}),
		storage: storage.NewManager(store),
		store:   store,
	}
	t.Cleanup(func() {
		d.assets.Close()
		_ = d.storage.Close()
	})
	d.g = engine.NewGame(engine.GameParams{
		Width:   640,
		Height:  360,
		SelfID:  "p1",
		Assets:  d.assets,
		Storage: d.storage,
		Main: func(g *engine.Game) {
			d.loading = NewGaugeLoading(g)
			g.SetLoadingScene(d.loading.LoadingScene)
			d.title = NewTitle(g, TitleParams{
				Saver: d.storage,
				Next: func() *engine.Scene {
					d.board = NewBoard(g, BoardParams{Assets: d.assets})
					return d.board.Scene
				},
			})
			g.PushScene(d.title.Scene)
		},
	})
	d.g.Start()
	return d
}

func (d *demo) tick(t *testing.T, evs ...playlog.Event) {
	t.Helper()
	d.assets.Wait()
	d.storage.Wait()
	for _, ev := range evs {
		d.g.RaisePlaylogEvent(ev)
	}
	if _, err := d.g.Tick(true, 0, d.g.TakeLocalEvents()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
}

func (d *demo) runUntil(t *testing.T, what string, done func() bool) {
	t.Helper()
	for range 600 {
		if done() {
			return
		}
		d.tick(t)
	}
	t.Fatalf("Expected %s within 600 ticks", what)
}

func loadedAndActive(d *demo, s func() *engine.Scene) func() bool {
	return func() bool {
		scene := s()
		return scene != nil && d.g.Scene() == scene && scene.LoadingState() == engine.LoadingStateLoadedFired
	}
}

func (d *demo) startBoard(t *testing.T) {
	t.Helper()
	d.runUntil(t, "the title", loadedAndActive(d, func() *engine.Scene { return d.title.Scene }))
	btn := d.title.StartButton().GlobalPosition()
	d.tick(t, d.g.Pointer().PointDown(input.PointSample{
		Identifier: 1,
		Point:      input.Point{X: btn.X + 5, Y: btn.Y + 5},
	}))
	d.runUntil(t, "the board", loadedAndActive(d, func() *engine.Scene {
		if d.board == nil {
			return nil
		}
		return d.board.Scene
	}))
}

func TestTitleCountsLaunches(t *testing.T) {
	tests := []struct {
		name string
		seed int
		want int
	}{
		{"first launch", 0, 1},
		{"stored count", 4, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDemo(t, tt.seed)
			d.runUntil(t, "the title", loadedAndActive(d, func() *engine.Scene { return d.title.Scene }))
			if got := d.title.Launches(); got != tt.want {
				t.Errorf("Expected %d launches, got %d", tt.want, got)
			}

			d.storage.Wait()
			d.storage.Dispatch()
			values, err := d.store.Load(context.Background(), []storage.Key{LaunchesKey})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if n, _ := playlog.Int(values[0].Data); n != tt.want {
				t.Errorf("Expected %d saved, got %v", tt.want, values[0].Data)
			}
		})
	}
}

func TestGaugeHoldsUntilFull(t *testing.T) {
	d := newDemo(t, 0)
	d.runUntil(t, "the gauge", func() bool {
		return d.loading != nil && d.g.Scene() == d.loading.Scene
	})
	d.runUntil(t, "the title", loadedAndActive(d, func() *engine.Scene { return d.title.Scene }))
	gd := d.loading.Gauge()
	if gd.Shown != 1 || !gd.Ready {
		t.Errorf("Expected a full gauge, got %+v", *gd)
	}
	if d.loading.Target() != nil {
		t.Error("Expected the gauge to let go of its target")
	}
}

func TestBoardLaysOutFromMap(t *testing.T) {
	d := newDemo(t, 0)
	d.startBoard(t)

	m := d.board.Model()
	if m.Columns() != 5 || m.Rows() != 4 {
		t.Errorf("Expected a 5x4 board, got %dx%d", m.Columns(), m.Rows())
	}
	if i, ok := m.At(1, 2); !ok || m.Piece(i).Name != "sun" {
		t.Errorf("Expected sun at 1,2, got %d (ok=%v)", i, ok)
	}
	if len(d.board.Pieces()) != 2 {
		t.Errorf("Expected 2 piece entities, got %d", len(d.board.Pieces()))
	}
	if !d.title.Destroyed() {
		t.Error("Expected the title to be destroyed after the replace")
	}
}

func dragPiece(t *testing.T, d *demo, i int, dx, dy float64) {
	t.Helper()
	at := d.board.Pieces()[i].GlobalPosition()
	from := input.Point{X: at.X + 10, Y: at.Y + 10}
	down := d.g.Pointer().PointDown(input.PointSample{Identifier: 2, Point: from})
	up := d.g.Pointer().PointUp(input.PointSample{Identifier: 2, Point: input.Point{X: from.X + dx, Y: from.Y + dy}})
	d.tick(t, down, up)
}

func TestBoardDragMovesPiece(t *testing.T) {
	d := newDemo(t, 0)
	d.startBoard(t)

	sun := d.board.Pieces()[0]
	dragPiece(t, d, 0, 40, -40)

	if p := d.board.Model().Piece(0); p.Col != 2 || p.Row != 1 {
		t.Errorf("Expected sun on 2,1, got %d,%d", p.Col, p.Row)
	}
	if d.board.HUD().Moves != 1 {
		t.Errorf("Expected 1 move, got %d", d.board.HUD().Moves)
	}
	d.runUntil(t, "the slide to end", func() bool { return !motion.Moving(sun.Entry()) })
	if sun.X() != 2*40+pieceInset || sun.Y() != 1*40+pieceInset {
		t.Errorf("Expected sun at 84,44, got %v,%v", sun.X(), sun.Y())
	}
}

func TestBoardDropRules(t *testing.T) {
	tests := []struct {
		name           string
		dx, dy         float64
		wantCol, wantR int
	}{
		{"onto the other piece", 120, 40, 1, 2},
		{"off the board clamps", -400, 0, 0, 2},
		{"same cell", 5, 5, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDemo(t, 0)
			d.startBoard(t)
			dragPiece(t, d, 0, tt.dx, tt.dy)
			if p := d.board.Model().Piece(0); p.Col != tt.wantCol || p.Row != tt.wantR {
				t.Errorf("Expected sun on %d,%d, got %d,%d", tt.wantCol, tt.wantR, p.Col, p.Row)
			}
		})
	}
}

func TestBoardResetOperation(t *testing.T) {
	d := newDemo(t, 0)
	d.startBoard(t)
	dragPiece(t, d, 0, 40, -40)

	d.tick(t, d.g.Converter().MakePlaylogOperationEvent(OperationKeys, engine.Operation{Data: ResetKey}))
	if p := d.board.Model().Piece(0); p.Col != 1 || p.Row != 2 {
		t.Errorf("Expected sun home on 1,2, got %d,%d", p.Col, p.Row)
	}
	if d.board.HUD().Moves != 0 {
		t.Errorf("Expected moves reset, got %d", d.board.HUD().Moves)
	}

	d.tick(t, d.g.Converter().MakePlaylogOperationEvent(OperationKeys+1, engine.Operation{Data: ResetKey}))
	if d.board.HUD().Moves != 0 {
		t.Error("Expected other operation codes to be ignored")
	}
}

func TestBoardHUDFollowsSession(t *testing.T) {
	d := newDemo(t, 0)
	d.startBoard(t)

	d.tick(t,
		playlog.Event{int(playlog.CodeJoin), 0, "p2", "bob"},
		playlog.Event{int(playlog.CodeJoin), 0, "p3", "eve"},
		playlog.Event{int(playlog.CodeMessage), 0, "p2", "hello"},
		playlog.Event{int(playlog.CodeLeave), 0, "p3"},
	)
	hud := d.board.HUD()
	if len(hud.Players) != 1 || hud.Players[0] != "bob" {
		t.Errorf("Expected only bob listed, got %v", hud.Players)
	}
	if len(hud.Lines) != 1 || hud.Lines[0] != "bob: hello" {
		t.Errorf("Expected bob's line, got %v", hud.Lines)
	}
}
