package scenes

import (
	"fmt"
	"log"

	"github.com/automoto/tickstage/archetypes"
	"github.com/automoto/tickstage/board"
	"github.com/automoto/tickstage/components"
	"github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/engine"
	"github.com/automoto/tickstage/motion"
	"github.com/automoto/tickstage/trigger"
	"github.com/lafriks/go-tiled"
	"github.com/yohamta/donburi"
)

const (
	pieceInset = 4
	chatLines  = 5
	// ResetKey is the key operation that puts every piece back home.
	ResetKey = "R"
)

type BoardParams struct {
	// Assets, when set, decides whether the map and sound assets are used.
	Assets Declarer
	// SoundID is played when a piece lands. Optional.
	SoundID string
}

type grabKey struct {
	player  string
	pointer int
}

// Board is the shared scene: pieces on a grid that any participant can
// drag to a free cell.
type Board struct {
	*engine.Scene
	p      BoardParams
	cfg    config.BoardConfig
	model  *board.Board
	home   board.Layout
	root   *engine.Entity
	pieces []*engine.Entity
	grabs  map[grabKey]engine.Point

	soundReady  bool
	joinHandle  trigger.Handle
	leaveHandle trigger.Handle
}

func NewBoard(g *engine.Game, p BoardParams) *Board {
	cfg := config.Board
	var ids []string
	if p.Assets != nil && cfg.MapAsset != "" && p.Assets.Declared(cfg.MapAsset) {
		ids = append(ids, cfg.MapAsset)
	}
	b := &Board{
		Scene: engine.NewScene(g, engine.SceneParams{Name: "board", AssetIDs: ids}),
		p:     p,
		cfg:   cfg,
		grabs: make(map[grabKey]engine.Point),
	}
	b.OnAssetLoadFailure.Add(b.assetFailed)
	b.OnLoad.AddOnce(b.build)
	b.OnStateChange.Add(func(st engine.SceneState) {
		if st == engine.SceneStateDestroyed {
			g.OnJoin.Remove(b.joinHandle)
			g.OnLeave.Remove(b.leaveHandle)
		}
	})
	return b
}

// assetFailed keeps the board running silent when the landing sound cannot
// be loaded. The map goes through the usual retry policy.
func (b *Board) assetFailed(f *engine.AssetLoadFailure) {
	if f.AssetID != b.p.SoundID || f.Retriable {
		return
	}
	log.Printf("[board] going on without %q: %v", f.AssetID, f.Err)
	f.CancelRetry = true
}

func (b *Board) layout() board.Layout {
	def := board.DefaultLayout(b.cfg.Columns, b.cfg.Rows, len(b.cfg.PieceColors))
	a, ok := b.Asset(b.cfg.MapAsset)
	if !ok {
		return def
	}
	m, ok := a.Data.(*tiled.Map)
	if !ok {
		log.Printf("[board] asset %q is %T, not a map", a.ID, a.Data)
		return def
	}
	l, err := board.LayoutFromMap(m)
	if err != nil {
		log.Printf("[board] bad map %q: %v", a.ID, err)
		return def
	}
	return l
}

func (b *Board) build(*engine.Scene) {
	b.home = b.layout()
	model, err := board.New(b.home)
	if err != nil {
		log.Printf("[board] %v; using the default layout", err)
		b.home = board.DefaultLayout(b.cfg.Columns, b.cfg.Rows, len(b.cfg.PieceColors))
		model, _ = board.New(b.home)
	}
	b.model = model

	cell := b.cfg.CellSize
	b.root = engine.NewEntity(engine.EntityParams{
		Scene:      b.Scene,
		X:          b.cfg.Margin,
		Y:          b.cfg.Margin,
		Width:      float64(model.Columns()) * cell,
		Height:     float64(model.Rows()) * cell,
		Components: archetypes.Board.Components(),
	})
	for row := range model.Rows() {
		for col := range model.Columns() {
			engine.NewEntity(engine.EntityParams{
				Scene:      b.Scene,
				Parent:     b.root,
				X:          float64(col) * cell,
				Y:          float64(row) * cell,
				Width:      cell,
				Height:     cell,
				Appearance: &components.AppearanceData{Fill: b.cfg.CellColors[(col+row)%2]},
				Components: archetypes.Cell.Components(),
			})
		}
	}
	for i := range model.Len() {
		b.pieces = append(b.pieces, b.newPiece(i))
	}

	g := b.Game()
	b.joinHandle = g.OnJoin.Add(func(ev *engine.JoinEvent) {
		if ev.Player == nil {
			return
		}
		hud := b.HUD()
		hud.Players = append(hud.Players, ev.Player.Name)
	})
	b.leaveHandle = g.OnLeave.Add(func(ev *engine.LeaveEvent) {
		if ev.Player == nil {
			return
		}
		hud := b.HUD()
		for i, name := range hud.Players {
			if name == ev.Player.Name {
				hud.Players = append(hud.Players[:i], hud.Players[i+1:]...)
				break
			}
		}
	})
	engine.OperationEvents.Subscribe(b.World(), b.onOperation)
	engine.MessageEvents.Subscribe(b.World(), b.onMessage)
	b.OnUpdate.Add(func(s *engine.Scene) {
		motion.Update(s.World(), TickSeconds())
	})

	if b.p.SoundID != "" && b.p.Assets != nil && b.p.Assets.Declared(b.p.SoundID) {
		if err := b.RequestAssets([]string{b.p.SoundID}, func() { b.soundReady = true }); err != nil {
			log.Printf("[board] sound: %v", err)
		}
	}
}

func (b *Board) newPiece(i int) *engine.Entity {
	p := b.model.Piece(i)
	size := b.cfg.CellSize - 2*pieceInset
	e := engine.NewEntity(engine.EntityParams{
		Scene:     b.Scene,
		Parent:    b.root,
		X:         b.cellX(p.Col),
		Y:         b.cellY(p.Row),
		Width:     size,
		Height:    size,
		Touchable: true,
		Appearance: &components.AppearanceData{
			Fill: b.cfg.PieceColors[p.Color%len(b.cfg.PieceColors)],
		},
		Components: archetypes.Piece.Components(),
	})
	components.Piece.SetValue(e.Entry(), components.PieceData{Col: p.Col, Row: p.Row, Color: p.Color, Name: p.Name})
	e.OnPointDown.Add(func(ev *engine.PointDownEvent) {
		b.grabs[grabOf(&ev.PointEventBase)] = engine.Point{X: e.X() + ev.Point.X, Y: e.Y() + ev.Point.Y}
	})
	e.OnPointUp.Add(func(ev *engine.PointUpEvent) {
		key := grabOf(&ev.PointEventBase)
		at, ok := b.grabs[key]
		if !ok {
			at = engine.Point{X: e.X() + ev.Point.X, Y: e.Y() + ev.Point.Y}
		}
		delete(b.grabs, key)
		b.drop(i, at.X+ev.StartDelta.X, at.Y+ev.StartDelta.Y)
	})
	return e
}

func grabOf(ev *engine.PointEventBase) grabKey {
	k := grabKey{pointer: ev.PointerID}
	if ev.Player != nil {
		k.player = ev.Player.ID
	}
	return k
}

func (b *Board) cellX(col int) float64 {
	return float64(col)*b.cfg.CellSize + pieceInset
}

func (b *Board) cellY(row int) float64 {
	return float64(row)*b.cfg.CellSize + pieceInset
}

// drop moves piece i to the cell under the board point x,y, clamped onto
// the board. Occupied cells refuse the piece.
func (b *Board) drop(i int, x, y float64) {
	col, row, _ := b.model.CellAt(x, y, b.cfg.CellSize)
	col, row = b.model.Clamp(col, row)
	if err := b.model.Move(i, col, row); err != nil {
		return
	}
	b.place(i)
	hud := b.HUD()
	hud.Moves = b.model.Moves()
	if b.soundReady {
		hud.Cues = append(hud.Cues, b.p.SoundID)
	}
}

// place eases piece i's entity onto its model cell.
func (b *Board) place(i int) {
	p := b.model.Piece(i)
	e := b.pieces[i]
	pd := components.Piece.Get(e.Entry())
	pd.Col, pd.Row = p.Col, p.Row
	motion.Slide(e.Entry(), b.cellX(p.Col), b.cellY(p.Row), float32(b.cfg.SlideDuration.Seconds()))
}

// Reset sends every piece back to where the board started.
func (b *Board) Reset() {
	model, err := board.New(b.home)
	if err != nil {
		return
	}
	b.model = model
	for i := range b.pieces {
		b.place(i)
	}
	b.HUD().Moves = 0
}

func (b *Board) onOperation(_ donburi.World, ev *engine.OperationEvent) {
	if ev.Code != OperationKeys {
		return
	}
	if key, _ := ev.Data.(string); key == ResetKey {
		b.Reset()
	}
}

func (b *Board) onMessage(_ donburi.World, ev *engine.MessageEvent) {
	name := "?"
	if ev.Player != nil {
		name = ev.Player.Name
	}
	b.HUD().Say(fmt.Sprintf("%s: %v", name, ev.Data), chatLines)
}

// Model returns the rules model, nil before the board has loaded.
func (b *Board) Model() *board.Board {
	return b.model
}

// Pieces returns the piece entities in model order.
func (b *Board) Pieces() []*engine.Entity {
	return b.pieces
}

// HUD returns the overlay state held by the board root.
func (b *Board) HUD() *components.BoardHUDData {
	return components.BoardHUD.Get(b.root.Entry())
}

// Root returns the board entity, nil before the board has loaded.
func (b *Board) Root() *engine.Entity {
	return b.root
}
