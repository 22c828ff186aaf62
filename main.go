package main

import (
	"embed"
	"io/fs"
	"log"

	"github.com/automoto/tickstage/assets"
	"github.com/automoto/tickstage/assets/media"
	"github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/engine"
	"github.com/automoto/tickstage/fonts"
	"github.com/automoto/tickstage/host"
	"github.com/automoto/tickstage/input/platform"
	"github.com/automoto/tickstage/network"
	"github.com/automoto/tickstage/render"
	"github.com/automoto/tickstage/scenes"
	"github.com/automoto/tickstage/storage"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

//go:embed data
var data embed.FS

const clickSound = "click"

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	if err := fonts.LoadDefaults(); err != nil {
		log.Fatalf("Failed to load fonts: %v", err)
	}

	fsys, err := fs.Sub(data, "data")
	if err != nil {
		log.Fatal(err)
	}
	decls, err := assets.LoadDeclarations(fsys, "assets.json")
	if err != nil {
		log.Fatalf("Failed to read asset declarations: %v", err)
	}
	am := assets.NewManager(fsys, decls, assets.ManagerParams{
		MaxErrorCount: config.C.MaxAssetErrors,
		Workers:       config.C.AssetWorkers,
	})
	defer am.Close()

	var audioCtx *audio.Context
	if config.C.SampleRate > 0 {
		audioCtx = audio.NewContext(config.C.SampleRate)
	}
	media.Register(am, audioCtx)

	// Saved values are optional: without a store scenes load with none.
	var sm *storage.Manager
	if store, err := storage.OpenGdata(config.C.AppName); err != nil {
		log.Printf("Warning: Could not initialize persistence: %v", err)
	} else {
		sm = storage.NewManager(store)
		defer sm.Close()
	}

	selfID := config.C.PlayerID
	if selfID == "" {
		selfID = uuid.NewString()
	}

	var client *network.Client
	var feed host.TickFeed
	if config.C.ServerAddr != "" {
		client = network.NewClient()
		client.Connect(config.C.ServerAddr, config.C.Version, selfID, config.C.PlayerName)
		defer client.Disconnect()
		feed = client
	}

	params := engine.GameParams{
		Width:     config.C.Width,
		Height:    config.C.Height,
		SelfID:    selfID,
		Assets:    am,
		MaxPoints: config.C.MaxPoints,
		Main: func(g *engine.Game) {
			loading := scenes.NewGaugeLoading(g)
			g.SetLoadingScene(loading.LoadingScene)
			title := scenes.NewTitle(g, scenes.TitleParams{
				Saver: saverOrNil(sm),
				Next: func() *engine.Scene {
					return scenes.NewBoard(g, scenes.BoardParams{Assets: am, SoundID: clickSound}).Scene
				},
			})
			g.PushScene(title.Scene)
		},
	}
	if sm != nil {
		params.Storage = sm
	}
	if client != nil {
		params.Sink = client
	}
	game := engine.NewGame(params)

	keys := &platform.KeyPlugin{Keys: []ebiten.Key{ebiten.KeyR}}
	if err := game.Operations().Register(scenes.OperationKeys, keys); err != nil {
		log.Fatal(err)
	}
	game.Operations().Start(scenes.OperationKeys)

	director := NewDirector(DirectorParams{
		Game:     game,
		Host:     host.New(game, feed),
		Renderer: render.NewScreenRenderer(media.Images{Manager: am}),
		Keys:     keys,
		Assets:   am,
		Audio:    audioCtx,
	})
	game.Start()

	ebiten.SetWindowSize(config.C.Width*2, config.C.Height*2)
	ebiten.SetWindowTitle(config.C.Title)
	ebiten.SetTPS(config.Server.TickRate)

	if err := ebiten.RunGame(director); err != nil {
		log.Fatal(err)
	}
}

// saverOrNil keeps a nil *storage.Manager from becoming a non-nil Saver.
func saverOrNil(sm *storage.Manager) scenes.Saver {
	if sm == nil {
		return nil
	}
	return sm
}
