package config

import (
	"image/color"
	"time"
)

// Config holds general host configuration
type Config struct {
	Width  int    `env:"WIDTH"`
	Height int    `env:"HEIGHT"`
	Title  string `env:"TITLE"`

	// MaxPoints caps concurrently held pointers. Zero means no cap.
	MaxPoints int `env:"MAX_POINTS"`

	// Asset loading
	AssetWorkers   int `env:"ASSET_WORKERS"`
	MaxAssetErrors int `env:"MAX_ASSET_ERRORS"`

	// SampleRate of the audio context. Zero disables audio.
	SampleRate int `env:"SAMPLE_RATE"`

	// AppName names the gdata save directory.
	AppName string `env:"APP_NAME"`

	// ServerAddr is the relay to join. Empty runs offline.
	ServerAddr string `env:"SERVER_ADDR"`
	// PlayerID names this participant in the session. Empty picks a
	// random one at startup.
	PlayerID   string `env:"PLAYER_ID"`
	PlayerName string `env:"PLAYER_NAME"`
	Version    string `env:"VERSION"`
}

// ServerConfig contains relay configuration
type ServerConfig struct {
	Port     uint   `env:"PORT"`
	TickRate int    `env:"TICK_RATE"`
	Name     string `env:"NAME"`
	// Version is the required client version. Empty accepts any.
	Version string `env:"VERSION"`
	// TimestampEvery makes the relay originate a timestamp event every n
	// ticks. Zero disables it.
	TimestampEvery int `env:"TIMESTAMP_EVERY"`
	// DBPath is the sqlite file holding player storage. Empty disables it.
	DBPath string `env:"DB_PATH"`
}

// LoadingConfig contains the loading gauge layout
type LoadingConfig struct {
	GaugeWidth  float64
	GaugeHeight float64
	// FillDuration is how long the gauge takes to ease to a new fraction.
	FillDuration time.Duration
	// MinDisplay keeps the gauge up at least this many ticks.
	MinDisplay int
	BackColor  color.RGBA
	BarColor   color.RGBA
	TextColor  color.RGBA
}

// BoardConfig contains the demo board layout
type BoardConfig struct {
	Columns  int
	Rows     int
	CellSize float64
	Margin   float64
	// SlideDuration is the tween time of a piece moving one cell.
	SlideDuration time.Duration
	CellColors    [2]color.RGBA
	PieceColors   []color.RGBA
	// MapAsset, when declared, lays out the board from a Tiled map.
	MapAsset string
}

// Global configuration instances
var C *Config
var Server ServerConfig
var Loading LoadingConfig
var Board BoardConfig

// Shared RGBA color constants
var (
	White        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow       = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Orange       = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	Red          = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green        = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue         = color.RGBA{R: 0, G: 100, B: 255, A: 255}
	Purple       = color.RGBA{R: 128, G: 0, B: 255, A: 255}
	BlackOverlay = color.RGBA{R: 0, G: 0, B: 0, A: 180}
	LightBlue    = color.RGBA{R: 100, G: 180, B: 255, A: 255}
	DarkBlue     = color.RGBA{R: 60, G: 100, B: 160, A: 255}
)

func init() {
	C = &Config{
		Width:          640,
		Height:         360,
		Title:          "tickstage",
		MaxPoints:      4,
		AssetWorkers:   4,
		MaxAssetErrors: 3,
		SampleRate:     44100,
		AppName:        "tickstage",
		PlayerName:     "player",
		Version:        "dev",
	}

	Server = ServerConfig{
		Port:           7373,
		TickRate:       30,
		Name:           "tickstage relay",
		TimestampEvery: 30,
	}

	Loading = LoadingConfig{
		GaugeWidth:   240,
		GaugeHeight:  12,
		FillDuration: 250 * time.Millisecond,
		MinDisplay:   15,
		BackColor:    BlackOverlay,
		BarColor:     LightBlue,
		TextColor:    White,
	}

	Board = BoardConfig{
		Columns:       8,
		Rows:          6,
		CellSize:      40,
		Margin:        8,
		SlideDuration: 200 * time.Millisecond,
		CellColors:    [2]color.RGBA{DarkBlue, {R: 40, G: 70, B: 120, A: 255}},
		PieceColors:   []color.RGBA{Yellow, Orange, Red, Green, Purple},
		MapAsset:      "board-map",
	}
}
