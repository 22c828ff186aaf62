// Package media registers ebiten-backed image and audio loaders with an
// assets.Manager. It is kept apart from package assets so headless builds
// (the relay, tests) never link ebiten.
package media

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/automoto/tickstage/assets"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Register installs the image loader and, when ctx is non-nil, the audio
// loader.
func Register(m *assets.Manager, ctx *audio.Context) {
	m.RegisterLoader(assets.TypeImage, LoadImage)
	if ctx != nil {
		m.RegisterLoader(assets.TypeAudio, AudioLoader(ctx.SampleRate()))
	}
}

// LoadImage decodes a PNG/JPEG/GIF into an *ebiten.Image.
func LoadImage(fsys fs.FS, path string) (any, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	img, _, err := ebitenutil.NewImageFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// AudioLoader returns a loader that decodes ogg or wav files to PCM bytes at
// sampleRate, ready for audio.Context.NewPlayerFromBytes.
func AudioLoader(sampleRate int) assets.Loader {
	return func(fsys fs.FS, path string) (any, error) {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read audio file %s: %w", path, err)
		}

		var stream io.Reader
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".ogg":
			s, err := vorbis.DecodeWithSampleRate(sampleRate, bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("failed to decode ogg %s: %w", path, err)
			}
			stream = s
		case ".wav":
			s, err := wav.DecodeWithSampleRate(sampleRate, bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("failed to decode wav %s: %w", path, err)
			}
			stream = s
		default:
			return nil, fmt.Errorf("unsupported audio format: %s", ext)
		}

		decoded, err := io.ReadAll(stream)
		if err != nil {
			return nil, fmt.Errorf("failed to read decoded audio %s: %w", path, err)
		}
		return decoded, nil
	}
}

// Images looks up loaded image assets of a manager.
type Images struct {
	Manager *assets.Manager
}

func (i Images) Image(id string) (*ebiten.Image, bool) {
	a, ok := i.Manager.Asset(id)
	if !ok {
		return nil, false
	}
	img, ok := a.Data.(*ebiten.Image)
	return img, ok
}

// Player creates an audio player for a loaded audio asset.
func Player(ctx *audio.Context, m *assets.Manager, id string) (*audio.Player, error) {
	a, ok := m.Asset(id)
	if !ok {
		return nil, fmt.Errorf("audio %s: %w", id, assets.ErrUnknownAsset)
	}
	pcm, ok := a.Data.([]byte)
	if !ok {
		return nil, fmt.Errorf("audio %s holds %T", id, a.Data)
	}
	return ctx.NewPlayerFromBytes(pcm), nil
}
