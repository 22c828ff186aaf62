package assets

import (
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/lafriks/go-tiled"
)

func registerDefaultLoaders(m *Manager) {
	m.RegisterLoader(TypeText, LoadText)
	m.RegisterLoader(TypeJSON, LoadJSON)
	m.RegisterLoader(TypeBinary, LoadBinary)
	m.RegisterLoader(TypeTiledMap, LoadTiledMap)
}

// LoadText returns the file contents as a string.
func LoadText(fsys fs.FS, path string) (any, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read text %s: %w", path, err)
	}
	return string(b), nil
}

// LoadJSON decodes the file into a generic value.
func LoadJSON(fsys fs.FS, path string) (any, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read json %s: %w", path, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("parse json %s: %w", path, err)
	}
	return v, nil
}

// LoadBinary returns the raw file bytes.
func LoadBinary(fsys fs.FS, path string) (any, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read binary %s: %w", path, err)
	}
	return b, nil
}

// LoadTiledMap parses a Tiled .tmx map. Tilesets referenced by the map are
// resolved against the same file system.
func LoadTiledMap(fsys fs.FS, path string) (any, error) {
	m, err := tiled.LoadFile(path, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load tiled map %s: %w", path, err)
	}
	return m, nil
}

// LoadDeclarations reads an asset table of the form
// {"id": {"type": "...", "path": "..."}}.
func LoadDeclarations(fsys fs.FS, path string) (map[string]Declaration, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read declarations %s: %w", path, err)
	}
	decls := make(map[string]Declaration)
	if err := json.Unmarshal(b, &decls); err != nil {
		return nil, fmt.Errorf("parse declarations %s: %w", path, err)
	}
	for id, d := range decls {
		if d.Type == "" || d.Path == "" {
			return nil, fmt.Errorf("declaration %q: type and path required", id)
		}
	}
	return decls, nil
}
