package board

import (
	"fmt"
	"strconv"

	"github.com/lafriks/go-tiled"
)

// PieceGroup is the Tiled object group holding piece placements.
const PieceGroup = "pieces"

// DefaultLayout spreads n pieces along the first row.
func DefaultLayout(cols, rows, n int) Layout {
	l := Layout{Columns: cols, Rows: rows}
	for i := range min(n, cols) {
		l.Pieces = append(l.Pieces, Piece{
			Name:  fmt.Sprintf("piece-%d", i),
			Col:   i,
			Row:   0,
			Color: i,
		})
	}
	return l
}

// LayoutFromMap reads the board size from m and piece cells from the
// objects of its PieceGroup. An object's "color" property picks its color
// index; it defaults to the object's position in the group.
func LayoutFromMap(m *tiled.Map) (Layout, error) {
	if m.TileWidth <= 0 || m.TileHeight <= 0 {
		return Layout{}, fmt.Errorf("map has no tile size")
	}
	l := Layout{Columns: m.Width, Rows: m.Height}
	for _, g := range m.ObjectGroups {
		if g.Name != PieceGroup {
			continue
		}
		for i, o := range g.Objects {
			p := Piece{
				Name:  o.Name,
				Col:   int(o.X) / m.TileWidth,
				Row:   int(o.Y) / m.TileHeight,
				Color: i,
			}
			if p.Name == "" {
				p.Name = "piece-" + strconv.Itoa(int(o.ID))
			}
			if v := o.Properties.GetString("color"); v != "" {
				c, err := strconv.Atoi(v)
				if err != nil {
					return Layout{}, fmt.Errorf("piece %q color %q: %w", p.Name, v, err)
				}
				p.Color = c
			}
			l.Pieces = append(l.Pieces, p)
		}
	}
	return l, nil
}
