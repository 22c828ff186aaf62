// Package board is the rules model of the demo board: pieces on a grid of
// cells, at most one piece per cell.
package board

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrOutOfBounds = errors.New("cell out of bounds")
	ErrOccupied    = errors.New("cell occupied")
)

type Piece struct {
	Name     string
	Col, Row int
	Color    int
}

type Layout struct {
	Columns, Rows int
	Pieces        []Piece
}

type cell struct {
	col, row int
}

// Board is not safe for concurrent use.
type Board struct {
	cols, rows int
	pieces     []Piece
	occupied   map[cell]int
	moves      int
}

// New validates l and builds a board from it.
func New(l Layout) (*Board, error) {
	if l.Columns <= 0 || l.Rows <= 0 {
		return nil, fmt.Errorf("board %dx%d: %w", l.Columns, l.Rows, ErrOutOfBounds)
	}
	b := &Board{
		cols:     l.Columns,
		rows:     l.Rows,
		pieces:   make([]Piece, len(l.Pieces)),
		occupied: make(map[cell]int, len(l.Pieces)),
	}
	for i, p := range l.Pieces {
		c := cell{p.Col, p.Row}
		if !b.inBounds(c) {
			return nil, fmt.Errorf("piece %q at %d,%d: %w", p.Name, p.Col, p.Row, ErrOutOfBounds)
		}
		if j, ok := b.occupied[c]; ok {
			return nil, fmt.Errorf("piece %q at %d,%d overlaps %q: %w", p.Name, p.Col, p.Row, l.Pieces[j].Name, ErrOccupied)
		}
		b.pieces[i] = p
		b.occupied[c] = i
	}
	return b, nil
}

func (b *Board) inBounds(c cell) bool {
	return c.col >= 0 && c.col < b.cols && c.row >= 0 && c.row < b.rows
}

func (b *Board) Columns() int { return b.cols }
func (b *Board) Rows() int    { return b.rows }

// Moves returns the number of accepted moves.
func (b *Board) Moves() int {
	return b.moves
}

// Piece returns piece i.
func (b *Board) Piece(i int) Piece {
	return b.pieces[i]
}

func (b *Board) Len() int {
	return len(b.pieces)
}

// At returns the index of the piece on col,row.
func (b *Board) At(col, row int) (int, bool) {
	i, ok := b.occupied[cell{col, row}]
	return i, ok
}

// CellAt maps a board-relative point to a cell.
func (b *Board) CellAt(x, y, cellSize float64) (col, row int, ok bool) {
	if cellSize <= 0 {
		return 0, 0, false
	}
	col, row = int(math.Floor(x/cellSize)), int(math.Floor(y/cellSize))
	return col, row, b.inBounds(cell{col, row})
}

// Move puts piece i on col,row. Moving onto its own cell is a no-op and
// does not count.
func (b *Board) Move(i, col, row int) error {
	p := &b.pieces[i]
	to := cell{col, row}
	if !b.inBounds(to) {
		return fmt.Errorf("move %q to %d,%d: %w", p.Name, col, row, ErrOutOfBounds)
	}
	from := cell{p.Col, p.Row}
	if to == from {
		return nil
	}
	if j, ok := b.occupied[to]; ok {
		return fmt.Errorf("move %q onto %q: %w", p.Name, b.pieces[j].Name, ErrOccupied)
	}
	delete(b.occupied, from)
	b.occupied[to] = i
	p.Col, p.Row = col, row
	b.moves++
	return nil
}

// Clamp moves col,row onto the nearest cell of the board.
func (b *Board) Clamp(col, row int) (int, int) {
	return max(0, min(col, b.cols-1)), max(0, min(row, b.rows-1))
}

// Layout returns the board as a layout, every piece on its current
// cell.
func (b *Board) Layout() Layout {
	return Layout{Columns: b.cols, Rows: b.rows, Pieces: append([]Piece(nil), b.pieces...)}
}
