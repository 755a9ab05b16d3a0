package main

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidGrid is returned when grid dimensions cannot produce valid pieces.
var ErrInvalidGrid = errors.New("invalid grid")

// minCellSize is the smallest usable cell dimension in pixels. Below this
// there is no room for tab protrusions.
const minCellSize = 8

// Grid describes how a source image is divided into puzzle cells.
// Cell boundaries are integral: XAt(0)..XAt(Cols) partition the full image
// width exactly, with individual cells differing by at most one pixel.
type Grid struct {
	Rows, Cols    int
	Width, Height int
}

// NewGrid validates dimensions and returns a grid covering width x height.
func NewGrid(rows, cols, width, height int) (Grid, error) {
	if rows < 1 || cols < 1 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, rows, cols)
	}
	if width < 1 || height < 1 {
		return Grid{}, fmt.Errorf("%w: image %dx%d", ErrInvalidGrid, width, height)
	}
	g := Grid{Rows: rows, Cols: cols, Width: width, Height: height}
	if g.CellWidth() < minCellSize || g.CellHeight() < minCellSize {
		return Grid{}, fmt.Errorf("%w: cell %.1fx%.1f is below %dpx minimum",
			ErrInvalidGrid, g.CellWidth(), g.CellHeight(), minCellSize)
	}
	return g, nil
}

// CellWidth returns the nominal cell width (need not be integral).
func (g Grid) CellWidth() float64 { return float64(g.Width) / float64(g.Cols) }

// CellHeight returns the nominal cell height.
func (g Grid) CellHeight() float64 { return float64(g.Height) / float64(g.Rows) }

// XAt returns the x coordinate of the vertical grid line after col columns.
// XAt(0) == 0 and XAt(Cols) == Width.
func (g Grid) XAt(col int) int {
	return int(math.Round(float64(col) * float64(g.Width) / float64(g.Cols)))
}

// YAt returns the y coordinate of the horizontal grid line after row rows.
func (g Grid) YAt(row int) int {
	return int(math.Round(float64(row) * float64(g.Height) / float64(g.Rows)))
}

// CellRect returns the exact rectangle of cell (row, col).
func (g Grid) CellRect(row, col int) image.Rectangle {
	return image.Rect(g.XAt(col), g.YAt(row), g.XAt(col+1), g.YAt(row+1))
}

// PieceCount returns rows*cols.
func (g Grid) PieceCount() int { return g.Rows * g.Cols }

// PieceID returns the row-major piece ID of cell (row, col).
func (g Grid) PieceID(row, col int) int { return row*g.Cols + col }
