package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"runtime"
	"sync"
	"time"
)

// ErrEmptyImage is returned when the source image has no pixels.
var ErrEmptyImage = errors.New("empty source image")

// defaultTabScale is the tab amplitude as a fraction of the smaller cell
// dimension. The value is configurable rather than fixed; anything much above
// 0.3 risks protrusions from opposite edges meeting in the cell middle.
const defaultTabScale = 0.25

// Cutter cuts a source image into interlocking puzzle pieces.
//
// Cutting runs in two phases. Phase 1 resolves every internal edge into the
// immutable EdgeTable; phase 2 assembles and rasterizes all pieces on a
// worker pool, reading the table without locks. The table must be complete
// before phase 2 starts so that both neighbors of every edge observe the same
// resolved curve.
type Cutter struct {
	Rows, Cols int
	Style      CuttingStyle
	Seed       uint64

	// TabScale overrides defaultTabScale when positive.
	TabScale float64
	// Workers overrides the phase-2 pool size (default GOMAXPROCS).
	Workers int
	// Converters overrides the classic-style SVG chain (default
	// defaultConverters). Non-classic styles ignore it.
	Converters []SVGConverter
	// ConvertTimeout bounds each external conversion attempt.
	ConvertTimeout time.Duration
}

// Cut produces one rasterized piece per grid cell plus a placement manifest.
// Fatal errors (invalid grid, empty image, degenerate edge, edge mismatch)
// abort the whole attempt with no partial output. Classic pieces whose
// converter chain is exhausted degrade to plain rectangles and are reported
// as warnings, not errors.
func (c *Cutter) Cut(ctx context.Context, src image.Image) (*CutResult, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	grid, err := NewGrid(c.Rows, c.Cols, src.Bounds().Dx(), src.Bounds().Dy())
	if err != nil {
		return nil, err
	}
	if _, err := ParseCuttingStyle(string(c.Style)); err != nil {
		return nil, err
	}

	tabScale := c.TabScale
	if tabScale <= 0 {
		tabScale = defaultTabScale
	}
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	converters := c.Converters
	if converters == nil && c.Style == StyleClassic {
		converters = defaultConverters(c.ConvertTimeout)
	}

	// Phase 1: resolve all internal edges. Hard barrier before phase 2.
	table, err := buildEdgeTable(grid, c.Style, c.Seed, tabScale)
	if err != nil {
		return nil, err
	}

	srcRGBA := toRGBA(src)
	n := grid.PieceCount()
	pieces := make([]Piece, n)
	paths := make([]*piecePath, n)
	var warnings []Warning
	var warnMu sync.Mutex

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var firstErr error
	var errOnce sync.Once
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	// Phase 2: embarrassingly parallel per-piece work. Cancellation is
	// checked between pieces, never mid-piece.
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if runCtx.Err() != nil {
					continue
				}
				piece, pp, warn, err := c.cutPiece(runCtx, grid, table, srcRGBA, converters, id)
				if err != nil {
					fail(err)
					continue
				}
				pieces[id] = piece
				paths[id] = pp
				if warn != nil {
					warnMu.Lock()
					warnings = append(warnings, *warn)
					warnMu.Unlock()
				}
			}
		}()
	}
feed:
	for id := 0; id < n; id++ {
		select {
		case jobs <- id:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkEdgeConsistency(paths); err != nil {
		return nil, err
	}

	manifest := Manifest{
		Width:  grid.Width,
		Height: grid.Height,
		Grid:   [2]int{grid.Rows, grid.Cols},
		Pieces: make([]PieceInfo, n),
	}
	for i, p := range pieces {
		manifest.Pieces[i] = PieceInfo{ID: p.ID, X: p.X, Y: p.Y, Degraded: p.Degraded}
	}
	return &CutResult{Pieces: pieces, Manifest: manifest, Warnings: warnings}, nil
}

// cutPiece builds and rasterizes a single piece. For the classic style,
// pieces with curved sides go through the SVG converter chain; exhausting the
// chain degrades the piece to a plain rectangle and returns a warning.
func (c *Cutter) cutPiece(ctx context.Context, grid Grid, table *EdgeTable, src *image.RGBA, converters []SVGConverter, id int) (Piece, *piecePath, *Warning, error) {
	row, col := id/grid.Cols, id%grid.Cols
	cell := grid.CellRect(row, col)
	pp := buildPiecePath(grid, table, row, col)

	piece := Piece{
		ID:     id,
		Row:    row,
		Col:    col,
		X:      cell.Min.X,
		Y:      cell.Min.Y,
		Bounds: pp.bounds,
	}

	if c.Style == StyleClassic && pp.curved {
		svg := pieceSVG(pp)
		mask, _, err := convertSVG(ctx, converters, svg, pp.bounds.Dx(), pp.bounds.Dy())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Piece{}, nil, nil, err
			}
			// Degrade this piece only; siblings keep their curves.
			piece.Bounds = cell
			piece.Image = renderRectPiece(src, cell)
			piece.Degraded = true
			warn := &Warning{
				PieceID: id,
				Message: fmt.Sprintf("vector conversion failed, using rectangular fallback: %v", err),
			}
			return piece, pp, warn, nil
		}
		piece.Image = compositePiece(src, mask, pp.bounds)
		return piece, pp, nil, nil
	}

	img, err := renderPiece(src, pp)
	if err != nil {
		return Piece{}, nil, nil, fmt.Errorf("piece %d: %w", id, err)
	}
	piece.Image = img
	return piece, pp, nil, nil
}

// toRGBA converts any decoded image to a zero-origin RGBA, without copying
// when the input already is one. Piece paths address pixels from (0,0).
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
