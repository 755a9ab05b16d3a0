package main

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"math"
)

// ErrEdgeMismatch means two pieces resolved a shared edge differently. This
// indicates a consistency bug and is fatal: shipping it would produce visibly
// mismatched pieces.
var ErrEdgeMismatch = errors.New("shared edge resolved differently by adjacent pieces")

type point struct {
	x, y float64
}

// piecePath is the closed boundary of one piece in absolute source-image
// pixel coordinates, traced clockwise. The final closing segment back to
// points[0] is implicit.
type piecePath struct {
	points []point
	bounds image.Rectangle
	curved bool // at least one side carries a tab or socket

	// edgeHashes records, per shared edge, a hash of the absolute polyline
	// this piece observed. The orchestrator compares the hashes recorded by
	// the two adjacent pieces to detect consistency bugs.
	edgeHashes map[edgeKey]uint64
}

// edgeAbsPoints denormalizes an internal edge's shape into absolute pixel
// coordinates, always in the canonical direction: left to right for
// horizontal edges, top to bottom for vertical ones. Both adjacent pieces
// call this with identical inputs and therefore observe the identical
// polyline; this is what makes tab and socket bit-for-bit complementary.
func edgeAbsPoints(g Grid, k edgeKey, e Edge) []point {
	ampPx := e.shape.amp * math.Min(g.CellWidth(), g.CellHeight())
	sign := -1.0
	if e.polarity {
		sign = 1.0 // protrude down (horizontal) or right (vertical)
	}

	pts := make([]point, len(e.shape.points))
	switch k.orient {
	case horizontal:
		y := float64(g.YAt(k.row + 1))
		x0 := float64(g.XAt(k.col))
		x1 := float64(g.XAt(k.col + 1))
		for i, p := range e.shape.points {
			pts[i] = point{x0 + p.t*(x1-x0), y + p.u*ampPx*sign}
		}
	case vertical:
		x := float64(g.XAt(k.col + 1))
		y0 := float64(g.YAt(k.row))
		y1 := float64(g.YAt(k.row + 1))
		for i, p := range e.shape.points {
			pts[i] = point{x + p.u*ampPx*sign, y0 + p.t*(y1-y0)}
		}
	}
	return pts
}

// hashPoints fingerprints an absolute polyline.
func hashPoints(pts []point) uint64 {
	h := fnv.New64a()
	var buf [16]byte
	for _, p := range pts {
		putFloat64(buf[0:8], p.x)
		putFloat64(buf[8:16], p.y)
		h.Write(buf[:])
	}
	return h.Sum64()
}

func putFloat64(b []byte, f float64) {
	bits := math.Float64bits(f)
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * i))
	}
}

// buildPiecePath assembles the closed boundary of cell (row, col) from its
// four sides, walking clockwise: top, right, bottom, left. Border sides are
// straight segments; internal sides reuse the shared edge from the table,
// reversed when the walk direction opposes the edge's canonical direction.
func buildPiecePath(g Grid, table *EdgeTable, row, col int) *piecePath {
	tl := point{float64(g.XAt(col)), float64(g.YAt(row))}
	tr := point{float64(g.XAt(col + 1)), float64(g.YAt(row))}
	br := point{float64(g.XAt(col + 1)), float64(g.YAt(row + 1))}
	bl := point{float64(g.XAt(col)), float64(g.YAt(row + 1))}

	pp := &piecePath{edgeHashes: make(map[edgeKey]uint64, 4)}

	appendPts := func(pts []point) {
		// Drop the junction point shared with the previous side.
		if n := len(pp.points); n > 0 && pp.points[n-1] == pts[0] {
			pts = pts[1:]
		}
		pp.points = append(pp.points, pts...)
	}
	side := func(k edgeKey, from, to point, reverse bool) {
		e, ok := table.Lookup(k)
		if !ok {
			appendPts([]point{from, to})
			return
		}
		abs := edgeAbsPoints(g, k, e)
		pp.edgeHashes[k] = hashPoints(abs)
		pp.curved = true
		if reverse {
			rev := make([]point, len(abs))
			for i, p := range abs {
				rev[len(abs)-1-i] = p
			}
			abs = rev
		}
		appendPts(abs)
	}

	side(edgeKey{horizontal, row - 1, col}, tl, tr, false) // top
	side(edgeKey{vertical, row, col}, tr, br, false)       // right
	side(edgeKey{horizontal, row, col}, br, bl, true)      // bottom
	side(edgeKey{vertical, row, col - 1}, bl, tl, true)    // left

	// The left side ends back at the top-left corner; the closing segment
	// is implicit.
	if n := len(pp.points); n > 1 && pp.points[n-1] == pp.points[0] {
		pp.points = pp.points[:n-1]
	}

	pp.bounds = pathBounds(pp.points)
	return pp
}

// pathBounds returns the integer rectangle containing every point, padded by
// one pixel on each side. The pad keeps the path off the mask canvas edge:
// when a path extreme is exactly integral (a geometric tab peak on an
// integral amplitude, say) a path touching the last scanline bleeds a fully
// opaque row outside the boundary.
func pathBounds(pts []point) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.x)
		minY = math.Min(minY, p.y)
		maxX = math.Max(maxX, p.x)
		maxY = math.Max(maxY, p.y)
	}
	return image.Rect(
		int(math.Floor(minX))-1, int(math.Floor(minY))-1,
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	)
}

// checkEdgeConsistency verifies that every shared edge was observed with the
// same absolute polyline by both adjacent pieces. paths is indexed by piece
// ID in row-major order.
func checkEdgeConsistency(paths []*piecePath) error {
	seen := make(map[edgeKey]uint64, len(paths)*2)
	for id, pp := range paths {
		if pp == nil {
			continue
		}
		for k, h := range pp.edgeHashes {
			if prev, ok := seen[k]; ok && prev != h {
				return fmt.Errorf("%w: edge %s near piece %d", ErrEdgeMismatch, k, id)
			}
			seen[k] = h
		}
	}
	return nil
}
