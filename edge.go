package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrDegenerateEdge indicates the generator produced an unusable curve for an
// edge, which aborts the whole cutting attempt.
var ErrDegenerateEdge = errors.New("degenerate edge shape")

type orientation uint8

const (
	horizontal orientation = iota // separates (row,col) from (row+1,col)
	vertical                      // separates (row,col) from (row,col+1)
)

func (o orientation) String() string {
	if o == horizontal {
		return "h"
	}
	return "v"
}

// edgeKey identifies an internal edge by orientation and owning cell.
type edgeKey struct {
	orient   orientation
	row, col int
}

func (k edgeKey) String() string {
	return fmt.Sprintf("%s_%d_%d", k.orient, k.row, k.col)
}

// edgePoint is a vertex of an edge polyline in the normalized edge frame:
// t runs 0..1 along the edge, u is the perpendicular offset in units of the
// tab amplitude (positive u = the protrusion side).
type edgePoint struct {
	t, u float64
}

// EdgeShape is the parametric description of one edge's cut line: a polyline
// from (0,0) to (1,0) in the normalized frame, plus the tab amplitude as a
// fraction of the smaller cell dimension.
type EdgeShape struct {
	points []edgePoint
	amp    float64
}

// maxU bounds how far any point may protrude, in amplitude units. The classic
// tab head peaks at 1.15.
const maxU = 1.2

// Edge is one resolved internal edge: its shape plus which adjacent cell
// receives the tab. Polarity true means the protrusion points toward the
// canonical positive side (down for horizontal edges, right for vertical).
type Edge struct {
	shape    EdgeShape
	polarity bool
}

// EdgeTable holds every internal edge of a grid. It is built completely
// before any piece is assembled and is immutable afterwards, so phase-2
// workers share it without locking.
type EdgeTable struct {
	grid  Grid
	style CuttingStyle
	edges map[edgeKey]Edge
}

// edgeRand returns the deterministic RNG for one edge. stream separates the
// shape draw (0) from the polarity coin (1) so the shape generator stays a
// pure function of (orientation, row, col, style, seed).
func edgeRand(orient orientation, row, col int, seed, stream uint64) *rand.Rand {
	key := uint64(orient)<<48 | uint64(uint16(row))<<32 | uint64(uint32(col))<<2 | stream
	return rand.New(rand.NewPCG(seed, key))
}

// edgeShape generates the curve for one internal edge. Identical inputs
// always produce identical output.
func edgeShape(orient orientation, row, col int, style CuttingStyle, seed uint64, tabScale float64) (EdgeShape, error) {
	if tabScale <= 0 || tabScale > 0.35 {
		return EdgeShape{}, fmt.Errorf("%w: tab scale %.3f out of range", ErrDegenerateEdge, tabScale)
	}
	r := edgeRand(orient, row, col, seed, 0)

	var pts []edgePoint
	switch style {
	case StyleClassic:
		pts = classicEdge(r)
	case StyleGeometric:
		pts = geometricEdge(r)
	case StyleOrganic:
		pts = organicEdge(r)
	default:
		return EdgeShape{}, fmt.Errorf("%w: style %q", ErrDegenerateEdge, style)
	}

	shape := EdgeShape{points: pts, amp: tabScale}
	if err := shape.validate(); err != nil {
		return EdgeShape{}, fmt.Errorf("edge %s_%d_%d: %w", orient, row, col, err)
	}
	return shape, nil
}

// classicEdge builds the traditional jigsaw tab: straight lead-in, a narrow
// neck and a round head peaking at 1.15x the amplitude. The tab center is
// shifted by up to 5% of the edge length.
func classicEdge(r *rand.Rand) []edgePoint {
	m := 0.5 + (r.Float64()-0.5)*0.1 // tab center
	s := 0.3 * m                     // lead-in length
	return []edgePoint{
		{0, 0},
		{s, 0},
		{s + 0.05, 0.1},
		{s + 0.08, 0.3},
		{s + 0.10, 0.6},
		{m - 0.16, 0.9},
		{m - 0.12, 1.0},
		{m - 0.07, 1.1},
		{m, 1.15},
		{m + 0.07, 1.1},
		{m + 0.12, 1.0},
		{m + 0.16, 0.9},
		{1 - s - 0.10, 0.6},
		{1 - s - 0.08, 0.3},
		{1 - s - 0.05, 0.1},
		{1 - s, 0},
		{1, 0},
	}
}

// geometricEdge builds an angular trapezoid tab from straight segments with
// jittered breakpoints.
func geometricEdge(r *rand.Rand) []edgePoint {
	jitter := func(w float64) float64 { return (r.Float64() - 0.5) * w }
	b1 := 0.30 + jitter(0.06)
	b2 := 0.70 + jitter(0.06)
	hw := 0.10 + jitter(0.04) // half-width of the flat top
	return []edgePoint{
		{0, 0},
		{b1, 0},
		{0.5 - hw, 1},
		{0.5 + hw, 1},
		{b2, 0},
		{1, 0},
	}
}

// organicEdgeSteps is the sample count for organic wave edges.
const organicEdgeSteps = 24

// organicEdge builds a full sine wave with a low-amplitude jitter harmonic.
// The jitter is windowed by sin(pi*t) so the endpoints stay on the grid line.
func organicEdge(r *rand.Rand) []edgePoint {
	phase := r.Float64() * 2 * math.Pi
	jmag := 0.05 + r.Float64()*0.10
	pts := make([]edgePoint, 0, organicEdgeSteps+1)
	for i := 0; i <= organicEdgeSteps; i++ {
		t := float64(i) / organicEdgeSteps
		u := 0.7*math.Sin(2*math.Pi*t) + jmag*math.Sin(6*math.Pi*t+phase)*math.Sin(math.Pi*t)
		if i == 0 || i == organicEdgeSteps {
			u = 0
		}
		pts = append(pts, edgePoint{t, u})
	}
	return pts
}

// validate rejects degenerate shapes: the polyline must run monotonically
// from (0,0) to (1,0) and stay within the amplitude bound.
func (s EdgeShape) validate() error {
	if len(s.points) < 2 {
		return fmt.Errorf("%w: only %d points", ErrDegenerateEdge, len(s.points))
	}
	first, last := s.points[0], s.points[len(s.points)-1]
	if first.t != 0 || first.u != 0 || last.t != 1 || last.u != 0 {
		return fmt.Errorf("%w: endpoints (%g,%g)..(%g,%g)", ErrDegenerateEdge,
			first.t, first.u, last.t, last.u)
	}
	prev := -1.0
	for _, p := range s.points {
		if p.t < 0 || p.t > 1 || p.t < prev {
			return fmt.Errorf("%w: t=%g not monotone in [0,1]", ErrDegenerateEdge, p.t)
		}
		if math.Abs(p.u) > maxU {
			return fmt.Errorf("%w: u=%g exceeds bound %g", ErrDegenerateEdge, p.u, maxU)
		}
		prev = p.t
	}
	return nil
}

// buildEdgeTable resolves every internal edge of the grid: one shape and one
// fair polarity coin per edge. This must run to completion before any piece
// path is assembled; two neighboring pieces then read the same resolved edge.
func buildEdgeTable(grid Grid, style CuttingStyle, seed uint64, tabScale float64) (*EdgeTable, error) {
	t := &EdgeTable{
		grid:  grid,
		style: style,
		edges: make(map[edgeKey]Edge, grid.Rows*(grid.Cols-1)+(grid.Rows-1)*grid.Cols),
	}

	add := func(k edgeKey) error {
		shape, err := edgeShape(k.orient, k.row, k.col, style, seed, tabScale)
		if err != nil {
			return err
		}
		coin := edgeRand(k.orient, k.row, k.col, seed, 1)
		t.edges[k] = Edge{shape: shape, polarity: coin.IntN(2) == 0}
		return nil
	}

	// Horizontal edges between row and row+1.
	for row := 0; row < grid.Rows-1; row++ {
		for col := 0; col < grid.Cols; col++ {
			if err := add(edgeKey{horizontal, row, col}); err != nil {
				return nil, err
			}
		}
	}
	// Vertical edges between col and col+1.
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols-1; col++ {
			if err := add(edgeKey{vertical, row, col}); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// Lookup returns the resolved edge for a key, or false for border edges.
func (t *EdgeTable) Lookup(k edgeKey) (Edge, bool) {
	e, ok := t.edges[k]
	return e, ok
}

// Len returns the number of internal edges.
func (t *EdgeTable) Len() int { return len(t.edges) }
