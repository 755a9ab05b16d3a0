package main

import (
	"errors"
	"image"
	"testing"
)

func TestSingleCellPathIsRectangle(t *testing.T) {
	g, _ := NewGrid(1, 1, 100, 80)
	table, _ := buildEdgeTable(g, StyleClassic, 1, 0.25)

	pp := buildPiecePath(g, table, 0, 0)
	if pp.curved {
		t.Fatal("single cell has no internal edges, path should not be curved")
	}
	if len(pp.points) != 4 {
		t.Fatalf("expected 4 corner points, got %d", len(pp.points))
	}
	if pp.bounds != image.Rect(-1, -1, 101, 81) {
		t.Fatalf("expected the cell plus a 1px pad, got %v", pp.bounds)
	}
	if len(pp.edgeHashes) != 0 {
		t.Fatalf("expected no edge hashes, got %d", len(pp.edgeHashes))
	}
}

func TestNeighborsShareEdgeExactly(t *testing.T) {
	g, _ := NewGrid(2, 2, 200, 200)
	for _, style := range []CuttingStyle{StyleClassic, StyleGeometric, StyleOrganic} {
		table, err := buildEdgeTable(g, style, 7, 0.25)
		if err != nil {
			t.Fatal(err)
		}

		paths := make([]*piecePath, 4)
		for row := 0; row < 2; row++ {
			for col := 0; col < 2; col++ {
				paths[g.PieceID(row, col)] = buildPiecePath(g, table, row, col)
			}
		}

		// Every internal edge appears in exactly two paths with equal hashes.
		seen := make(map[edgeKey][]uint64)
		for _, pp := range paths {
			for k, h := range pp.edgeHashes {
				seen[k] = append(seen[k], h)
			}
		}
		if len(seen) != 4 {
			t.Fatalf("%s: expected 4 internal edges, got %d", style, len(seen))
		}
		for k, hashes := range seen {
			if len(hashes) != 2 {
				t.Fatalf("%s: edge %s observed by %d pieces, want 2", style, k, len(hashes))
			}
			if hashes[0] != hashes[1] {
				t.Fatalf("%s: edge %s seen differently by its two pieces", style, k)
			}
		}

		if err := checkEdgeConsistency(paths); err != nil {
			t.Fatalf("%s: %v", style, err)
		}
	}
}

func TestPathIsClosedAndClockwise(t *testing.T) {
	g, _ := NewGrid(3, 3, 300, 300)
	table, _ := buildEdgeTable(g, StyleClassic, 11, 0.25)

	pp := buildPiecePath(g, table, 1, 1)
	if !pp.curved {
		t.Fatal("interior piece must have curved sides")
	}

	// The first point is the top-left corner; the last point must not repeat
	// it (the closing segment is implicit).
	first := pp.points[0]
	last := pp.points[len(pp.points)-1]
	if first != (point{float64(g.XAt(1)), float64(g.YAt(1))}) {
		t.Fatalf("path does not start at the top-left corner: %v", first)
	}
	if last == first {
		t.Fatal("closing point should be implicit, not duplicated")
	}

	// Shoelace: positive area in image coordinates (y down) means clockwise.
	var area float64
	for i, p := range pp.points {
		q := pp.points[(i+1)%len(pp.points)]
		area += p.x*q.y - q.x*p.y
	}
	if area <= 0 {
		t.Fatalf("expected clockwise winding, shoelace sum %g", area)
	}
}

func TestPathBoundsContainTabs(t *testing.T) {
	g, _ := NewGrid(3, 3, 300, 300)
	table, _ := buildEdgeTable(g, StyleClassic, 3, 0.25)

	pp := buildPiecePath(g, table, 1, 1)
	cell := g.CellRect(1, 1)
	if !cell.In(pp.bounds) {
		t.Fatalf("bounds %v do not contain the cell %v", pp.bounds, cell)
	}

	// Tabs may extend at most maxU amplitude units beyond the cell.
	margin := int(0.25*100*maxU) + 1
	limit := cell.Inset(-margin)
	if !pp.bounds.In(limit) {
		t.Fatalf("bounds %v exceed the tab margin %v", pp.bounds, limit)
	}

	for _, p := range pp.points {
		if !image.Pt(int(p.x), int(p.y)).In(pp.bounds.Inset(-1)) {
			t.Fatalf("point %v outside bounds %v", p, pp.bounds)
		}
	}
}

func TestPathDeterministic(t *testing.T) {
	g, _ := NewGrid(4, 4, 400, 400)
	t1, _ := buildEdgeTable(g, StyleOrganic, 123, 0.25)
	t2, _ := buildEdgeTable(g, StyleOrganic, 123, 0.25)

	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			a := buildPiecePath(g, t1, row, col)
			b := buildPiecePath(g, t2, row, col)
			if len(a.points) != len(b.points) {
				t.Fatalf("piece (%d,%d): point counts differ", row, col)
			}
			for i := range a.points {
				if a.points[i] != b.points[i] {
					t.Fatalf("piece (%d,%d): point %d differs", row, col, i)
				}
			}
		}
	}
}

func TestCheckEdgeConsistencyDetectsMismatch(t *testing.T) {
	k := edgeKey{horizontal, 0, 0}
	paths := []*piecePath{
		{edgeHashes: map[edgeKey]uint64{k: 1}},
		{edgeHashes: map[edgeKey]uint64{k: 2}},
	}
	if err := checkEdgeConsistency(paths); !errors.Is(err, ErrEdgeMismatch) {
		t.Fatalf("expected ErrEdgeMismatch, got %v", err)
	}

	paths[1].edgeHashes[k] = 1
	if err := checkEdgeConsistency(paths); err != nil {
		t.Fatalf("unexpected error for matching hashes: %v", err)
	}

	// Nil entries (pieces not yet cut) are skipped.
	if err := checkEdgeConsistency([]*piecePath{nil, paths[0]}); err != nil {
		t.Fatalf("unexpected error with nil path: %v", err)
	}
}
