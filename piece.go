package main

import (
	"fmt"
	"image"
)

// CuttingStyle selects the curve family used for piece edges.
type CuttingStyle string

const (
	StyleClassic   CuttingStyle = "classic"
	StyleGeometric CuttingStyle = "geometric"
	StyleOrganic   CuttingStyle = "organic"
)

// ParseCuttingStyle validates a style name from a flag or API request.
func ParseCuttingStyle(s string) (CuttingStyle, error) {
	switch CuttingStyle(s) {
	case StyleClassic, StyleGeometric, StyleOrganic:
		return CuttingStyle(s), nil
	}
	return "", fmt.Errorf("unknown cutting style %q (want classic, geometric or organic)", s)
}

// Piece is one rasterized puzzle piece. Bounds is the piece's bounding box in
// source-image pixel space (large enough for tab protrusions); X,Y is the
// nominal top-left of the piece's cell, used to lay out a solved puzzle.
type Piece struct {
	ID       int
	Row, Col int
	X, Y     int
	Bounds   image.Rectangle
	Image    *image.RGBA
	Degraded bool
}

// PieceInfo is the manifest record for a single piece.
type PieceInfo struct {
	ID       int  `json:"id"`
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Degraded bool `json:"degraded,omitempty"`
}

// Manifest describes a cut puzzle for downstream consumers.
type Manifest struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Grid   [2]int      `json:"grid"` // rows, cols
	Pieces []PieceInfo `json:"pieces"`
}

// Warning is a non-fatal per-piece problem, e.g. a degraded classic piece.
type Warning struct {
	PieceID int    `json:"piece_id"`
	Message string `json:"message"`
}

// CutResult is the output of a cutting run.
type CutResult struct {
	Pieces   []Piece
	Manifest Manifest
	Warnings []Warning
}
