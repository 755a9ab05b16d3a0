package main

import (
	"fmt"
	"strings"
)

// pieceSVG renders a piece outline as a minimal standalone SVG document,
// sized to the piece bounding box, with the boundary filled white on a
// transparent background. This is the vector intermediate the classic style
// hands to the converter chain; the converter output is used as the piece's
// alpha mask.
func pieceSVG(pp *piecePath) []byte {
	w, h := pp.bounds.Dx(), pp.bounds.Dy()
	ox := float64(pp.bounds.Min.X)
	oy := float64(pp.bounds.Min.Y)

	var d strings.Builder
	fmt.Fprintf(&d, "M %.3f %.3f", pp.points[0].x-ox, pp.points[0].y-oy)
	for _, p := range pp.points[1:] {
		fmt.Fprintf(&d, " L %.3f %.3f", p.x-ox, p.y-oy)
	}
	d.WriteString(" Z")

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, w, h, w, h)
	fmt.Fprintf(&b, `<path d="%s" fill="#ffffff" stroke="none"/>`, d.String())
	b.WriteString(`</svg>`)
	return []byte(b.String())
}
