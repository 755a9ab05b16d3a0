package main

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/gogpu/gg"
)

// renderPiece rasterizes a piece boundary into an RGBA image the size of its
// bounding box: the path is filled as an anti-aliased alpha mask (non-zero
// winding rule; piece boundaries are simple loops, so even-odd would agree)
// and every covered pixel samples the source at the same absolute coordinate
// the path builder used. No shared state is touched, so pieces render in
// parallel.
func renderPiece(src *image.RGBA, pp *piecePath) (*image.RGBA, error) {
	mask, err := rasterizeMask(pp)
	if err != nil {
		return nil, err
	}
	return compositePiece(src, mask, pp.bounds), nil
}

// rasterizeMask fills the boundary path into a white-on-transparent mask
// sized to the piece bounding box.
func rasterizeMask(pp *piecePath) (image.Image, error) {
	w, h := pp.bounds.Dx(), pp.bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty piece bounds %v", pp.bounds)
	}
	ox := float64(pp.bounds.Min.X)
	oy := float64(pp.bounds.Min.Y)

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.SetFillRule(gg.FillRuleNonZero)
	dc.SetRGBA(1, 1, 1, 1)
	dc.MoveTo(pp.points[0].x-ox, pp.points[0].y-oy)
	for _, p := range pp.points[1:] {
		dc.LineTo(p.x-ox, p.y-oy)
	}
	dc.ClosePath()
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("fill piece mask: %w", err)
	}
	return dc.Image(), nil
}

// compositePiece copies source pixels through a coverage mask. The output is
// premultiplied RGBA: channel values are scaled by the mask alpha, so the
// boundary stays anti-aliased and everything outside the path is fully
// transparent.
func compositePiece(src *image.RGBA, mask image.Image, bounds image.Rectangle) *image.RGBA {
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	maskMin := mask.Bounds().Min

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, ma := mask.At(maskMin.X+x, maskMin.Y+y).RGBA()
			a := ma >> 8
			if a == 0 {
				continue
			}
			sx, sy := bounds.Min.X+x, bounds.Min.Y+y
			if !image.Pt(sx, sy).In(src.Bounds()) {
				continue
			}
			c := src.RGBAAt(sx, sy)
			o := out.PixOffset(x, y)
			out.Pix[o+0] = uint8(uint32(c.R) * a / 255)
			out.Pix[o+1] = uint8(uint32(c.G) * a / 255)
			out.Pix[o+2] = uint8(uint32(c.B) * a / 255)
			out.Pix[o+3] = uint8(a)
		}
	}
	return out
}

// renderRectPiece produces the degraded fallback: an opaque crop of the plain
// cell rectangle, with no tab or socket decoration.
func renderRectPiece(src *image.RGBA, rect image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), src, rect.Min, draw.Src)
	return out
}
