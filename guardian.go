package main

import (
	"image"
	"log"
	"math"
)

// QualityMetrics scores an image's suitability as a puzzle source. All values
// are on a 0-100 scale except ColorEntropy (0-10).
type QualityMetrics struct {
	EdgeDensity   float64 `json:"edge_density"`
	ColorEntropy  float64 `json:"color_entropy"`
	LocalContrast float64 `json:"local_contrast"`
	OverallScore  float64 `json:"overall_score"`
}

// PassesThreshold reports whether the overall score meets the cutoff.
func (m QualityMetrics) PassesThreshold(threshold float64) bool {
	return m.OverallScore >= threshold
}

// QualityGuardian gates generated images before cutting. Images dominated by
// flat color (skies, walls) make frustrating puzzles; the metrics reward
// edges, color variety and texture.
type QualityGuardian struct {
	Threshold float64
}

// Metric weights and floors, tuned alongside the default threshold of 30.
const (
	weightEdgeDensity   = 0.30
	weightColorEntropy  = 0.35
	weightLocalContrast = 0.35

	minEdgeDensity   = 3.0
	minColorEntropy  = 1.5
	minLocalContrast = 8.0

	uniformStdDev   = 5.0 // local std dev below this counts as uniform
	uniformMaxRatio = 0.4 // fraction of uniform pixels before penalizing
)

// Evaluate computes the quality metrics for an image.
func (g *QualityGuardian) Evaluate(img image.Image) QualityMetrics {
	gray, w, h := grayscale(img)

	edgeDensity := edgeDensity(gray, w, h)
	colorEntropy := colorEntropy(img)
	localContrast := localContrast(gray, w, h)

	if uniformAreaRatio(gray, w, h) > uniformMaxRatio {
		log.Printf("image has large uniform areas, reducing score")
		edgeDensity *= 0.7
		localContrast *= 0.7
	}

	overall := weightEdgeDensity*edgeDensity +
		weightColorEntropy*colorEntropy*10 + // entropy scaled to 0-100
		weightLocalContrast*localContrast
	overall = math.Max(0, math.Min(100, overall))

	return QualityMetrics{
		EdgeDensity:   edgeDensity,
		ColorEntropy:  colorEntropy,
		LocalContrast: localContrast,
		OverallScore:  overall,
	}
}

// FailureReasons explains why metrics fall short of their floors.
func (g *QualityGuardian) FailureReasons(m QualityMetrics) []string {
	var reasons []string
	if m.EdgeDensity < minEdgeDensity {
		reasons = append(reasons, "low edge density")
	}
	if m.ColorEntropy < minColorEntropy {
		reasons = append(reasons, "low color variety")
	}
	if m.LocalContrast < minLocalContrast {
		reasons = append(reasons, "low contrast")
	}
	if m.OverallScore < g.Threshold {
		reasons = append(reasons, "overall score below threshold")
	}
	return reasons
}

// grayscale flattens an image to float64 luma values in 0..255.
func grayscale(img image.Image) ([]float64, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// ITU-R BT.601 luma.
			out[y*w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 257
		}
	}
	return out, w, h
}

// edgeDensity returns the percentage of edge pixels: Gaussian blur, Sobel
// gradient, then an Otsu threshold over the gradient magnitudes.
func edgeDensity(gray []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}
	blurred := gaussianBlur5(gray, w, h)
	mag := sobelMagnitude(blurred, w, h)

	// Histogram of magnitudes clamped to 0..255 for Otsu.
	var hist [256]int
	for _, m := range mag {
		v := int(m)
		if v > 255 {
			v = 255
		}
		hist[v]++
	}
	threshold := otsu(hist[:], len(mag))

	edges := 0
	for _, m := range mag {
		if m >= float64(threshold) && m > 0 {
			edges++
		}
	}
	return float64(edges) / float64(len(mag)) * 100
}

// localContrast is twice the standard deviation of the Sobel gradient
// magnitude, clamped to 100.
func localContrast(gray []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}
	mag := sobelMagnitude(gray, w, h)
	var sum, sumSq float64
	for _, m := range mag {
		sum += m
		sumSq += m * m
	}
	n := float64(len(mag))
	variance := sumSq/n - (sum/n)*(sum/n)
	if variance < 0 {
		variance = 0
	}
	return math.Min(100, 2*math.Sqrt(variance))
}

// colorEntropy is the weighted Shannon entropy of 32-bin HSV channel
// histograms. Hue carries most weight: color variety matters more than
// brightness variety when pieces must be told apart.
func colorEntropy(img image.Image) float64 {
	const bins = 32
	var hHist, sHist, vHist [bins]float64
	b := img.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			hue, sat, val := rgbToHSV(float64(r)/65535, float64(g)/65535, float64(bl)/65535)
			hHist[binIndex(hue/360, bins)]++
			sHist[binIndex(sat, bins)]++
			vHist[binIndex(val, bins)]++
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return 0.5*entropy(hHist[:], n) + 0.25*entropy(sHist[:], n) + 0.25*entropy(vHist[:], n)
}

// uniformAreaRatio is the fraction of pixels whose 15x15 neighborhood has a
// standard deviation below uniformStdDev, computed with integral images.
func uniformAreaRatio(gray []float64, w, h int) float64 {
	if w == 0 || h == 0 {
		return 0
	}
	const half = 7 // 15x15 window
	sum := integralImage(gray, w, h, false)
	sumSq := integralImage(gray, w, h, true)

	uniform := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(0, x-half), max(0, y-half)
			x1, y1 := min(w-1, x+half), min(h-1, y+half)
			area := float64((x1 - x0 + 1) * (y1 - y0 + 1))
			s := boxSum(sum, w, x0, y0, x1, y1)
			sq := boxSum(sumSq, w, x0, y0, x1, y1)
			variance := sq/area - (s/area)*(s/area)
			if variance < 0 {
				variance = 0
			}
			if math.Sqrt(variance) < uniformStdDev {
				uniform++
			}
		}
	}
	return float64(uniform) / float64(w*h)
}

// gaussianBlur5 applies a separable 5-tap binomial kernel (1 4 6 4 1)/16.
func gaussianBlur5(src []float64, w, h int) []float64 {
	kernel := [5]float64{1, 4, 6, 4, 1}
	tmp := make([]float64, len(src))
	out := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc, wsum float64
			for k := -2; k <= 2; k++ {
				xx := x + k
				if xx < 0 || xx >= w {
					continue
				}
				acc += src[y*w+xx] * kernel[k+2]
				wsum += kernel[k+2]
			}
			tmp[y*w+x] = acc / wsum
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc, wsum float64
			for k := -2; k <= 2; k++ {
				yy := y + k
				if yy < 0 || yy >= h {
					continue
				}
				acc += tmp[yy*w+x] * kernel[k+2]
				wsum += kernel[k+2]
			}
			out[y*w+x] = acc / wsum
		}
	}
	return out
}

// sobelMagnitude computes gradient magnitudes with 3x3 Sobel kernels.
// Border pixels are left at zero.
func sobelMagnitude(gray []float64, w, h int) []float64 {
	out := make([]float64, len(gray))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			p := func(dx, dy int) float64 { return gray[(y+dy)*w+x+dx] }
			gx := -p(-1, -1) - 2*p(-1, 0) - p(-1, 1) + p(1, -1) + 2*p(1, 0) + p(1, 1)
			gy := -p(-1, -1) - 2*p(0, -1) - p(1, -1) + p(-1, 1) + 2*p(0, 1) + p(1, 1)
			out[y*w+x] = math.Hypot(gx, gy)
		}
	}
	return out
}

// otsu picks the threshold maximizing between-class variance. The maximizing
// bin is the last bin of the lower class; the returned threshold is one past
// it, so a value at the threshold or above belongs to the upper class.
func otsu(hist []int, total int) int {
	if total == 0 {
		return 0
	}
	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}
	var sumB, wB float64
	best, bestVar := 0, -1.0
	for i, c := range hist {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(c)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = i
		}
	}
	return best + 1
}

func entropy(hist []float64, total int) float64 {
	var e float64
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := c / float64(total)
		e -= p * math.Log(p)
	}
	return e
}

func binIndex(v float64, bins int) int {
	i := int(v * float64(bins))
	if i < 0 {
		return 0
	}
	if i >= bins {
		return bins - 1
	}
	return i
}

// rgbToHSV converts r,g,b in 0..1 to hue (degrees), saturation and value.
func rgbToHSV(r, g, b float64) (hue, sat, val float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	val = maxC
	d := maxC - minC
	if maxC > 0 {
		sat = d / maxC
	}
	if d == 0 {
		return 0, sat, val
	}
	switch maxC {
	case r:
		hue = 60 * math.Mod((g-b)/d, 6)
	case g:
		hue = 60 * ((b-r)/d + 2)
	default:
		hue = 60 * ((r-g)/d + 4)
	}
	if hue < 0 {
		hue += 360
	}
	return hue, sat, val
}

// integralImage builds a summed-area table (optionally of squared values)
// with one extra row/column of zeros.
func integralImage(src []float64, w, h int, squared bool) []float64 {
	out := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum float64
		for x := 0; x < w; x++ {
			v := src[y*w+x]
			if squared {
				v *= v
			}
			rowSum += v
			out[(y+1)*(w+1)+x+1] = out[y*(w+1)+x+1] + rowSum
		}
	}
	return out
}

// boxSum sums src over the inclusive box [x0,x1]x[y0,y1] via the integral
// image.
func boxSum(integral []float64, w, x0, y0, x1, y1 int) float64 {
	s := w + 1
	return integral[(y1+1)*s+x1+1] - integral[y0*s+x1+1] - integral[(y1+1)*s+x0] + integral[y0*s+x0]
}
