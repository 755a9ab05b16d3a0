package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// ErrAllConvertersFailed is returned when every converter in the chain
// failed for a piece. The caller degrades that piece to a plain rectangle.
var ErrAllConvertersFailed = errors.New("all SVG converters failed")

// defaultConvertTimeout bounds a single external conversion attempt.
const defaultConvertTimeout = 10 * time.Second

// SVGConverter turns an SVG outline document into a raster image of the
// given size. Converters are tried in order; the first success wins.
type SVGConverter interface {
	Name() string
	Convert(ctx context.Context, svg []byte, width, height int) (image.Image, error)
}

// defaultConverters is the standard chain: the in-process oksvg renderer,
// then the rsvg-convert and inkscape command line tools if installed.
func defaultConverters(timeout time.Duration) []SVGConverter {
	if timeout <= 0 {
		timeout = defaultConvertTimeout
	}
	return []SVGConverter{
		oksvgConverter{},
		execConverter{
			name:    "rsvg-convert",
			timeout: timeout,
			argv: func(in, out string, w, h int) []string {
				return []string{"rsvg-convert", "-w", fmt.Sprint(w), "-h", fmt.Sprint(h), "-o", out, in}
			},
		},
		execConverter{
			name:    "inkscape",
			timeout: timeout,
			argv: func(in, out string, w, h int) []string {
				return []string{"inkscape", in,
					fmt.Sprintf("--export-width=%d", w),
					fmt.Sprintf("--export-height=%d", h),
					fmt.Sprintf("--export-filename=%s", out)}
			},
		},
	}
}

// convertSVG runs the chain and returns the first successful raster along
// with the winning converter's name.
func convertSVG(ctx context.Context, chain []SVGConverter, svg []byte, width, height int) (image.Image, string, error) {
	var errs []error
	for _, c := range chain {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		img, err := c.Convert(ctx, svg, width, height)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		return img, c.Name(), nil
	}
	return nil, "", fmt.Errorf("%w: %w", ErrAllConvertersFailed, errors.Join(errs...))
}

// oksvgConverter renders SVG in-process with oksvg/rasterx.
type oksvgConverter struct{}

func (oksvgConverter) Name() string { return "oksvg" }

func (oksvgConverter) Convert(_ context.Context, svg []byte, width, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	// oksvg parses leniently and yields an empty icon for non-SVG input;
	// rendering that would hand the chain a blank mask as a success.
	if len(icon.SVGPaths) == 0 {
		return nil, fmt.Errorf("no drawable paths in svg")
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1.0)
	return img, nil
}

// execConverter shells out to an external SVG rasterizer. A timeout is
// treated like any other converter failure so the chain can advance.
type execConverter struct {
	name    string
	timeout time.Duration
	argv    func(in, out string, w, h int) []string
}

func (c execConverter) Name() string { return c.name }

func (c execConverter) Convert(ctx context.Context, svg []byte, width, height int) (image.Image, error) {
	dir, err := os.MkdirTemp("", "tessellate-svg-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "piece.svg")
	out := filepath.Join(dir, "piece.png")
	if err := os.WriteFile(in, svg, 0o600); err != nil {
		return nil, fmt.Errorf("write svg: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	argv := c.argv(in, out, width, height)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("run %s: %w (%s)", argv[0], err, bytes.TrimSpace(output))
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return img, nil
}
