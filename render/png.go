package render

import (
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/nfnt/resize"
	"golang.org/x/image/vector"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/stroke"
)

// MaxSide bounds the width and height of a raster canvas in pixels.
const MaxSide = 8192

// Image rasterizes points onto an RGBA canvas. Canvases wider or taller
// than MaxSide are rejected with an errs.Validation error.
func Image(points []stroke.Point, opts Options) (image.Image, error) {
	ink, err := opts.ink()
	if err != nil {
		return nil, err
	}
	paper, err := opts.paper()
	if err != nil {
		return nil, err
	}

	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, errs.Errorf(errs.Validation, "render.Image", "point %d is not finite", i)
		}
	}
	l := newLayout(points, opts)
	if !(l.width <= MaxSide && l.height <= MaxSide) {
		return nil, errs.Errorf(errs.Validation, "render.Image", "canvas %.0fx%.0f exceeds %dx%d pixels", l.width, l.height, MaxSide, MaxSide)
	}
	w, h := int(math.Ceil(l.width)), int(math.Ceil(l.height))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)

	r := vector.NewRasterizer(w, h)
	half := opts.width() / 2
	for _, s := range stroke.Split(points) {
		if len(s) == 1 {
			x, y := l.apply(s[0])
			quad(r, x-half, y, x+half, y, half)
			continue
		}
		for i := 1; i < len(s); i++ {
			x0, y0 := l.apply(s[i-1])
			x1, y1 := l.apply(s[i])
			quad(r, x0, y0, x1, y1, half)
		}
	}
	r.Draw(dst, dst.Bounds(), image.NewUniform(ink), image.Point{})

	if opts.Thumbnail > 0 && opts.Thumbnail < w {
		return resize.Resize(uint(opts.Thumbnail), 0, dst, resize.Lanczos3), nil
	}
	return dst, nil
}

// quad adds the rectangle of half-width half around segment (x0,y0)-(x1,y1).
// Every quad has the same winding so overlaps add up instead of cancelling.
func quad(r *vector.Rasterizer, x0, y0, x1, y1, half float64) {
	dx, dy := x1-x0, y1-y0
	n := math.Hypot(dx, dy)
	if n == 0 {
		dx, dy, n = 1, 0, 1
		x0 -= half
		x1 += half
	}
	nx, ny := -dy/n*half, dx/n*half

	r.MoveTo(float32(x0+nx), float32(y0+ny))
	r.LineTo(float32(x1+nx), float32(y1+ny))
	r.LineTo(float32(x1-nx), float32(y1-ny))
	r.LineTo(float32(x0-nx), float32(y0-ny))
	r.ClosePath()
}

// PNG writes a rasterized preview of points.
func PNG(w io.Writer, points []stroke.Point, opts Options) error {
	img, err := Image(points, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
