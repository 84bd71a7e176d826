// Package render draws generated handwriting as path commands, SVG, PNG
// and PDF.
package render

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/inkstone/handsynth/stroke"
)

// Options controls the output of every renderer.
type Options struct {
	// Width and Height of the canvas. Zero fits the drawing plus Margin.
	Width  float64
	Height float64
	Margin float64
	// StrokeWidth is the pen width in output units.
	StrokeWidth float64
	// Color is the ink color as #rrggbb.
	Color string
	// Background is the canvas color as #rrggbb, empty for transparent
	// SVG and white PNG/PDF.
	Background string
	// Thumbnail scales PNG output to this width when positive.
	Thumbnail int
}

// DefaultOptions returns black ink on a fitted canvas.
func DefaultOptions() Options {
	return Options{Margin: 20, StrokeWidth: 2, Color: "#000000"}
}

// layout maps capture coordinates onto the canvas.
type layout struct {
	dx, dy        float64
	width, height float64
}

func newLayout(points []stroke.Point, opts Options) layout {
	minX, minY, maxX, maxY, ok := stroke.Bounds(points)
	if !ok {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}
	l := layout{
		dx:     opts.Margin - minX,
		dy:     opts.Margin - minY,
		width:  opts.Width,
		height: opts.Height,
	}
	if l.width <= 0 {
		l.width = maxX - minX + 2*opts.Margin
	}
	if l.height <= 0 {
		l.height = maxY - minY + 2*opts.Margin
	}
	if l.width < 1 {
		l.width = 1
	}
	if l.height < 1 {
		l.height = 1
	}
	return l
}

func (l layout) apply(p stroke.Point) (float64, float64) {
	return p.X + l.dx, p.Y + l.dy
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Paths returns one "M x y L x y ..." command per stroke of points.
func Paths(points []stroke.Point) []string {
	var paths []string
	for _, s := range stroke.Split(points) {
		var b strings.Builder
		for i, p := range s {
			if i == 0 {
				b.WriteString("M ")
			} else {
				b.WriteString(" L ")
			}
			b.WriteString(format(p.X))
			b.WriteByte(' ')
			b.WriteString(format(p.Y))
		}
		paths = append(paths, b.String())
	}
	return paths
}

// Strokes writes one "x,y,pen" line per point, pen being 1 where the pen
// lifts after the point.
func Strokes(w io.Writer, points []stroke.Point) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		fmt.Fprintf(bw, "%s,%s,%d\n", format(p.X), format(p.Y), int(p.Pen.Channel()))
	}
	return bw.Flush()
}

// parseColor reads #rrggbb or #rgb.
func parseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func (o Options) ink() (color.RGBA, error) {
	if o.Color == "" {
		return color.RGBA{A: 0xff}, nil
	}
	return parseColor(o.Color)
}

func (o Options) paper() (color.RGBA, error) {
	if o.Background == "" {
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	}
	return parseColor(o.Background)
}

func (o Options) width() float64 {
	if o.StrokeWidth <= 0 {
		return 2
	}
	return o.StrokeWidth
}

// Formats lists the output formats of Write.
var Formats = []string{"svg", "png", "pdf", "txt"}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch format {
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "pdf":
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// Write renders points in the named format.
func Write(w io.Writer, format string, points []stroke.Point, opts Options) error {
	switch format {
	case "svg":
		return SVG(w, points, opts)
	case "png":
		return PNG(w, points, opts)
	case "pdf":
		return PDF(w, points, opts)
	case "txt":
		return Strokes(w, points)
	}
	return fmt.Errorf("unknown format %q, want one of %s", format, strings.Join(Formats, ", "))
}
