package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/inkstone/handsynth/stroke"
)

// SVG writes points as an SVG document with one path per stroke.
func SVG(w io.Writer, points []stroke.Point, opts Options) error {
	ink, err := opts.ink()
	if err != nil {
		return err
	}
	l := newLayout(points, opts)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		format(l.width), format(l.height), format(l.width), format(l.height))
	if opts.Background != "" {
		paper, err := opts.paper()
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="#%02x%02x%02x"/>`+"\n", paper.R, paper.G, paper.B)
	}

	moved := stroke.Translate(points, l.dx, l.dy)
	for _, d := range Paths(moved) {
		fmt.Fprintf(bw, `<path d="%s" fill="none" stroke="#%02x%02x%02x" stroke-width="%s" stroke-linecap="round" stroke-linejoin="round"/>`+"\n",
			html.EscapeString(d), ink.R, ink.G, ink.B, format(opts.width()))
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// SVGString is SVG into a string.
func SVGString(points []stroke.Point, opts Options) (string, error) {
	var b strings.Builder
	if err := SVG(&b, points, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}
