package render

import (
	"io"

	"github.com/unidoc/unipdf/v3/contentstream"
	"github.com/unidoc/unipdf/v3/contentstream/draw"
	"github.com/unidoc/unipdf/v3/creator"

	"github.com/inkstone/handsynth/stroke"
)

// PDF writes points as vector strokes on a single page sized to the
// drawing. PDF space grows upwards, so y is flipped.
func PDF(w io.Writer, points []stroke.Point, opts Options) error {
	ink, err := opts.ink()
	if err != nil {
		return err
	}
	l := newLayout(points, opts)

	c := creator.New()
	c.SetPageSize(creator.PageSize{l.width, l.height})
	page := c.NewPage()

	contentCreator := contentstream.NewContentCreator()
	if opts.Background != "" {
		paper, err := opts.paper()
		if err != nil {
			return err
		}
		contentCreator.Add_q()
		contentCreator.Add_rg(float64(paper.R)/255, float64(paper.G)/255, float64(paper.B)/255)
		contentCreator.Add_re(0, 0, l.width, l.height)
		contentCreator.Add_f()
		contentCreator.Add_Q()
	}

	for _, s := range stroke.Split(points) {
		path := draw.NewPath()
		for _, p := range s {
			x, y := l.apply(p)
			path = path.AppendPoint(draw.NewPoint(x, l.height-y))
		}
		if len(s) == 1 {
			x, y := l.apply(s[0])
			path = path.AppendPoint(draw.NewPoint(x+0.1, l.height-y))
		}

		contentCreator.Add_q()
		contentCreator.Add_w(opts.width())
		contentCreator.Add_J("1")
		contentCreator.Add_RG(float64(ink.R)/255, float64(ink.G)/255, float64(ink.B)/255)

		draw.DrawPathWithCreator(path, contentCreator)

		contentCreator.Add_S()
		contentCreator.Add_Q()
	}

	ops := contentCreator.Operations()
	if err := page.AppendContentStream(string(ops.Bytes())); err != nil {
		return err
	}
	return c.Write(w)
}
