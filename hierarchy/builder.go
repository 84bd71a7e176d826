package hierarchy

import (
	"github.com/google/uuid"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/segment"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/vocab"
)

const (
	// DefaultDivider scales x,y offsets before they reach the model.
	DefaultDivider = 5.0
	// DefaultPredictionOffset anchors the first delta at the baseline.
	DefaultPredictionOffset = 1

	// MetaMergedTerm is set on samples whose last character has a single
	// point. Its end flag and the previous character's share the last term
	// slot, so the sentence term counts one character less.
	MetaMergedTerm = "merged_term"
)

// Options controls how samples are built.
type Options struct {
	Divider float64
	// PredictionOffset 1 anchors at the baseline, 0 at the first point.
	// 0 is a valid encoding, so the zero Options build self-anchored
	// samples; use DefaultOptions for the baseline anchor.
	PredictionOffset int
	WriterID         string
	SampleID         string
	Meta             map[string]string
}

// DefaultOptions returns the options used for the reference datasets.
func DefaultOptions() Options {
	return Options{
		Divider:          DefaultDivider,
		PredictionOffset: DefaultPredictionOffset,
	}
}

// Builder turns segmented captures into samples.
type Builder struct {
	vocab *vocab.Vocabulary
	seg   *segment.Segmenter
	opts  Options
}

// NewBuilder returns a Builder. A non-positive divider falls back to
// DefaultDivider. PredictionOffset is used as given.
func NewBuilder(v *vocab.Vocabulary, opts Options) *Builder {
	if opts.Divider <= 0 {
		opts.Divider = DefaultDivider
	}
	return &Builder{
		vocab: v,
		seg:   segment.New(v),
		opts:  opts,
	}
}

// Build segments points by labels and encodes every unit at the three
// levels. Input errors are errs.Validation errors.
func (b *Builder) Build(text string, points []stroke.Point, labels segment.LabelMatrix) (*Sample, error) {
	const op = "hierarchy.Build"

	if b.opts.PredictionOffset != 0 && b.opts.PredictionOffset != 1 {
		return nil, errs.Errorf(errs.Validation, op, "prediction offset %d, want 0 or 1", b.opts.PredictionOffset)
	}

	res, err := b.seg.Segment(text, points, labels)
	if err != nil {
		return nil, err
	}

	sampleID := b.opts.SampleID
	if sampleID == "" {
		sampleID = uuid.New().String()
	}

	s := &Sample{
		Version:          Version,
		WriterID:         b.opts.WriterID,
		SampleID:         sampleID,
		Text:             text,
		Divider:          b.opts.Divider,
		PredictionOffset: b.opts.PredictionOffset,
		Meta:             copyMeta(b.opts.Meta),
	}

	s.Sentence = b.unit(text, res.Points, res.CharIndex, res.Term)
	if n := len(res.Term); n >= 2 && res.Term[n-2] == 1 && res.Owner[n-1] >= 0 {
		log.Warning.Printf("sample %s/%s: last character has one point, its end flag merges with the previous one", s.WriterID, sampleID)
		if s.Meta == nil {
			s.Meta = map[string]string{}
		}
		s.Meta[MetaMergedTerm] = "1"
	}

	for _, w := range res.Words {
		s.Words = append(s.Words, b.unit(w.Text, res.Select(w.Points), res.SelectChars(w.Points), segment.UnitTerm(len(w.Points))))

		chars := make([]Unit, 0, len(w.Chars))
		for _, c := range w.Chars {
			chars = append(chars, b.unit(string(c.Rune), res.Select(c.Points), res.SelectChars(c.Points), segment.UnitTerm(len(c.Points))))
		}
		s.Segments = append(s.Segments, chars)
	}

	if d := s.Degenerates(); len(d) > 0 {
		log.Warning.Printf("sample %s/%s: %d placeholder units", s.WriterID, s.SampleID, len(d))
	}
	log.Trace.Printf("built sample %s/%s %q: %d points, %d words", s.WriterID, s.SampleID, text, len(points), len(s.Words))

	return s, nil
}

// unit encodes one run of points. raw, chars and term are aligned per point.
func (b *Builder) unit(text string, raw []stroke.Point, chars []int, term []float64) Unit {
	if len(raw) <= 1 {
		log.Warning.Printf("unit %q has %d points, using placeholder", text, len(raw))
		idx := 0
		if len(chars) > 0 {
			idx = chars[0]
		} else if r := []rune(text); len(r) > 0 {
			idx = b.vocab.Index(r[0])
		}
		return Placeholder(text, idx)
	}

	raw = stroke.Translate(raw, -raw[0].X, 0)
	in, out := stroke.Encode(raw, b.opts.PredictionOffset)

	n := len(raw) - 1
	t := make([]float64, n)
	copy(t, term[:n])
	t[n-1] = 1

	c := make([]int, len(chars))
	copy(c, chars)

	return Unit{
		Text:      text,
		Raw:       raw,
		StrokeIn:  stroke.Normalize(in[1:], b.opts.Divider),
		StrokeOut: stroke.Normalize(out[1:], b.opts.Divider),
		Term:      t,
		Char:      c,
		Length:    len(raw),
	}
}

// Placeholder returns the fixed two-point unit substituted for units with
// fewer than two points. charIndex fills its character slots.
func Placeholder(text string, charIndex int) Unit {
	return Unit{
		Text: text,
		Raw: []stroke.Point{
			{X: 0, Y: 0, Pen: stroke.PenDown},
			{X: 0.1, Y: 0.1, Pen: stroke.PenUp},
		},
		StrokeIn:   []stroke.Offset{{X: 0, Y: 0, Pen: 0}},
		StrokeOut:  []stroke.Offset{{X: 0.1, Y: 0.1, Pen: 1}},
		Term:       []float64{1},
		Char:       []int{charIndex, charIndex},
		Length:     2,
		Degenerate: true,
	}
}

func copyMeta(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
