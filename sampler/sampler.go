// Package sampler drives a synthesis model autoregressively to turn text
// and a style embedding into pen trajectories.
package sampler

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/model"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/style"
	"github.com/inkstone/handsynth/vocab"
)

// Config controls generation.
type Config struct {
	// Bias sharpens the mixture: 0 samples the model as is, larger
	// values give neater, less varied handwriting.
	Bias float64 `yaml:"bias" json:"bias"`
	// MaxSteps caps the decode steps of one word.
	MaxSteps int `yaml:"max_steps" json:"max_steps"`
	// WordGap is the horizontal space between words, in capture units.
	WordGap float64 `yaml:"word_gap" json:"word_gap"`
	// Divider scales model offsets back to capture units.
	Divider float64 `yaml:"divider" json:"divider"`
}

// DefaultConfig returns the generation defaults.
func DefaultConfig() Config {
	return Config{Bias: 0.5, MaxSteps: 600, WordGap: 40, Divider: 5.0}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxSteps <= 0 {
		c.MaxSteps = d.MaxSteps
	}
	if c.Divider <= 0 {
		c.Divider = d.Divider
	}
	if c.WordGap < 0 {
		c.WordGap = 0
	}
	if c.Bias < 0 {
		c.Bias = 0
	}
	return c
}

// Word is one decoded word in absolute coordinates.
type Word struct {
	Text   string         `json:"text"`
	Points []stroke.Point `json:"points"`
	Steps  int            `json:"steps"`
	// Truncated is set when the word was longer than the model window.
	Truncated bool `json:"truncated,omitempty"`
	// Capped is set when decoding hit MaxSteps instead of ending.
	Capped bool `json:"capped,omitempty"`
}

// Result is a generated line of text.
type Result struct {
	Text   string         `json:"text"`
	Words  []Word         `json:"words"`
	Points []stroke.Point `json:"points"`
}

// Generator samples handwriting from a model. A Generator owns its random
// source and must not be shared between goroutines.
type Generator struct {
	model model.Model
	vocab *vocab.Vocabulary
	cfg   Config
	rng   *rand.Rand
}

// New returns a Generator. All randomness comes from rng.
func New(m model.Model, v *vocab.Vocabulary, cfg Config, rng *rand.Rand) *Generator {
	return &Generator{model: m, vocab: v, cfg: cfg.withDefaults(), rng: rng}
}

// Generate writes text word by word. Words are laid out left to right with
// a pen lift between them. A numeric failure aborts the whole request with
// an errs.Generation error.
func (g *Generator) Generate(ctx context.Context, text string, emb style.Embedding) (*Result, error) {
	const op = "sampler.Generate"

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, errs.Errorf(errs.Validation, op, "nothing to write")
	}
	if dim := g.model.Spec().StyleDim; len(emb) != dim {
		return nil, errs.Errorf(errs.Model, op, "style has %d values, model wants %d", len(emb), dim)
	}

	res := &Result{Text: text}
	cursor := 0.0
	for i, w := range words {
		wd := &wordDecoder{g: g, text: w}
		word, err := wd.run(ctx, emb)
		if err != nil {
			return nil, err
		}

		minX, _, maxX, _, ok := stroke.Bounds(word.Points)
		if ok {
			word.Points = stroke.Translate(word.Points, cursor-minX, 0)
			cursor += maxX - minX
		}
		if i < len(words)-1 {
			cursor += g.cfg.WordGap
		}

		res.Words = append(res.Words, word)
		res.Points = append(res.Points, word.Points...)
	}

	log.Trace.Printf("generated %q: %d words, %d points", text, len(res.Words), len(res.Points))
	return res, nil
}

type state int

const (
	stateInit state = iota
	statePrimed
	stateDecoding
	stateDone
)

func (s state) String() string {
	return [...]string{"init", "primed", "decoding", "done"}[s]
}

// wordDecoder holds the decode state of one word.
type wordDecoder struct {
	g     *Generator
	text  string
	state state

	chars     []int
	truncated bool
	dec       model.Decoder

	prev   stroke.Offset
	x, y   float64
	points []stroke.Point
	steps  int
	capped bool
}

func (w *wordDecoder) run(ctx context.Context, emb style.Embedding) (Word, error) {
	if err := w.prime(ctx, emb); err != nil {
		return Word{}, err
	}
	defer w.dec.Close()

	w.state = stateDecoding
	for w.state == stateDecoding {
		if err := ctx.Err(); err != nil {
			return Word{}, err
		}
		if err := w.step(ctx); err != nil {
			return Word{}, err
		}
	}
	return w.finish(), nil
}

// prime binds the style and the character window and opens a decoder.
func (w *wordDecoder) prime(ctx context.Context, emb style.Embedding) error {
	window := w.g.model.Spec().CharWindow
	w.chars, w.truncated = w.g.vocab.EncodeWindow(w.text, window)
	if w.truncated {
		log.Warning.Printf("word %q is longer than the %d character window, truncated", w.text, window)
	}

	dec, err := w.g.model.Begin(ctx, emb, w.chars)
	if err != nil {
		return modelError("sampler.prime", err)
	}
	w.dec = dec
	w.state = statePrimed
	return nil
}

// step decodes one offset and moves to stateDone when the word ends.
func (w *wordDecoder) step(ctx context.Context) error {
	const op = "sampler.step"

	mix, err := w.dec.Step(ctx, w.prev)
	if err != nil {
		return modelError(op, err)
	}
	if err := mix.Check(); err != nil {
		return errs.Errorf(errs.Generation, op, "word %q step %d: %v", w.text, w.steps, err)
	}

	off, err := w.g.sample(mix)
	if err != nil {
		return errs.Errorf(errs.Generation, op, "word %q step %d: %v", w.text, w.steps, err)
	}

	w.steps++
	w.prev = off
	w.x += off.X * w.g.cfg.Divider
	w.y += off.Y * w.g.cfg.Divider

	pen := stroke.PenDown
	if off.Pen == 1 {
		pen = stroke.StrokeEnd
	}
	w.points = append(w.points, stroke.Point{X: w.x, Y: w.y, Pen: pen})

	switch {
	case sigmoid(mix.EndLogit) >= 0.5:
		w.state = stateDone
	case w.steps >= w.g.cfg.MaxSteps:
		log.Warning.Printf("word %q reached %d steps without ending", w.text, w.steps)
		w.capped = true
		w.state = stateDone
	}
	return nil
}

func (w *wordDecoder) finish() Word {
	if n := len(w.points); n > 0 {
		w.points[n-1].Pen = stroke.StrokeEnd
	}
	return Word{
		Text:      w.text,
		Points:    w.points,
		Steps:     w.steps,
		Truncated: w.truncated,
		Capped:    w.capped,
	}
}

func modelError(op string, err error) error {
	if errs.KindOf(err) != "" || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errs.E(errs.Model, op, err)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
