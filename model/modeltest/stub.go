// Package modeltest provides deterministic in-process models for tests and
// dry runs without a model server.
package modeltest

import (
	"context"
	"math"
	"sync"

	"github.com/inkstone/handsynth/model"
	"github.com/inkstone/handsynth/stroke"
)

// Stub is a model whose outputs are simple functions of its inputs.
//
// Style returns, for every dimension, the mean x (even dimensions) or y
// (odd dimensions) offset of the sentence. Decoders move right by
// Advance per step with a tight mixture, lift the pen every PenEvery
// steps and end the word after Steps steps.
type Stub struct {
	spec model.Spec

	// Steps is the number of steps per word. 0 never ends a word.
	Steps int
	// Advance is the mean x offset of a step.
	Advance float64
	// PenEvery lifts the pen every n steps. 0 never lifts it.
	PenEvery int
	// NaNAt makes step n (1-based) return NaN means. 0 disables it.
	NaNAt int
	// StyleErr, when set, is returned by Style.
	StyleErr error
	// StyleDim overrides the length of returned style vectors.
	StyleDim int

	mu         sync.Mutex
	styleCalls int
	begun      int
	closed     int
	lastChars  []int
}

// New returns a stub that ends every word after 8 steps.
func New(spec model.Spec) *Stub {
	return &Stub{spec: spec, Steps: 8, Advance: 2, PenEvery: 4}
}

// Forever returns a stub that never emits the end of a word.
func Forever(spec model.Spec) *Stub {
	s := New(spec)
	s.Steps = 0
	return s
}

func (s *Stub) Spec() model.Spec {
	return s.spec
}

func (s *Stub) Style(ctx context.Context, in *model.Input) ([]float64, error) {
	s.mu.Lock()
	s.styleCalls++
	s.mu.Unlock()

	if s.StyleErr != nil {
		return nil, s.StyleErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var mx, my float64
	var n int
	for _, unit := range in.Sentence.StrokeOut {
		for _, o := range unit {
			mx += o.X
			my += o.Y
			n++
		}
	}
	if n > 0 {
		mx /= float64(n)
		my /= float64(n)
	}

	dim := s.spec.StyleDim
	if s.StyleDim > 0 {
		dim = s.StyleDim
	}
	style := make([]float64, dim)
	for i := range style {
		if i%2 == 0 {
			style[i] = mx
		} else {
			style[i] = my
		}
	}
	return style, nil
}

func (s *Stub) Begin(ctx context.Context, style []float64, chars []int) (model.Decoder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begun++
	s.lastChars = append([]int(nil), chars...)
	return &decoder{stub: s}, nil
}

// Calls reports how many Style calls, begun decoders and closed decoders
// the stub has seen.
func (s *Stub) Calls() (style, begun, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.styleCalls, s.begun, s.closed
}

// LastChars returns the character window of the last Begin call.
func (s *Stub) LastChars() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastChars
}

type decoder struct {
	stub *Stub
	step int
}

func (d *decoder) Step(ctx context.Context, prev stroke.Offset) (*model.Mixture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.step++
	s := d.stub

	mu := s.Advance
	if s.NaNAt > 0 && d.step >= s.NaNAt {
		mu = math.NaN()
	}

	pen := -20.0
	if s.PenEvery > 0 && d.step%s.PenEvery == 0 {
		pen = 20
	}
	end := -20.0
	if s.Steps > 0 && d.step >= s.Steps {
		end = 20
	}

	return &model.Mixture{
		Pi:       []float64{0.5, 0.5},
		MuX:      []float64{mu, mu},
		MuY:      []float64{0.5, -0.5},
		SigmaX:   []float64{0.01, 0.01},
		SigmaY:   []float64{0.01, 0.01},
		Rho:      []float64{0, 0},
		PenLogit: pen,
		EndLogit: end,
	}, nil
}

func (d *decoder) Close() error {
	d.stub.mu.Lock()
	d.stub.closed++
	d.stub.mu.Unlock()
	return nil
}
