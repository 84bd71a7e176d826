// Package model defines the contract between the pipeline and the
// style-conditioned synthesis network. The network itself lives outside
// this module; see model/remote for an HTTP implementation and
// model/modeltest for in-process stubs.
package model

import (
	"context"
	"fmt"
	"math"

	"github.com/inkstone/handsynth/stroke"
)

// Spec describes the fixed shapes a model was trained with.
type Spec struct {
	StyleDim   int `json:"style_dim" yaml:"style_dim"`
	CharWindow int `json:"char_window" yaml:"char_window"`
	Mixtures   int `json:"mixtures" yaml:"mixtures"`
}

// DefaultSpec is the shape of the reference model.
func DefaultSpec() Spec {
	return Spec{StyleDim: 256, CharWindow: 5, Mixtures: 20}
}

// Validate checks that every dimension is positive.
func (s Spec) Validate() error {
	if s.StyleDim <= 0 || s.CharWindow <= 0 || s.Mixtures <= 0 {
		return fmt.Errorf("invalid model spec %+v", s)
	}
	return nil
}

// Mixture is the output distribution of one decode step: a mixture of
// bivariate Gaussians over the next offset, plus logits for the pen lift
// and the end of the word.
type Mixture struct {
	Pi       []float64 `json:"pi"`
	MuX      []float64 `json:"mu_x"`
	MuY      []float64 `json:"mu_y"`
	SigmaX   []float64 `json:"sigma_x"`
	SigmaY   []float64 `json:"sigma_y"`
	Rho      []float64 `json:"rho"`
	PenLogit float64   `json:"pen_logit"`
	EndLogit float64   `json:"end_logit"`
}

// Components returns the number of mixture components.
func (m *Mixture) Components() int {
	return len(m.Pi)
}

// Check verifies that all component slices have the same non-zero length
// and that every parameter is finite.
func (m *Mixture) Check() error {
	k := len(m.Pi)
	if k == 0 {
		return fmt.Errorf("mixture has no components")
	}
	params := map[string][]float64{
		"mu_x": m.MuX, "mu_y": m.MuY, "sigma_x": m.SigmaX, "sigma_y": m.SigmaY, "rho": m.Rho,
	}
	for name, p := range params {
		if len(p) != k {
			return fmt.Errorf("mixture %s has %d components, want %d", name, len(p), k)
		}
	}
	params["pi"] = m.Pi
	params["logits"] = []float64{m.PenLogit, m.EndLogit}
	for name, p := range params {
		for i, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("mixture %s[%d] is %v", name, i, v)
			}
		}
	}
	return nil
}

// Decoder is one autoregressive decoding session. It is not safe for
// concurrent use.
type Decoder interface {
	// Step feeds the previous offset (zero for the first step) and returns
	// the distribution of the next one.
	Step(ctx context.Context, prev stroke.Offset) (*Mixture, error)
	Close() error
}

// Model is a trained synthesis network. Implementations must be safe for
// concurrent use; each generation owns its Decoder.
type Model interface {
	Spec() Spec
	// Style runs one inference pass and returns the style vector of the
	// sample.
	Style(ctx context.Context, in *Input) ([]float64, error)
	// Begin starts decoding a word of chars (exactly CharWindow indices)
	// in the given style.
	Begin(ctx context.Context, style []float64, chars []int) (Decoder, error)
}
