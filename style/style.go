// Package style extracts writer style embeddings from stored samples.
package style

import (
	"context"
	"fmt"
	"math"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/model"
)

// Embedding is a fixed-length style vector.
type Embedding []float64

// Extractor averages the per-sample style vectors of a model.
type Extractor struct {
	model model.Model
}

// NewExtractor returns an Extractor using m.
func NewExtractor(m model.Model) *Extractor {
	return &Extractor{model: m}
}

// Extract runs every sample through the model and returns the mean style
// vector. Any failure is an errs.Model error; no partial result is
// returned.
func (e *Extractor) Extract(ctx context.Context, samples []*hierarchy.Sample) (Embedding, error) {
	const op = "style.Extract"

	if len(samples) == 0 {
		return nil, errs.Errorf(errs.Model, op, "no samples")
	}
	dim := e.model.Spec().StyleDim

	sum := make(Embedding, dim)
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in, err := model.NewInput(s)
		if err != nil {
			return nil, err
		}
		v, err := e.model.Style(ctx, in)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errs.E(errs.Model, op, fmt.Errorf("sample %s/%s: %w", s.WriterID, s.SampleID, err))
		}
		if len(v) != dim {
			return nil, errs.Errorf(errs.Model, op, "sample %s/%s: style has %d values, want %d", s.WriterID, s.SampleID, len(v), dim)
		}
		for i, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, errs.Errorf(errs.Model, op, "sample %s/%s: style[%d] is %v", s.WriterID, s.SampleID, i, x)
			}
			sum[i] += x
		}
	}

	for i := range sum {
		sum[i] /= float64(len(samples))
	}
	log.Trace.Printf("style from %d samples", len(samples))
	return sum, nil
}

// Divider returns the coordinate divider shared by samples. Mixed
// dividers are an errs.Data error.
func Divider(samples []*hierarchy.Sample) (float64, error) {
	if len(samples) == 0 {
		return hierarchy.DefaultDivider, nil
	}
	d := samples[0].Divider
	for _, s := range samples[1:] {
		if s.Divider != d {
			return 0, errs.Errorf(errs.Data, "style.Divider", "samples mix dividers %v and %v", d, s.Divider)
		}
	}
	return d, nil
}

// Blend combines embeddings with the given weights, normalized to sum to
// one. Weights must be non-negative with a positive sum and embeddings of
// equal length.
func Blend(weights []float64, embeddings []Embedding) (Embedding, error) {
	const op = "style.Blend"

	if len(embeddings) == 0 || len(weights) != len(embeddings) {
		return nil, errs.Errorf(errs.Validation, op, "%d weights for %d embeddings", len(weights), len(embeddings))
	}

	var total float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errs.Errorf(errs.Validation, op, "weight %d is %v", i, w)
		}
		total += w
	}
	if total == 0 {
		return nil, errs.Errorf(errs.Validation, op, "weights sum to zero")
	}

	dim := len(embeddings[0])
	out := make(Embedding, dim)
	for k, e := range embeddings {
		if len(e) != dim {
			return nil, errs.Errorf(errs.Model, op, "embedding %d has %d values, want %d", k, len(e), dim)
		}
		for i, x := range e {
			out[i] += weights[k] / total * x
		}
	}
	return out, nil
}
