package sampler

import (
	"fmt"
	"math"

	"github.com/inkstone/handsynth/model"
	"github.com/inkstone/handsynth/stroke"
)

// sample draws the next offset from mix. Bias raises the component weights
// to the power 1+bias and scales the deviations by exp(-bias).
func (g *Generator) sample(mix *model.Mixture) (stroke.Offset, error) {
	k, err := g.component(mix.Pi)
	if err != nil {
		return stroke.Offset{}, err
	}

	rho := mix.Rho[k]
	if rho <= -1 || rho >= 1 {
		return stroke.Offset{}, fmt.Errorf("correlation %v out of range", rho)
	}
	shrink := math.Exp(-g.cfg.Bias)
	sx := mix.SigmaX[k] * shrink
	sy := mix.SigmaY[k] * shrink
	if sx < 0 || sy < 0 {
		return stroke.Offset{}, fmt.Errorf("negative deviation %v, %v", sx, sy)
	}

	z1, z2 := g.rng.NormFloat64(), g.rng.NormFloat64()
	off := stroke.Offset{
		X: mix.MuX[k] + sx*z1,
		Y: mix.MuY[k] + sy*(rho*z1+math.Sqrt(1-rho*rho)*z2),
	}
	if g.rng.Float64() < sigmoid(mix.PenLogit) {
		off.Pen = 1
	}

	for _, v := range []float64{off.X, off.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return stroke.Offset{}, fmt.Errorf("sampled offset is %v", v)
		}
	}
	return off, nil
}

// component picks a mixture index with probability proportional to
// pi^(1+bias).
func (g *Generator) component(pi []float64) (int, error) {
	weights := make([]float64, len(pi))
	var total float64
	for i, p := range pi {
		if p < 0 {
			return 0, fmt.Errorf("negative weight %v", p)
		}
		weights[i] = math.Pow(p, 1+g.cfg.Bias)
		total += weights[i]
	}
	if total <= 0 || math.IsInf(total, 0) {
		return 0, fmt.Errorf("mixture weights sum to %v", total)
	}

	u := g.rng.Float64() * total
	for i, w := range weights {
		u -= w
		if u < 0 {
			return i, nil
		}
	}
	return len(weights) - 1, nil
}
