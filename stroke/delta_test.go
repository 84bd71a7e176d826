package stroke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePoints() []Point {
	return []Point{
		{X: 10, Y: 480, Pen: PenDown},
		{X: 12, Y: 470, Pen: PenDown},
		{X: 15, Y: 465, Pen: StrokeEnd},
		{X: 30, Y: 490, Pen: PenDown},
		{X: 31, Y: 488, Pen: PenUp},
	}
}

func TestEncodeShapes(t *testing.T) {
	points := samplePoints()
	for _, offset := range []int{0, 1} {
		in, out := Encode(points, offset)
		assert.Len(t, in, len(points), "offset %d", offset)
		assert.Len(t, out, len(points), "offset %d", offset)
		assert.Equal(t, Offset{}, in[0])
		assert.Equal(t, out[:len(out)-1], in[1:])
	}
}

func TestEncodeAnchors(t *testing.T) {
	points := samplePoints()

	_, out := Encode(points, 1)
	assert.Equal(t, Offset{X: 10, Y: -20, Pen: 0}, out[0])

	_, out = Encode(points, 0)
	assert.Equal(t, Offset{X: 0, Y: 0, Pen: 0}, out[0])
}

func TestEncodePenCarriesPreviousPoint(t *testing.T) {
	_, out := Encode(samplePoints(), 1)

	pens := make([]float64, len(out))
	for i, o := range out {
		pens[i] = o.Pen
	}
	// delta 3 follows the stroke end at point 2
	assert.Equal(t, []float64{0, 0, 0, 1, 0}, pens)
}

func TestEncodeEmpty(t *testing.T) {
	for _, offset := range []int{0, 1} {
		in, out := Encode(nil, offset)
		assert.NotNil(t, in)
		assert.NotNil(t, out)
		assert.Empty(t, in)
		assert.Empty(t, out)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	points := samplePoints()
	for _, offset := range []int{0, 1} {
		_, out := Encode(points, offset)
		got := Decode(Anchor(points, offset), out)
		require.Len(t, got, len(points))
		for i := range points {
			assert.InDelta(t, points[i].X, got[i].X, 1e-6)
			assert.InDelta(t, points[i].Y, got[i].Y, 1e-6)
			assert.Equal(t, points[i].Pen.Lifted(), got[i].Pen.Lifted(), "point %d", i)
		}
	}
}

func TestNormalizeInverse(t *testing.T) {
	_, out := Encode(samplePoints(), 1)

	norm := Normalize(out, 5.0)
	back := Denormalize(norm, 5.0)
	for i := range out {
		assert.InDelta(t, out[i].X, back[i].X, 1e-12)
		assert.InDelta(t, out[i].Y, back[i].Y, 1e-12)
		assert.Equal(t, out[i].Pen, norm[i].Pen)
		assert.Equal(t, out[i].Pen, back[i].Pen)
	}
	assert.Equal(t, 2.0, norm[0].X)
	assert.Equal(t, -4.0, norm[0].Y)
}

func TestNormalizeDivides(t *testing.T) {
	offsets := []Offset{{X: 0.7, Y: 1.3, Pen: 1}, {X: 123.4, Y: -9.1}, {X: 3, Y: 0.1}}
	for _, d := range []float64{3, 5, 7.5} {
		norm := Normalize(offsets, d)
		for i, o := range offsets {
			assert.Equal(t, o.X/d, norm[i].X)
			assert.Equal(t, o.Y/d, norm[i].Y)
		}
	}
}
