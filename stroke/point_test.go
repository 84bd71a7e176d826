package stroke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitJoin(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0, Pen: PenUp},
		{X: 1, Y: 1, Pen: PenDown},
		{X: 2, Y: 2, Pen: StrokeEnd},
		{X: 3, Y: 3, Pen: PenDown},
		{X: 4, Y: 4, Pen: PenDown},
	}

	strokes := Split(points)
	require.Len(t, strokes, 2)
	assert.Len(t, strokes[0], 2)
	assert.Len(t, strokes[1], 2)

	joined := Join(strokes)
	require.Len(t, joined, 4)
	assert.Equal(t, StrokeEnd, joined[1].Pen)
	assert.Equal(t, StrokeEnd, joined[3].Pen)
	assert.Equal(t, PenDown, joined[2].Pen)
}

func TestPenConvention(t *testing.T) {
	tests := []struct {
		conv PenConvention
		v    float64
		want PenState
	}{
		{EndFlag, 0, PenDown},
		{EndFlag, 1, StrokeEnd},
		{DownFlag, 1, PenDown},
		{DownFlag, 0, PenUp},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.conv.Pen(tt.v), "%s %v", tt.conv, tt.v)
	}

	_, err := ParsePenConvention("sideways")
	assert.Error(t, err)
	c, err := ParsePenConvention("down-flag")
	require.NoError(t, err)
	assert.Equal(t, DownFlag, c)
}

func TestBounds(t *testing.T) {
	_, _, _, _, ok := Bounds(nil)
	assert.False(t, ok)

	minX, minY, maxX, maxY, ok := Bounds([]Point{{X: 3, Y: -1}, {X: -2, Y: 5}})
	require.True(t, ok)
	assert.Equal(t, []float64{-2, -1, 3, 5}, []float64{minX, minY, maxX, maxY})
}
