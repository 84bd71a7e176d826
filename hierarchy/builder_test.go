package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/segment"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/vocab"
)

func capture(n int) []stroke.Point {
	points := make([]stroke.Point, n)
	for i := range points {
		points[i] = stroke.Point{X: 100 + float64(i)*5, Y: 400 + float64(i%4), Pen: stroke.PenDown}
	}
	points[n-1].Pen = stroke.PenUp
	return points
}

func buildHi(t *testing.T) *Sample {
	labels := segment.NewLabelMatrix(10, 2)
	labels.Assign(0, 5, 0)
	labels.Assign(5, 10, 1)

	opts := DefaultOptions()
	opts.WriterID = "7"
	opts.SampleID = "0"
	s, err := NewBuilder(vocab.Default(), opts).Build("hi", capture(10), labels)
	require.NoError(t, err)
	return s
}

func TestBuildHiScenario(t *testing.T) {
	s := buildHi(t)

	require.Len(t, s.Words, 1)
	require.Len(t, s.Segments, 1)
	require.Len(t, s.Segments[0], 2)
	assert.Equal(t, "h", s.Segments[0][0].Text)
	assert.Equal(t, "i", s.Segments[0][1].Text)

	assert.Equal(t, []float64{0, 0, 0, 0, 1, 0, 0, 0, 1}, s.Sentence.Term)
	assert.Equal(t, "7", s.WriterID)
	assert.Equal(t, DefaultDivider, s.Divider)
	assert.Empty(t, s.Degenerates())
}

func TestBuildShapeInvariant(t *testing.T) {
	s := buildHi(t)
	require.NoError(t, s.Validate())

	count := 0
	s.Walk(func(ref UnitRef, u *Unit) error {
		count++
		n := len(u.Raw) - 1
		assert.Len(t, u.StrokeIn, n, ref.String())
		assert.Len(t, u.StrokeOut, n, ref.String())
		assert.Len(t, u.Term, n, ref.String())
		assert.Len(t, u.Char, len(u.Raw), ref.String())
		assert.Equal(t, 0.0, u.Raw[0].X, ref.String())
		return nil
	})
	assert.Equal(t, 4, count)
}

func TestBuildCharacterCoverage(t *testing.T) {
	labels := segment.NewLabelMatrix(12, 4)
	labels.Assign(0, 3, 0)
	labels.Assign(3, 6, 1)
	labels.Assign(6, 9, 2)
	labels.Assign(9, 12, 3)

	s, err := NewBuilder(vocab.Default(), DefaultOptions()).Build("word", capture(12), labels)
	require.NoError(t, err)

	var sum float64
	for _, v := range s.Sentence.Term {
		sum += v
	}
	assert.Equal(t, 4.0, sum)
	assert.Equal(t, "word", s.RecoverText(vocab.Default()))
}

func TestBuildWordSegmentation(t *testing.T) {
	labels := segment.NewLabelMatrix(10, 5)
	labels.Assign(0, 3, 0)
	labels.Assign(3, 5, 1)
	labels.Assign(5, 7, 3)
	labels.Assign(7, 10, 4)

	s, err := NewBuilder(vocab.Default(), DefaultOptions()).Build("ab cd", capture(10), labels)
	require.NoError(t, err)

	require.Len(t, s.Words, 2)
	for _, w := range s.Words {
		require.NotEmpty(t, w.Term)
		last := len(w.Term) - 1
		assert.Equal(t, 1.0, w.Term[last], w.Text)
		for _, v := range w.Term[:last] {
			assert.Equal(t, 0.0, v, w.Text)
		}
	}
	assert.Equal(t, "ab", s.Words[0].Text)
	assert.Equal(t, "cd", s.Words[1].Text)
}

func TestBuildNormalizesOffsets(t *testing.T) {
	s := buildHi(t)

	u := s.Segments[0][0]
	// consecutive points are 5 units apart on x
	for _, o := range u.StrokeOut {
		assert.InDelta(t, 1.0, o.X, 1e-9)
	}

	var pens []float64
	for _, o := range s.Sentence.StrokeOut {
		pens = append(pens, o.Pen)
	}
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0, 0}, pens)
}

func TestBuildPlaceholder(t *testing.T) {
	labels := segment.NewLabelMatrix(6, 3)
	labels.Assign(0, 1, 0)
	labels.Assign(1, 6, 2)

	s, err := NewBuilder(vocab.Default(), DefaultOptions()).Build("a b", capture(6), labels)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	require.Len(t, s.Words, 2)
	w := s.Words[0]
	assert.True(t, w.Degenerate)
	assert.Equal(t, 2, w.Length)
	assert.Equal(t, []stroke.Offset{{X: 0, Y: 0, Pen: 0}}, w.StrokeIn)
	assert.Equal(t, []stroke.Offset{{X: 0.1, Y: 0.1, Pen: 1}}, w.StrokeOut)
	assert.Equal(t, []float64{1}, w.Term)

	refs := s.Degenerates()
	require.Len(t, refs, 2)
	assert.Equal(t, "word", refs[0].Level)
	assert.Equal(t, "char", refs[1].Level)
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := NewBuilder(vocab.Default(), DefaultOptions()).Build("hi", capture(4), segment.NewLabelMatrix(3, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Validation))

	opts := DefaultOptions()
	opts.PredictionOffset = 3
	labels := segment.NewLabelMatrix(4, 1)
	labels.Assign(0, 4, 0)
	_, err = NewBuilder(vocab.Default(), opts).Build("h", capture(4), labels)
	assert.True(t, errors.Is(err, errs.Validation))
}

func TestValidateCatchesRaggedUnit(t *testing.T) {
	s := buildHi(t)
	s.Words[0].Term = s.Words[0].Term[:2]

	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Data))
}

func TestBuildAssignsSampleID(t *testing.T) {
	labels := segment.NewLabelMatrix(4, 1)
	labels.Assign(0, 4, 0)

	s, err := NewBuilder(vocab.Default(), DefaultOptions()).Build("h", capture(4), labels)
	require.NoError(t, err)
	assert.Len(t, s.SampleID, 36)
	assert.Equal(t, DefaultDivider, s.Divider)
	assert.Equal(t, DefaultPredictionOffset, s.PredictionOffset)
}

func TestZeroOptionsAnchorAtFirstPoint(t *testing.T) {
	labels := segment.NewLabelMatrix(4, 1)
	labels.Assign(0, 4, 0)

	s, err := NewBuilder(vocab.Default(), Options{}).Build("h", capture(4), labels)
	require.NoError(t, err)
	assert.Equal(t, DefaultDivider, s.Divider)
	assert.Equal(t, 0, s.PredictionOffset)

	// self-anchored: the first delta starts at the origin
	assert.Equal(t, stroke.Offset{X: 0, Y: 0, Pen: 0}, s.Sentence.StrokeIn[0])
}

func TestBuildMergedLastTerm(t *testing.T) {
	labels := segment.NewLabelMatrix(10, 2)
	labels.Assign(0, 9, 0)
	labels.Assign(9, 10, 1)

	s, err := NewBuilder(vocab.Default(), DefaultOptions()).Build("hi", capture(10), labels)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0, 1}, s.Sentence.Term)
	assert.Equal(t, "1", s.Meta[MetaMergedTerm])
	assert.Equal(t, "i", s.RecoverText(vocab.Default()))

	assert.Empty(t, buildHi(t).Meta[MetaMergedTerm])
}
