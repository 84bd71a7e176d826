package sample

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/segment"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/vocab"
)

func testSample(t *testing.T) *hierarchy.Sample {
	points := make([]stroke.Point, 11)
	for i := range points {
		points[i] = stroke.Point{X: float64(i) * 3.5, Y: 420 - float64(i), Pen: stroke.PenDown}
	}
	points[4].Pen = stroke.StrokeEnd
	points[10].Pen = stroke.PenUp

	labels := segment.NewLabelMatrix(11, 4)
	labels.Assign(0, 5, 0)
	labels.Assign(5, 6, 2)
	labels.Assign(6, 11, 3)

	opts := hierarchy.DefaultOptions()
	opts.WriterID = "12"
	opts.SampleID = "3"
	opts.Meta = map[string]string{"timestamp": "20240101_120000", "source": "capture.json"}

	s, err := hierarchy.NewBuilder(vocab.Default(), opts).Build("a bc", points, labels)
	require.NoError(t, err)
	return s
}

func TestRoundTrip(t *testing.T) {
	s := testSample(t)
	require.NotEmpty(t, s.Degenerates())

	data, err := Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, HeaderV1, string(data[:HeaderLen]))

	got, err := Unmarshal(data)
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	assert.Equal(t, s, got)
}

func TestUnmarshalRejectsUnknownVersion(t *testing.T) {
	data, err := Marshal(testSample(t))
	require.NoError(t, err)

	copy(data, "handsynth sample, version=2     ")
	_, err = Unmarshal(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.Data))
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	tests := map[string][]byte{
		"short":  []byte("handsynth"),
		"header": []byte("reMarkable .lines file, version=5          "),
	}

	data, err := Marshal(testSample(t))
	require.NoError(t, err)
	tests["truncated"] = data[:len(data)-7]
	tests["trailing"] = append(append([]byte{}, data...), 0, 0)

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal(in)
			require.Error(t, err)
			assert.Equal(t, errs.Data, errs.KindOf(err))
		})
	}
}
