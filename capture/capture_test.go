package capture

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone/handsynth/encoding/rm"
	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/segment"
	"github.com/inkstone/handsynth/stroke"
)

const endFlagCapture = `{
  "text": "hi",
  "timestamp": "20240301_101500",
  "strokes": [
    [[10, 20, 0], [11, 25, 0], [12, 30, 0], [12, 30, 1]],
    [[30, 20, 0], [30, 28, 0], [30, 28, 1]]
  ],
  "character_labels": [
    [1, 0], [1, 0], [1, 0], [1, 0],
    [0, 1], [0, 1], [0, 1]
  ]
}`

func TestReadJSONEndFlag(t *testing.T) {
	c, err := ReadJSON(strings.NewReader(endFlagCapture), stroke.EndFlag)
	require.NoError(t, err)

	assert.Equal(t, "hi", c.Text)
	require.Len(t, c.Strokes, 2)
	require.Len(t, c.Points, 7)
	assert.Equal(t, stroke.PenDown, c.Points[0].Pen)
	assert.Equal(t, stroke.StrokeEnd, c.Points[3].Pen)
	assert.Equal(t, stroke.StrokeEnd, c.Points[6].Pen)
	assert.False(t, c.Derived)
	assert.Equal(t, 0, c.Labels.Owner(3))
	assert.Equal(t, 1, c.Labels.Owner(4))
	assert.NoError(t, c.Labels.Validate(7, 2))
}

func TestReadJSONDownFlag(t *testing.T) {
	doc := `{"text": "a", "strokes": [[[0, 0, 1], [1, 1, 1], [2, 2, 0]]]}`

	c, err := ReadJSON(strings.NewReader(doc), stroke.DownFlag)
	require.NoError(t, err)

	require.Len(t, c.Points, 3)
	assert.Equal(t, stroke.PenDown, c.Points[0].Pen)
	assert.Equal(t, stroke.PenUp, c.Points[2].Pen)
	assert.True(t, c.Derived)
	assert.Equal(t, "strokes", c.Meta()["labels"])
}

func TestReadJSONClosesOpenStrokes(t *testing.T) {
	doc := `{"text": "a", "strokes": [[[0, 0, 0], [1, 1, 0]]]}`

	c, err := ReadJSON(strings.NewReader(doc), stroke.EndFlag)
	require.NoError(t, err)
	assert.Equal(t, stroke.StrokeEnd, c.Points[1].Pen)
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind errs.Kind
	}{
		{"syntax", `{"text": `, errs.Data},
		{"no text", `{"text": " ", "strokes": []}`, errs.Validation},
		{"short point", `{"text": "a", "strokes": [[[0, 0]]]}`, errs.Validation},
		{"bad label", `{"text": "a", "strokes": [[[0, 0, 0]]], "character_labels": [[0.5]]}`, errs.Validation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc), stroke.EndFlag)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	c, err := ReadJSON(strings.NewReader(endFlagCapture), stroke.EndFlag)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, c))

	got, err := ReadJSON(&buf, stroke.EndFlag)
	require.NoError(t, err)
	assert.Equal(t, c.Points, got.Points)
	assert.Equal(t, c.Labels, got.Labels)
	assert.Equal(t, c.Timestamp, got.Timestamp)
}

func TestLabelByStrokes(t *testing.T) {
	strokes := []stroke.Stroke{
		make(stroke.Stroke, 2),
		make(stroke.Stroke, 3),
		make(stroke.Stroke, 1),
		make(stroke.Stroke, 2),
	}

	labels := LabelByStrokes("a bc", strokes)
	require.Equal(t, 8, labels.Rows())
	require.Equal(t, 4, labels.Cols())

	owners := make([]int, labels.Rows())
	for i := range owners {
		owners[i] = labels.Owner(i)
	}
	// the fourth stroke has no character left and joins "c"
	assert.Equal(t, []int{0, 0, 2, 2, 2, 3, 3, 3}, owners)
	assert.NoError(t, labels.Validate(8, 4))
}

func TestLabelByStrokesFewerStrokes(t *testing.T) {
	labels := LabelByStrokes("abc", []stroke.Stroke{make(stroke.Stroke, 2)})
	assert.Equal(t, segment.LabelMatrix{{1, 0, 0}, {1, 0, 0}}, labels)
}

func testPage(t *testing.T) []byte {
	page := rm.Rm{Layers: []rm.Layer{{Lines: []rm.Line{
		{BrushType: rm.FinelinerV5, Points: []rm.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}},
		{BrushType: rm.Eraser, Points: []rm.Point{{X: 9, Y: 9}}},
		{BrushType: rm.BallpointV5, Points: []rm.Point{{X: 5, Y: 6}, {X: 7, Y: 8}, {X: 9, Y: 10}}},
	}}}}
	data, err := page.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestReadRM(t *testing.T) {
	c, err := ReadRM(testPage(t), "ok")
	require.NoError(t, err)

	require.Len(t, c.Strokes, 2)
	require.Len(t, c.Points, 5)
	assert.Equal(t, stroke.StrokeEnd, c.Points[1].Pen)
	assert.Equal(t, stroke.StrokeEnd, c.Points[4].Pen)
	assert.Equal(t, 1, c.Labels.Owner(2))

	_, err = ReadRM([]byte("garbage"), "ok")
	assert.True(t, errors.Is(err, errs.Data))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "sample_0.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(endFlagCapture), 0600))
	c, err := Load(jsonPath, "", stroke.EndFlag)
	require.NoError(t, err)
	assert.Equal(t, jsonPath, c.Source)
	assert.Equal(t, "sample_0.json", c.Meta()["source"])

	pagePath := filepath.Join(dir, "page.rm")
	require.NoError(t, os.WriteFile(pagePath, testPage(t), 0600))
	_, err = Load(pagePath, "", stroke.EndFlag)
	assert.True(t, errors.Is(err, errs.Data))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.txt"), []byte("ok\n"), 0600))
	c, err = Load(pagePath, "", stroke.EndFlag)
	require.NoError(t, err)
	assert.Equal(t, "ok", c.Text)

	_, err = Load(filepath.Join(dir, "missing.json"), "", stroke.EndFlag)
	assert.True(t, errors.Is(err, errs.Data))

	assert.True(t, IsCapture("x.RM"))
	assert.False(t, IsCapture("x.png"))
}
