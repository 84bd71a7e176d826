// Package capture reads raw handwriting captures: JSON files written by the
// capture tools and reMarkable .rm pages.
package capture

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/inkstone/handsynth/encoding/rm"
	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/segment"
	"github.com/inkstone/handsynth/stroke"
)

// Capture is one written sentence with its points and label matrix.
type Capture struct {
	Text      string
	Timestamp string
	Source    string
	Strokes   []stroke.Stroke
	Points    []stroke.Point
	Labels    segment.LabelMatrix
	// Derived is true when the labels were computed from strokes.
	Derived bool
}

// Meta returns the key/value pairs stored with samples built from c.
func (c *Capture) Meta() map[string]string {
	meta := map[string]string{}
	if c.Timestamp != "" {
		meta["timestamp"] = c.Timestamp
	}
	if c.Source != "" {
		meta["source"] = filepath.Base(c.Source)
	}
	if c.Derived {
		meta["labels"] = "strokes"
	}
	return meta
}

type jsonCapture struct {
	Text            string        `json:"text"`
	Timestamp       string        `json:"timestamp,omitempty"`
	Strokes         [][][]float64 `json:"strokes"`
	CharacterLabels [][]float64   `json:"character_labels,omitempty"`
}

// ReadJSON decodes a capture JSON document. Pen values are converted with
// conv. Missing character labels are derived from the strokes.
func ReadJSON(r io.Reader, conv stroke.PenConvention) (*Capture, error) {
	const op = "capture.ReadJSON"

	var raw jsonCapture
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errs.E(errs.Data, op, errors.Wrap(err, "can't decode capture"))
	}
	if strings.TrimSpace(raw.Text) == "" {
		return nil, errs.Errorf(errs.Validation, op, "capture has no text")
	}

	c := &Capture{Text: raw.Text, Timestamp: raw.Timestamp}
	for i, s := range raw.Strokes {
		st := make(stroke.Stroke, 0, len(s))
		for j, p := range s {
			if len(p) < 3 {
				return nil, errs.Errorf(errs.Validation, op, "stroke %d point %d has %d values, want x,y,pen", i, j, len(p))
			}
			st = append(st, stroke.Point{X: p[0], Y: p[1], Pen: conv.Pen(p[2])})
		}
		if len(st) == 0 {
			continue
		}
		if last := &st[len(st)-1]; last.Pen == stroke.PenDown {
			last.Pen = stroke.StrokeEnd
		}
		c.Strokes = append(c.Strokes, st)
		c.Points = append(c.Points, st...)
	}

	if len(raw.CharacterLabels) == 0 {
		c.Labels = LabelByStrokes(c.Text, c.Strokes)
		c.Derived = true
		return c, nil
	}

	c.Labels = make(segment.LabelMatrix, len(raw.CharacterLabels))
	for i, row := range raw.CharacterLabels {
		c.Labels[i] = make([]int, len(row))
		for j, v := range row {
			switch v {
			case 0:
			case 1:
				c.Labels[i][j] = 1
			default:
				return nil, errs.Errorf(errs.Validation, op, "character_labels[%d][%d] = %v, want 0 or 1", i, j, v)
			}
		}
	}
	return c, nil
}

// WriteJSON encodes c in the capture JSON format. Pens are written with
// the end-flag convention.
func WriteJSON(w io.Writer, c *Capture) error {
	raw := jsonCapture{Text: c.Text, Timestamp: c.Timestamp}
	for _, s := range c.Strokes {
		points := make([][]float64, len(s))
		for i, p := range s {
			points[i] = []float64{p.X, p.Y, p.Pen.Channel()}
		}
		raw.Strokes = append(raw.Strokes, points)
	}
	if !c.Derived {
		for _, row := range c.Labels {
			values := make([]float64, len(row))
			for j, v := range row {
				values[j] = float64(v)
			}
			raw.CharacterLabels = append(raw.CharacterLabels, values)
		}
	}
	return json.NewEncoder(w).Encode(raw)
}

// ReadRM converts the ink lines of a reMarkable page into a capture of
// text. Every line becomes one stroke; labels are derived from strokes.
func ReadRM(data []byte, text string) (*Capture, error) {
	const op = "capture.ReadRM"

	if strings.TrimSpace(text) == "" {
		return nil, errs.Errorf(errs.Validation, op, "page needs a text")
	}

	var page rm.Rm
	if err := page.UnmarshalBinary(data); err != nil {
		return nil, errs.E(errs.Data, op, errors.Wrap(err, "can't read page"))
	}

	c := &Capture{Text: text}
	for _, line := range page.Lines() {
		st := make(stroke.Stroke, len(line.Points))
		for i, p := range line.Points {
			st[i] = stroke.Point{X: float64(p.X), Y: float64(p.Y), Pen: stroke.PenDown}
		}
		st[len(st)-1].Pen = stroke.StrokeEnd
		c.Strokes = append(c.Strokes, st)
		c.Points = append(c.Points, st...)
	}
	log.Trace.Printf("page v%d: %d strokes, %d points", page.Version, len(c.Strokes), len(c.Points))

	c.Labels = LabelByStrokes(text, c.Strokes)
	c.Derived = true
	return c, nil
}

// LabelByStrokes assigns stroke k to the k-th non-space rune of text.
// Strokes beyond the last rune go to the last rune; runes without a stroke
// stay unassigned.
func LabelByStrokes(text string, strokes []stroke.Stroke) segment.LabelMatrix {
	runes := []rune(text)

	var cols []int
	for j, r := range runes {
		if !unicode.IsSpace(r) {
			cols = append(cols, j)
		}
	}

	total := 0
	for _, s := range strokes {
		total += len(s)
	}

	labels := segment.NewLabelMatrix(total, len(runes))
	if len(cols) == 0 {
		return labels
	}
	if len(strokes) != len(cols) {
		log.Trace.Printf("%d strokes for %d characters of %q", len(strokes), len(cols), text)
	}

	row := 0
	for k, s := range strokes {
		col := cols[min(k, len(cols)-1)]
		labels.Assign(row, row+len(s), col)
		row += len(s)
	}
	return labels
}

// Load reads a capture file. JSON files carry their text; for .rm pages
// the text is read from a sibling .txt file unless text is given.
func Load(path, text string, conv stroke.PenConvention) (*Capture, error) {
	const op = "capture.Load"

	var c *Capture
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, errs.E(errs.Data, op, errors.Wrapf(err, "can't open capture"))
		}
		defer f.Close()
		c, err = ReadJSON(f, conv)
		if err != nil {
			return nil, errors.WithMessage(err, path)
		}
	case ".rm":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.E(errs.Data, op, errors.Wrapf(err, "can't read page"))
		}
		if text == "" {
			sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
			b, err := os.ReadFile(sidecar)
			if err != nil {
				return nil, errs.E(errs.Data, op, errors.Wrapf(err, "no text for page %s", path))
			}
			text = strings.TrimSpace(string(b))
		}
		c, err = ReadRM(data, text)
		if err != nil {
			return nil, errors.WithMessage(err, path)
		}
	default:
		return nil, errs.Errorf(errs.Data, op, "unsupported capture file %s", path)
	}

	c.Source = path
	return c, nil
}

// IsCapture reports whether path looks like a capture file Load can read.
func IsCapture(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".rm":
		return true
	}
	return false
}
