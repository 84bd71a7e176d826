// Package hierarchy builds the three-level (sentence, word, character)
// training representation of a captured handwriting sample.
package hierarchy

import (
	"fmt"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/vocab"
)

// Version is the layout version of Sample.
const Version = 1

// Unit is one encoded sentence, word or character.
type Unit struct {
	Text       string          `json:"text"`
	Raw        []stroke.Point  `json:"raw"`
	StrokeIn   []stroke.Offset `json:"stroke_in"`
	StrokeOut  []stroke.Offset `json:"stroke_out"`
	Term       []float64       `json:"term"`
	Char       []int           `json:"char"`
	Length     int             `json:"length"`
	Degenerate bool            `json:"degenerate,omitempty"`
}

// StrokeLength is the number of offset rows of the unit.
func (u *Unit) StrokeLength() int {
	return len(u.StrokeIn)
}

// CharLength is the number of character indices of the unit.
func (u *Unit) CharLength() int {
	return len(u.Char)
}

// Check verifies the shape invariant of the unit.
func (u *Unit) Check() error {
	n := len(u.Raw) - 1
	if n < 1 {
		return fmt.Errorf("unit %q has %d raw points", u.Text, len(u.Raw))
	}
	if len(u.StrokeIn) != n || len(u.StrokeOut) != n || len(u.Term) != n {
		return fmt.Errorf("unit %q: stroke_in=%d stroke_out=%d term=%d, want %d",
			u.Text, len(u.StrokeIn), len(u.StrokeOut), len(u.Term), n)
	}
	if len(u.Char) != len(u.Raw) {
		return fmt.Errorf("unit %q: char=%d, want %d", u.Text, len(u.Char), len(u.Raw))
	}
	if u.Length != len(u.Raw) {
		return fmt.Errorf("unit %q: length=%d, want %d", u.Text, u.Length, len(u.Raw))
	}
	return nil
}

// Sample is the hierarchical representation of one captured sentence.
// It is immutable once built.
type Sample struct {
	Version          int               `json:"version"`
	WriterID         string            `json:"writer_id"`
	SampleID         string            `json:"sample_id"`
	Text             string            `json:"text"`
	Divider          float64           `json:"divider"`
	PredictionOffset int               `json:"prediction_offset"`
	Sentence         Unit              `json:"sentence"`
	Words            []Unit            `json:"words"`
	Segments         [][]Unit          `json:"segments"`
	Meta             map[string]string `json:"meta,omitempty"`
}

// UnitRef locates a unit inside a sample.
type UnitRef struct {
	Level string `json:"level"`
	Word  int    `json:"word"`
	Char  int    `json:"char"`
	Text  string `json:"text"`
}

func (r UnitRef) String() string {
	switch r.Level {
	case "word":
		return fmt.Sprintf("word %d %q", r.Word, r.Text)
	case "char":
		return fmt.Sprintf("char %d.%d %q", r.Word, r.Char, r.Text)
	}
	return fmt.Sprintf("sentence %q", r.Text)
}

// Walk calls fn for every unit, sentence first, then each word followed by
// its characters.
func (s *Sample) Walk(fn func(ref UnitRef, u *Unit) error) error {
	if err := fn(UnitRef{Level: "sentence", Text: s.Sentence.Text}, &s.Sentence); err != nil {
		return err
	}
	for w := range s.Words {
		if err := fn(UnitRef{Level: "word", Word: w, Text: s.Words[w].Text}, &s.Words[w]); err != nil {
			return err
		}
		if w >= len(s.Segments) {
			continue
		}
		for c := range s.Segments[w] {
			u := &s.Segments[w][c]
			if err := fn(UnitRef{Level: "char", Word: w, Char: c, Text: u.Text}, u); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks the shape invariant on every unit and that words and
// segments agree. Failures are errs.Data errors.
func (s *Sample) Validate() error {
	const op = "hierarchy.Validate"

	if s.Divider <= 0 {
		return errs.Errorf(errs.Data, op, "sample %s/%s: divider %v", s.WriterID, s.SampleID, s.Divider)
	}
	if len(s.Words) != len(s.Segments) {
		return errs.Errorf(errs.Data, op, "sample %s/%s: %d words, %d segment groups",
			s.WriterID, s.SampleID, len(s.Words), len(s.Segments))
	}
	return s.Walk(func(ref UnitRef, u *Unit) error {
		if err := u.Check(); err != nil {
			return errs.Errorf(errs.Data, op, "sample %s/%s %s: %v", s.WriterID, s.SampleID, ref, err)
		}
		return nil
	})
}

// Degenerates lists every unit that was replaced by the placeholder.
func (s *Sample) Degenerates() []UnitRef {
	var refs []UnitRef
	s.Walk(func(ref UnitRef, u *Unit) error {
		if u.Degenerate {
			refs = append(refs, ref)
		}
		return nil
	})
	return refs
}

// RecoverText reads the characters found at the terminated positions of the
// sentence. Word spacing is not encoded there, so the result has no spaces.
func (s *Sample) RecoverText(v *vocab.Vocabulary) string {
	u := &s.Sentence
	var ids []int
	for i, t := range u.Term {
		if t != 1 {
			continue
		}
		k := i
		if i == len(u.Term)-1 {
			k = len(u.Char) - 1
		}
		if k < len(u.Char) {
			ids = append(ids, u.Char[k])
		}
	}
	return v.Decode(ids)
}

// Points returns the number of raw points of the sentence.
func (s *Sample) Points() int {
	return len(s.Sentence.Raw)
}
