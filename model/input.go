package model

import (
	"encoding/json"
	"fmt"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/stroke"
)

// Slots is the number of entries of an encoded Input.
const Slots = 18

// Level holds the six model slots of one hierarchy level for a list of
// units.
type Level struct {
	StrokeIn     [][]stroke.Offset
	StrokeOut    [][]stroke.Offset
	StrokeLength []int
	Term         [][]float64
	Char         [][]int
	CharLength   []int
}

// Len returns the number of units of the level.
func (l *Level) Len() int {
	return len(l.StrokeIn)
}

func (l *Level) add(u *hierarchy.Unit) {
	l.StrokeIn = append(l.StrokeIn, u.StrokeIn)
	l.StrokeOut = append(l.StrokeOut, u.StrokeOut)
	l.StrokeLength = append(l.StrokeLength, u.StrokeLength())
	l.Term = append(l.Term, u.Term)
	l.Char = append(l.Char, u.Char)
	l.CharLength = append(l.CharLength, u.CharLength())
}

func (l *Level) check() error {
	n := l.Len()
	if len(l.StrokeOut) != n || len(l.StrokeLength) != n || len(l.Term) != n || len(l.Char) != n || len(l.CharLength) != n {
		return fmt.Errorf("ragged level: %d/%d/%d/%d/%d/%d", n, len(l.StrokeOut), len(l.StrokeLength), len(l.Term), len(l.Char), len(l.CharLength))
	}
	for i := 0; i < n; i++ {
		if len(l.StrokeIn[i]) != l.StrokeLength[i] || len(l.StrokeOut[i]) != l.StrokeLength[i] || len(l.Term[i]) != l.StrokeLength[i] {
			return fmt.Errorf("unit %d: stroke length %d does not match arrays", i, l.StrokeLength[i])
		}
		if len(l.Char[i]) != l.CharLength[i] {
			return fmt.Errorf("unit %d: char length %d does not match array", i, l.CharLength[i])
		}
		if l.StrokeLength[i] == 0 {
			return fmt.Errorf("unit %d is empty", i)
		}
	}
	return nil
}

// Input is the model view of one sample: the sentence level, the word
// level and one character level per word.
type Input struct {
	Sentence Level
	Word     Level
	Segment  []Level
}

// NewInput converts a sample. Shape problems are errs.Model errors.
func NewInput(s *hierarchy.Sample) (*Input, error) {
	const op = "model.NewInput"

	if err := s.Validate(); err != nil {
		return nil, errs.E(errs.Model, op, err)
	}

	in := &Input{}
	in.Sentence.add(&s.Sentence)
	for i := range s.Words {
		in.Word.add(&s.Words[i])
		var seg Level
		for j := range s.Segments[i] {
			seg.add(&s.Segments[i][j])
		}
		in.Segment = append(in.Segment, seg)
	}

	if err := in.Check(); err != nil {
		return nil, errs.E(errs.Model, op, fmt.Errorf("sample %s/%s: %w", s.WriterID, s.SampleID, err))
	}
	return in, nil
}

// Check verifies the shapes of every level.
func (in *Input) Check() error {
	if in.Sentence.Len() != 1 {
		return fmt.Errorf("sentence level has %d units", in.Sentence.Len())
	}
	if err := in.Sentence.check(); err != nil {
		return fmt.Errorf("sentence: %w", err)
	}
	if in.Word.Len() == 0 {
		return fmt.Errorf("no words")
	}
	if err := in.Word.check(); err != nil {
		return fmt.Errorf("word: %w", err)
	}
	if len(in.Segment) != in.Word.Len() {
		return fmt.Errorf("%d words, %d segment groups", in.Word.Len(), len(in.Segment))
	}
	for i := range in.Segment {
		if err := in.Segment[i].check(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}

// rows converts offsets to [x, y, pen] triples.
func rows(offsets []stroke.Offset) [][3]float64 {
	out := make([][3]float64, len(offsets))
	for i, o := range offsets {
		out[i] = [3]float64{o.X, o.Y, o.Pen}
	}
	return out
}

func offsets(rows [][3]float64) []stroke.Offset {
	out := make([]stroke.Offset, len(rows))
	for i, r := range rows {
		out[i] = stroke.Offset{X: r[0], Y: r[1], Pen: r[2]}
	}
	return out
}

func levelSlots(l *Level) []interface{} {
	in := make([][][3]float64, l.Len())
	out := make([][][3]float64, l.Len())
	for i := range l.StrokeIn {
		in[i] = rows(l.StrokeIn[i])
		out[i] = rows(l.StrokeOut[i])
	}
	return []interface{}{in, out, l.StrokeLength, l.Term, l.Char, l.CharLength}
}

// MarshalJSON encodes the input as an 18 element array: stroke_in,
// stroke_out, stroke_length, term, char and char_length for the sentence,
// word and segment levels in that order. Segment slots are nested per word.
func (in *Input) MarshalJSON() ([]byte, error) {
	slots := make([]interface{}, 0, Slots)
	slots = append(slots, levelSlots(&in.Sentence)...)
	slots = append(slots, levelSlots(&in.Word)...)

	segment := make([][]interface{}, 6)
	for i := range in.Segment {
		for k, v := range levelSlots(&in.Segment[i]) {
			segment[k] = append(segment[k], v)
		}
	}
	for _, v := range segment {
		if v == nil {
			v = []interface{}{}
		}
		slots = append(slots, v)
	}
	return json.Marshal(slots)
}

type levelJSON struct {
	in, out [][][3]float64
	length  []int
	term    [][]float64
	char    [][]int
	charLen []int
}

func (l *levelJSON) targets() []interface{} {
	return []interface{}{&l.in, &l.out, &l.length, &l.term, &l.char, &l.charLen}
}

func (l *levelJSON) level() Level {
	lv := Level{StrokeLength: l.length, Term: l.term, Char: l.char, CharLength: l.charLen}
	for i := range l.in {
		lv.StrokeIn = append(lv.StrokeIn, offsets(l.in[i]))
	}
	for i := range l.out {
		lv.StrokeOut = append(lv.StrokeOut, offsets(l.out[i]))
	}
	return lv
}

// UnmarshalJSON decodes the 18 element array written by MarshalJSON.
func (in *Input) UnmarshalJSON(data []byte) error {
	var slots []json.RawMessage
	if err := json.Unmarshal(data, &slots); err != nil {
		return err
	}
	if len(slots) != Slots {
		return fmt.Errorf("input has %d slots, want %d", len(slots), Slots)
	}

	var sentence, word levelJSON
	for k, target := range sentence.targets() {
		if err := json.Unmarshal(slots[k], target); err != nil {
			return fmt.Errorf("slot %d: %w", k, err)
		}
	}
	for k, target := range word.targets() {
		if err := json.Unmarshal(slots[6+k], target); err != nil {
			return fmt.Errorf("slot %d: %w", 6+k, err)
		}
	}

	var segIn, segOut [][][][3]float64
	var segLength, segCharLen [][]int
	var segTerm [][][]float64
	var segChar [][][]int
	for k, target := range []interface{}{&segIn, &segOut, &segLength, &segTerm, &segChar, &segCharLen} {
		if err := json.Unmarshal(slots[12+k], target); err != nil {
			return fmt.Errorf("slot %d: %w", 12+k, err)
		}
	}
	n := len(segIn)
	if len(segOut) != n || len(segLength) != n || len(segTerm) != n || len(segChar) != n || len(segCharLen) != n {
		return fmt.Errorf("ragged segment slots")
	}

	in.Sentence = sentence.level()
	in.Word = word.level()
	in.Segment = make([]Level, n)
	for i := 0; i < n; i++ {
		l := levelJSON{in: segIn[i], out: segOut[i], length: segLength[i], term: segTerm[i], char: segChar[i], charLen: segCharLen[i]}
		in.Segment[i] = l.level()
	}
	return nil
}
