// Package segment partitions the points of a captured sentence into
// per-character and per-word runs using a character label matrix.
package segment

import (
	"sort"
	"unicode"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/log"
	"github.com/inkstone/handsynth/stroke"
	"github.com/inkstone/handsynth/vocab"
)

// Char is one realized character of the text.
type Char struct {
	Rune   rune
	Column int
	Index  int
	Points []int
}

// Word is a maximal run of non-space runes with at least one realized
// character.
type Word struct {
	Text   string
	Chars  []Char
	Points []int
}

// Result is the output of Segment. Point lists hold indices into Points.
type Result struct {
	Text   string
	Points []stroke.Point

	// Owner is the label column of every point, -1 when unassigned.
	Owner []int
	// CharIndex is the vocabulary index of every point's character.
	CharIndex []int
	// Term is 1 at the last point of every realized character and at the
	// final point of the sentence.
	Term []float64

	Chars []Char
	Words []Word
	// Skipped lists the non-space columns that had no points.
	Skipped []int
}

// Segmenter splits sentences into characters and words.
type Segmenter struct {
	vocab *vocab.Vocabulary
}

// New returns a Segmenter bound to v.
func New(v *vocab.Vocabulary) *Segmenter {
	return &Segmenter{vocab: v}
}

// Segment validates the inputs and partitions points. Any malformed input
// is reported as an errs.Validation error.
func (s *Segmenter) Segment(text string, points []stroke.Point, labels LabelMatrix) (*Result, error) {
	const op = "segment.Segment"

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, errs.Errorf(errs.Validation, op, "empty text")
	}
	if len(points) == 0 {
		return nil, errs.Errorf(errs.Validation, op, "no points for %q", text)
	}
	if err := labels.Validate(len(points), len(runes)); err != nil {
		return nil, err
	}

	res := &Result{
		Text:      text,
		Points:    points,
		Owner:     make([]int, len(points)),
		CharIndex: make([]int, len(points)),
		Term:      make([]float64, len(points)),
	}

	byColumn := make([][]int, len(runes))
	for i := range points {
		owner := labels.Owner(i)
		res.Owner[i] = owner
		if owner < 0 {
			res.CharIndex[i] = s.vocab.Index(' ')
			continue
		}
		res.CharIndex[i] = s.vocab.Index(runes[owner])
		byColumn[owner] = append(byColumn[owner], i)
	}

	var word *Word
	flush := func() {
		if word == nil {
			return
		}
		if len(word.Chars) == 0 {
			log.Warning.Printf("word %q has no points, skipped", word.Text)
		} else {
			sort.Ints(word.Points)
			res.Words = append(res.Words, *word)
		}
		word = nil
	}

	for j, r := range runes {
		if unicode.IsSpace(r) {
			if len(byColumn[j]) > 0 {
				log.Warning.Printf("%d points labelled as space at column %d", len(byColumn[j]), j)
			}
			flush()
			continue
		}
		if word == nil {
			word = &Word{}
		}
		word.Text += string(r)

		idx := byColumn[j]
		if len(idx) == 0 {
			log.Warning.Printf("character %q at column %d has no points, excluded", r, j)
			res.Skipped = append(res.Skipped, j)
			continue
		}

		c := Char{Rune: r, Column: j, Index: s.vocab.Index(r), Points: idx}
		res.Chars = append(res.Chars, c)
		word.Chars = append(word.Chars, c)
		word.Points = append(word.Points, idx...)
		res.Term[idx[len(idx)-1]] = 1
	}
	flush()

	res.Term[len(points)-1] = 1

	log.Trace.Printf("segmented %q: %d points, %d chars, %d words, %d skipped",
		text, len(points), len(res.Chars), len(res.Words), len(res.Skipped))
	return res, nil
}

// Select returns the points at the given indices.
func (r *Result) Select(idx []int) []stroke.Point {
	out := make([]stroke.Point, len(idx))
	for i, k := range idx {
		out[i] = r.Points[k]
	}
	return out
}

// SelectChars returns the per-point character indices at idx.
func (r *Result) SelectChars(idx []int) []int {
	out := make([]int, len(idx))
	for i, k := range idx {
		out[i] = r.CharIndex[k]
	}
	return out
}

// UnitTerm returns a term array of length n that is 0 everywhere except
// its last element.
func UnitTerm(n int) []float64 {
	term := make([]float64, n)
	if n > 0 {
		term[n-1] = 1
	}
	return term
}
