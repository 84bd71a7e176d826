// Package vocab holds the character vocabulary shared by samples and the
// synthesis model. Indices are part of the persisted format and of the
// model weights, so the default ordering must never change.
package vocab

import (
	"fmt"
	"strings"
)

// DefaultCharset is the ordered character set the model was trained on.
// Index 0 is space, which is also the fallback for unknown characters.
const DefaultCharset = " !\"#$%&'()*+,-./0123456789:;<=>?ABCDEFGHIJKLMNOPQRSTUVWXYZ[]abcdefghijklmnopqrstuvwxyz"

// Vocabulary maps runes to indices and back. It is immutable after creation.
type Vocabulary struct {
	runeToID map[rune]int
	idToRune []rune
}

// Default returns the vocabulary built from DefaultCharset.
func Default() *Vocabulary {
	v, err := New(DefaultCharset)
	if err != nil {
		panic(err)
	}
	return v
}

// New builds a vocabulary from an ordered charset. The first rune is the
// fallback for unknown input.
func New(charset string) (*Vocabulary, error) {
	runes := []rune(charset)
	if len(runes) == 0 {
		return nil, fmt.Errorf("vocab: empty charset")
	}

	runeToID := make(map[rune]int, len(runes))
	for i, r := range runes {
		if _, dup := runeToID[r]; dup {
			return nil, fmt.Errorf("vocab: duplicate rune %q at %d", r, i)
		}
		runeToID[r] = i
	}

	return &Vocabulary{runeToID: runeToID, idToRune: runes}, nil
}

// Size returns the number of characters.
func (v *Vocabulary) Size() int {
	return len(v.idToRune)
}

// Index returns the index of r, or the fallback index 0 when r is unknown.
func (v *Vocabulary) Index(r rune) int {
	id, ok := v.runeToID[r]
	if !ok {
		return 0
	}
	return id
}

// Contains reports whether r is part of the vocabulary.
func (v *Vocabulary) Contains(r rune) bool {
	_, ok := v.runeToID[r]
	return ok
}

// Rune returns the rune at id, or '?' when id is out of range.
func (v *Vocabulary) Rune(id int) rune {
	if id < 0 || id >= len(v.idToRune) {
		return '?'
	}
	return v.idToRune[id]
}

// Encode converts s to indices, one per rune.
func (v *Vocabulary) Encode(s string) []int {
	ids := make([]int, 0, len(s))
	for _, r := range s {
		ids = append(ids, v.Index(r))
	}
	return ids
}

// EncodeWindow converts s to exactly width indices, padding with the
// fallback index and truncating extra runes. truncated reports whether
// runes were dropped.
func (v *Vocabulary) EncodeWindow(s string, width int) (ids []int, truncated bool) {
	ids = v.Encode(s)
	if len(ids) > width {
		return ids[:width], true
	}
	for len(ids) < width {
		ids = append(ids, 0)
	}
	return ids, false
}

// Decode converts indices back to a string.
func (v *Vocabulary) Decode(ids []int) string {
	var b strings.Builder
	b.Grow(len(ids))
	for _, id := range ids {
		b.WriteRune(v.Rune(id))
	}
	return b.String()
}
