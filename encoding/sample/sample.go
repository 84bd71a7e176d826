// Package sample implements the versioned binary format of persisted
// hierarchical samples.
//
// A file starts with a 32 byte header padded with spaces, followed by
// little-endian slots in a fixed order:
//
//	identity   writer id, sample id, text, divider, prediction offset,
//	           word texts, character texts per word
//	sentence   raw_stroke, stroke_in, stroke_out, term, char, char_length
//	word       raw_stroke[], stroke_in[], stroke_out[], stroke_length[],
//	           term[], char[], char_length[]
//	segment    the seven word slots, nested per word
//	degenerate one flag per unit, sentence first, then every word followed
//	           by its characters
//	metadata   key/value pairs sorted by key
//
// Strings are a uint32 byte count followed by UTF-8 bytes. Arrays are a
// uint32 element count followed by the elements. Points are x, y as
// float64 and the pen as one byte; offsets are three float64.
package sample

import (
	"strings"

	"github.com/inkstone/handsynth/hierarchy"
)

// Version is the current format version.
const Version = 1

const (
	// HeaderV1 is the header of version 1 files.
	HeaderV1 = "handsynth sample, version=1     "
	// HeaderLen is the size of every header.
	HeaderLen = 32
)

const headerPrefix = "handsynth sample, version="

// Ext is the file extension of persisted samples.
const Ext = ".hsample"

func isSample(header string) bool {
	return strings.HasPrefix(header, headerPrefix)
}

// Marshal encodes s in the current version.
func Marshal(s *hierarchy.Sample) ([]byte, error) {
	w := new(writer)
	if err := w.writeSample(s); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes a sample of any supported version.
func Unmarshal(data []byte) (*hierarchy.Sample, error) {
	r := newReader(data)
	if err := r.checkHeader(); err != nil {
		return nil, err
	}
	return r.readSample()
}
