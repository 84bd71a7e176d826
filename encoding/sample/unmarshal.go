package sample

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/stroke"
)

const op = "sample.Unmarshal"

// reader decodes the slots of a sample. The first failure sticks and every
// later read returns zero values.
type reader struct {
	bytes.Reader
	version int
	err     error
}

func newReader(data []byte) *reader {
	return &reader{Reader: *bytes.NewReader(data)}
}

func (r *reader) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = errs.Errorf(errs.Data, op, format, args...)
	}
}

func (r *reader) checkHeader() error {
	buf := make([]byte, HeaderLen)
	n, _ := r.Read(buf)
	if n != HeaderLen {
		return errs.Errorf(errs.Data, op, "wrong header size %d", n)
	}

	header := string(buf)
	switch header {
	case HeaderV1:
		r.version = 1
		return nil
	}
	if isSample(header) {
		return errs.Errorf(errs.Data, op, "unsupported version %q", bytes.TrimSpace(buf[len(headerPrefix):]))
	}
	return errs.Errorf(errs.Data, op, "unknown header")
}

func (r *reader) read(v interface{}) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		r.fail("truncated data at offset %d", r.Size()-int64(r.Len()))
	}
}

// readNumber reads a count, refusing values that cannot fit in the
// remaining data given elemSize bytes per element.
func (r *reader) readNumber(elemSize int) int {
	var n uint32
	r.read(&n)
	if r.err != nil {
		return 0
	}
	if elemSize > 0 && int64(n)*int64(elemSize) > int64(r.Len()) {
		r.fail("count %d exceeds remaining %d bytes", n, r.Len())
		return 0
	}
	return int(n)
}

func (r *reader) readInt() int {
	var n int32
	r.read(&n)
	return int(n)
}

func (r *reader) readFloat64() float64 {
	var f float64
	r.read(&f)
	return f
}

func (r *reader) readString() string {
	n := r.readNumber(1)
	if r.err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		r.fail("truncated string")
		return ""
	}
	return string(buf)
}

func (r *reader) readBool() bool {
	var b uint8
	r.read(&b)
	return b == 1
}

func (r *reader) readPoints() []stroke.Point {
	n := r.readNumber(17)
	points := make([]stroke.Point, n)
	for i := range points {
		points[i].X = r.readFloat64()
		points[i].Y = r.readFloat64()
		var pen uint8
		r.read(&pen)
		if pen > uint8(stroke.StrokeEnd) {
			r.fail("invalid pen state %d", pen)
		}
		points[i].Pen = stroke.PenState(pen)
	}
	return points
}

func (r *reader) readOffsets() []stroke.Offset {
	n := r.readNumber(24)
	offsets := make([]stroke.Offset, n)
	for i := range offsets {
		offsets[i].X = r.readFloat64()
		offsets[i].Y = r.readFloat64()
		offsets[i].Pen = r.readFloat64()
	}
	return offsets
}

func (r *reader) readFloats() []float64 {
	n := r.readNumber(8)
	values := make([]float64, n)
	for i := range values {
		values[i] = r.readFloat64()
	}
	return values
}

func (r *reader) readInts() []int {
	n := r.readNumber(4)
	values := make([]int, n)
	for i := range values {
		values[i] = r.readInt()
	}
	return values
}

func (r *reader) expectCount(what string, got, want int) {
	if r.err == nil && got != want {
		r.fail("%s: %d entries, want %d", what, got, want)
	}
}

// readUnits reads the seven per-level slots into units, which must already
// be sized and carry their texts.
func (r *reader) readUnits(level string, units []hierarchy.Unit) {
	r.expectCount(level, r.readNumber(0), len(units))
	if r.err != nil {
		return
	}
	for i := range units {
		units[i].Raw = r.readPoints()
		units[i].Length = len(units[i].Raw)
	}
	for i := range units {
		units[i].StrokeIn = r.readOffsets()
	}
	for i := range units {
		units[i].StrokeOut = r.readOffsets()
	}
	for i := range units {
		r.expectCount(level+" stroke_length", r.readNumber(0), len(units[i].StrokeIn))
	}
	for i := range units {
		units[i].Term = r.readFloats()
	}
	for i := range units {
		units[i].Char = r.readInts()
	}
	for i := range units {
		r.expectCount(level+" char_length", r.readNumber(0), len(units[i].Char))
	}
}

func (r *reader) readSample() (*hierarchy.Sample, error) {
	s := &hierarchy.Sample{Version: r.version}

	// identity
	s.WriterID = r.readString()
	s.SampleID = r.readString()
	s.Text = r.readString()
	s.Divider = r.readFloat64()
	s.PredictionOffset = r.readInt()
	nbWords := r.readNumber(8)
	s.Words = make([]hierarchy.Unit, nbWords)
	s.Segments = make([][]hierarchy.Unit, nbWords)
	for i := 0; i < nbWords && r.err == nil; i++ {
		s.Words[i].Text = r.readString()
		s.Segments[i] = make([]hierarchy.Unit, r.readNumber(4))
		for j := range s.Segments[i] {
			s.Segments[i][j].Text = r.readString()
		}
	}
	if r.err == nil && (math.IsNaN(s.Divider) || s.Divider <= 0) {
		r.fail("invalid divider %v", s.Divider)
	}

	// sentence
	u := &s.Sentence
	u.Text = s.Text
	u.Raw = r.readPoints()
	u.Length = len(u.Raw)
	u.StrokeIn = r.readOffsets()
	u.StrokeOut = r.readOffsets()
	u.Term = r.readFloats()
	u.Char = r.readInts()
	r.expectCount("sentence char_length", r.readNumber(0), len(u.Char))

	// word
	r.readUnits("word", s.Words)

	// segment
	r.expectCount("segment groups", r.readNumber(0), len(s.Segments))
	for i := range s.Segments {
		if r.err != nil {
			break
		}
		r.readUnits(fmt.Sprintf("segment %d", i), s.Segments[i])
	}

	// degenerate flags
	if r.err == nil {
		s.Walk(func(_ hierarchy.UnitRef, u *hierarchy.Unit) error {
			u.Degenerate = r.readBool()
			return nil
		})
	}

	// metadata
	nbMeta := r.readNumber(8)
	if nbMeta > 0 {
		s.Meta = make(map[string]string, nbMeta)
	}
	for i := 0; i < nbMeta && r.err == nil; i++ {
		k := r.readString()
		s.Meta[k] = r.readString()
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.Len() != 0 {
		return nil, errs.Errorf(errs.Data, op, "%d trailing bytes", r.Len())
	}
	return s, nil
}
