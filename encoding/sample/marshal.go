package sample

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/inkstone/handsynth/errs"
	"github.com/inkstone/handsynth/hierarchy"
	"github.com/inkstone/handsynth/stroke"
)

type writer struct {
	b bytes.Buffer
}

func (w *writer) Bytes() []byte {
	return w.b.Bytes()
}

func (w *writer) writeHeader() {
	w.b.WriteString(HeaderV1)
}

func (w *writer) writeNumber(n int) {
	binary.Write(&w.b, binary.LittleEndian, uint32(n))
}

func (w *writer) writeInt(n int) {
	binary.Write(&w.b, binary.LittleEndian, int32(n))
}

func (w *writer) writeFloat64(f float64) {
	binary.Write(&w.b, binary.LittleEndian, f)
}

func (w *writer) writeString(s string) {
	w.writeNumber(len(s))
	w.b.WriteString(s)
}

func (w *writer) writeBool(v bool) {
	if v {
		w.b.WriteByte(1)
		return
	}
	w.b.WriteByte(0)
}

func (w *writer) writePoints(points []stroke.Point) {
	w.writeNumber(len(points))
	for _, p := range points {
		w.writeFloat64(p.X)
		w.writeFloat64(p.Y)
		w.b.WriteByte(byte(p.Pen))
	}
}

func (w *writer) writeOffsets(offsets []stroke.Offset) {
	w.writeNumber(len(offsets))
	for _, o := range offsets {
		w.writeFloat64(o.X)
		w.writeFloat64(o.Y)
		w.writeFloat64(o.Pen)
	}
}

func (w *writer) writeFloats(values []float64) {
	w.writeNumber(len(values))
	for _, v := range values {
		w.writeFloat64(v)
	}
}

func (w *writer) writeInts(values []int) {
	w.writeNumber(len(values))
	for _, v := range values {
		w.writeInt(v)
	}
}

// writeUnits writes the seven per-level slots of a list of units.
func (w *writer) writeUnits(units []hierarchy.Unit) {
	w.writeNumber(len(units))
	for i := range units {
		w.writePoints(units[i].Raw)
	}
	for i := range units {
		w.writeOffsets(units[i].StrokeIn)
	}
	for i := range units {
		w.writeOffsets(units[i].StrokeOut)
	}
	for i := range units {
		w.writeNumber(units[i].StrokeLength())
	}
	for i := range units {
		w.writeFloats(units[i].Term)
	}
	for i := range units {
		w.writeInts(units[i].Char)
	}
	for i := range units {
		w.writeNumber(units[i].CharLength())
	}
}

func (w *writer) writeSample(s *hierarchy.Sample) error {
	if len(s.Words) != len(s.Segments) {
		return errs.Errorf(errs.Data, "sample.Marshal", "%d words, %d segment groups", len(s.Words), len(s.Segments))
	}

	w.writeHeader()

	// identity
	w.writeString(s.WriterID)
	w.writeString(s.SampleID)
	w.writeString(s.Text)
	w.writeFloat64(s.Divider)
	w.writeInt(s.PredictionOffset)
	w.writeNumber(len(s.Words))
	for i := range s.Words {
		w.writeString(s.Words[i].Text)
		w.writeNumber(len(s.Segments[i]))
		for j := range s.Segments[i] {
			w.writeString(s.Segments[i][j].Text)
		}
	}

	// sentence
	u := &s.Sentence
	w.writePoints(u.Raw)
	w.writeOffsets(u.StrokeIn)
	w.writeOffsets(u.StrokeOut)
	w.writeFloats(u.Term)
	w.writeInts(u.Char)
	w.writeNumber(u.CharLength())

	// word
	w.writeUnits(s.Words)

	// segment
	w.writeNumber(len(s.Segments))
	for _, chars := range s.Segments {
		w.writeUnits(chars)
	}

	// degenerate flags
	s.Walk(func(_ hierarchy.UnitRef, u *hierarchy.Unit) error {
		w.writeBool(u.Degenerate)
		return nil
	})

	// metadata
	keys := make([]string, 0, len(s.Meta))
	for k := range s.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.writeNumber(len(keys))
	for _, k := range keys {
		w.writeString(k)
		w.writeString(s.Meta[k])
	}

	return nil
}
