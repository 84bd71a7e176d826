package rm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MarshalBinary implements encoding.BinaryMarshaler. Pages without a
// version are written as V5.
func (rm *Rm) MarshalBinary() (data []byte, err error) {
	version := rm.Version
	if version == 0 {
		version = V5
	}
	if version != V3 && version != V5 {
		return nil, fmt.Errorf("can't write version %d", version)
	}

	w := &writer{version: version}
	w.writeHeader()

	w.writeNumber(len(rm.Layers))
	for _, layer := range rm.Layers {
		w.writeNumber(len(layer.Lines))
		for _, line := range layer.Lines {
			w.writeLine(line)
		}
	}

	return w.Bytes(), nil
}

type writer struct {
	b       bytes.Buffer
	version Version
}

func (w *writer) Bytes() []byte {
	return w.b.Bytes()
}

func (w *writer) writeHeader() {
	if w.version == V3 {
		w.b.WriteString(HeaderV3)
		return
	}
	w.b.WriteString(HeaderV5)
}

func (w *writer) writeNumber(n int) {
	binary.Write(&w.b, binary.LittleEndian, uint32(n))
}

func (w *writer) write(v interface{}) {
	binary.Write(&w.b, binary.LittleEndian, v)
}

func (w *writer) writeLine(line Line) {
	w.write(line.BrushType)
	w.write(line.BrushColor)
	w.write(line.Padding)
	w.write(line.BrushSize)
	if w.version == V5 {
		w.write(line.Unknown)
	}

	w.writeNumber(len(line.Points))
	for _, point := range line.Points {
		w.write(point)
	}
}
