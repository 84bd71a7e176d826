package rm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// pointSize is the encoded size of a Point.
const pointSize = 24

// UnmarshalBinary implements encoding.BinaryUnmarshaler for V3 and V5
// pages.
func (rm *Rm) UnmarshalBinary(data []byte) error {
	r := newReader(data)
	if err := r.checkHeader(); err != nil {
		return err
	}
	rm.Version = r.version

	nbLayers, err := r.readNumber()
	if err != nil {
		return err
	}

	rm.Layers = make([]Layer, 0, nbLayers)
	for i := uint32(0); i < nbLayers; i++ {
		nbLines, err := r.readNumber()
		if err != nil {
			return err
		}

		layer := Layer{Lines: make([]Line, 0, min(int(nbLines), r.Len()))}
		for j := uint32(0); j < nbLines; j++ {
			line, err := r.readLine()
			if err != nil {
				return fmt.Errorf("layer %d line %d: %w", i, j, err)
			}
			layer.Lines = append(layer.Lines, line)
		}
		rm.Layers = append(rm.Layers, layer)
	}

	return nil
}

type reader struct {
	bytes.Reader
	version Version
}

func newReader(data []byte) *reader {
	return &reader{Reader: *bytes.NewReader(data), version: V5}
}

func (r *reader) checkHeader() error {
	buf := make([]byte, HeaderLen)

	n, _ := r.Read(buf)
	if n != HeaderLen {
		return fmt.Errorf("wrong header size")
	}

	switch string(buf) {
	case HeaderV5:
		r.version = V5
	case HeaderV3:
		r.version = V3
	default:
		if strings.HasPrefix(string(buf), "reMarkable .lines file, version=") {
			return fmt.Errorf("unsupported page version %q", strings.TrimSpace(string(buf[32:])))
		}
		return fmt.Errorf("unknown header")
	}

	return nil
}

func (r *reader) readNumber() (uint32, error) {
	var nb uint32
	if err := binary.Read(r, binary.LittleEndian, &nb); err != nil {
		return 0, fmt.Errorf("wrong number read")
	}
	return nb, nil
}

func (r *reader) readLine() (Line, error) {
	var line Line

	fields := []interface{}{&line.BrushType, &line.BrushColor, &line.Padding, &line.BrushSize}
	// this attribute was added in v5
	if r.version == V5 {
		fields = append(fields, &line.Unknown)
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return line, fmt.Errorf("failed to read line")
		}
	}

	nbPoints, err := r.readNumber()
	if err != nil {
		return line, err
	}
	if int64(nbPoints)*pointSize > int64(r.Len()) {
		return line, fmt.Errorf("line claims %d points, %d bytes left", nbPoints, r.Len())
	}
	if nbPoints == 0 {
		return line, nil
	}

	line.Points = make([]Point, nbPoints)
	if err := binary.Read(r, binary.LittleEndian, line.Points); err != nil {
		return line, fmt.Errorf("failed to read points")
	}

	return line, nil
}
