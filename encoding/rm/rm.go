// Package rm reads and writes reMarkable .rm page files (versions 3 and 5)
// used as a capture source for handwriting samples.
//
// A page is a header followed by layers; every layer holds lines (pen
// strokes) and every line holds points with their pen dynamics.
package rm

// Version of a page file.
type Version int

const (
	V3 Version = iota + 3
	_
	V5
)

const (
	HeaderV3  = "reMarkable .lines file, version=3          "
	HeaderV5  = "reMarkable .lines file, version=5          "
	HeaderLen = 43
)

// DeviceWidth and DeviceHeight are the page size in device units.
const (
	DeviceWidth  = 1404
	DeviceHeight = 1872
)

// BrushType is the tool a line was drawn with.
type BrushType int32

const (
	Brush         BrushType = 0
	TiltPencil    BrushType = 1
	BallPoint     BrushType = 2
	Marker        BrushType = 3
	Fineliner     BrushType = 4
	Highlighter   BrushType = 5
	Eraser        BrushType = 6
	SharpPencil   BrushType = 7
	EraseArea     BrushType = 8
	PaintbrushV5  BrushType = 12
	MechanicalV5  BrushType = 13
	PencilV5      BrushType = 14
	BallpointV5   BrushType = 15
	MarkerV5      BrushType = 16
	FinelinerV5   BrushType = 17
	HighlighterV5 BrushType = 18
	CalligraphyV5 BrushType = 21
)

// Erases reports whether lines of this brush remove ink instead of adding it.
func (b BrushType) Erases() bool {
	return b == Eraser || b == EraseArea
}

// BrushColor is the color of a line.
type BrushColor int32

const (
	Black BrushColor = 0
	Grey  BrushColor = 1
	White BrushColor = 2
)

// BrushSize is the base width of a line.
type BrushSize float32

const (
	Small  BrushSize = 1.875
	Medium BrushSize = 2.0
	Large  BrushSize = 2.125
)

// Rm is one page.
type Rm struct {
	Version Version
	Layers  []Layer
}

// Layer groups lines.
type Layer struct {
	Lines []Line
}

// Line is one pen stroke.
type Line struct {
	BrushType  BrushType
	BrushColor BrushColor
	Padding    uint32
	Unknown    float32
	BrushSize  BrushSize
	Points     []Point
}

// Point is one sample of a line.
type Point struct {
	X         float32
	Y         float32
	Speed     float32
	Direction float32
	Width     float32
	Pressure  float32
}

// Lines returns the ink lines of every layer in drawing order, skipping
// eraser lines and lines without points.
func (rm *Rm) Lines() []Line {
	var lines []Line
	for _, layer := range rm.Layers {
		for _, line := range layer.Lines {
			if line.BrushType.Erases() || len(line.Points) == 0 {
				continue
			}
			lines = append(lines, line)
		}
	}
	return lines
}
