// Package stroke holds the point model and the delta encoder that turns
// absolute pen trajectories into offset sequences.
package stroke

import "fmt"

// PenState is the state of the pen at a captured point.
type PenState uint8

const (
	// PenDown means the pen is on the paper and the stroke continues.
	PenDown PenState = iota
	// PenUp means the point was recorded with the pen lifted.
	PenUp
	// StrokeEnd marks the last point of a pen-down run.
	StrokeEnd
)

func (p PenState) String() string {
	switch p {
	case PenDown:
		return "down"
	case PenUp:
		return "up"
	case StrokeEnd:
		return "end"
	}
	return fmt.Sprintf("PenState(%d)", uint8(p))
}

// Lifted reports whether the pen leaves the paper after this point.
func (p PenState) Lifted() bool {
	return p != PenDown
}

// Channel returns the value written to the pen channel of an offset.
func (p PenState) Channel() float64 {
	if p.Lifted() {
		return 1
	}
	return 0
}

// PenFromChannel converts an offset pen channel back to a state.
func PenFromChannel(v float64) PenState {
	if v >= 0.5 {
		return StrokeEnd
	}
	return PenDown
}

// PenConvention names how a legacy source encodes its pen column.
type PenConvention string

const (
	// EndFlag: 1 marks the last point of a stroke, 0 a continuing point.
	EndFlag PenConvention = "end-flag"
	// DownFlag: 1 marks a pen-down point, 0 a pen-up point.
	DownFlag PenConvention = "down-flag"
)

// ParsePenConvention validates a convention name.
func ParsePenConvention(s string) (PenConvention, error) {
	switch c := PenConvention(s); c {
	case EndFlag, DownFlag:
		return c, nil
	}
	return "", fmt.Errorf("unknown pen convention %q", s)
}

// Pen converts a legacy pen value under convention c.
func (c PenConvention) Pen(v float64) PenState {
	set := v >= 0.5
	if c == DownFlag {
		if set {
			return PenDown
		}
		return PenUp
	}
	if set {
		return StrokeEnd
	}
	return PenDown
}

// Point is one captured sample of the pen trajectory.
type Point struct {
	X   float64  `json:"x"`
	Y   float64  `json:"y"`
	Pen PenState `json:"pen"`
}

// Sub returns the x,y difference p - q with the pen of p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y, Pen: p.Pen}
}

// Offset is one row of an offset array: a delta and a pen channel value.
type Offset struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Pen float64 `json:"pen"`
}

// Stroke is a continuous pen-down run of points.
type Stroke []Point

// Split cuts points into strokes at every lifted point. A lifted point
// closes the stroke it belongs to; PenUp points that carry no ink on their
// own are not emitted as single-point strokes.
func Split(points []Point) []Stroke {
	var strokes []Stroke
	var cur Stroke
	for _, p := range points {
		if p.Pen == PenUp && len(cur) == 0 {
			continue
		}
		cur = append(cur, p)
		if p.Pen.Lifted() {
			strokes = append(strokes, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		strokes = append(strokes, cur)
	}
	return strokes
}

// Join concatenates strokes into one point sequence, marking the last point
// of every stroke as StrokeEnd.
func Join(strokes []Stroke) []Point {
	var points []Point
	for _, s := range strokes {
		if len(s) == 0 {
			continue
		}
		points = append(points, s...)
		points[len(points)-1].Pen = StrokeEnd
	}
	return points
}

// Bounds returns the bounding box of points. ok is false for empty input.
func Bounds(points []Point) (minX, minY, maxX, maxY float64, ok bool) {
	if len(points) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = points[0].X, points[0].Y
	maxX, maxY = minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY, true
}

// Translate returns a copy of points moved by dx, dy.
func Translate(points []Point, dx, dy float64) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy, Pen: p.Pen}
	}
	return out
}
