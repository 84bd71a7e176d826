package stroke

// BaselineY is the reference y coordinate used as anchor when the
// prediction offset is 1.
const BaselineY = 500

// Anchor returns the absolute point the first delta is measured from.
// predictionOffset 1 anchors at (0, BaselineY); any other value anchors at
// the first point itself.
func Anchor(points []Point, predictionOffset int) Point {
	if predictionOffset == 1 || len(points) == 0 {
		return Point{X: 0, Y: BaselineY}
	}
	return Point{X: points[0].X, Y: points[0].Y}
}

// Deltas returns one offset per point: the difference to the previous
// point (or to the anchor for the first one). The pen channel of delta i
// carries the pen of point i-1, so an offset describes a move together
// with the pen state that triggered it.
func Deltas(points []Point, predictionOffset int) []Offset {
	if len(points) == 0 {
		return nil
	}

	anchor := Anchor(points, predictionOffset)
	deltas := make([]Offset, len(points))

	first := Offset{X: points[0].X - anchor.X, Y: points[0].Y - anchor.Y}
	if predictionOffset == 1 {
		first.Pen = points[0].Pen.Channel()
	}
	deltas[0] = first

	for i := 1; i < len(points); i++ {
		deltas[i] = Offset{
			X:   points[i].X - points[i-1].X,
			Y:   points[i].Y - points[i-1].Y,
			Pen: points[i-1].Pen.Channel(),
		}
	}
	return deltas
}

// Encode builds the teacher-forcing pair for points. A zero row is placed
// before the deltas; in is that sequence without its last row and out is
// it without its first row, so out[i] is the target following in[i].
// Both have one row per input point. Empty input yields empty output.
func Encode(points []Point, predictionOffset int) (in, out []Offset) {
	deltas := Deltas(points, predictionOffset)
	if len(deltas) == 0 {
		return []Offset{}, []Offset{}
	}

	in = make([]Offset, len(deltas))
	copy(in[1:], deltas[:len(deltas)-1])

	out = make([]Offset, len(deltas))
	copy(out, deltas)
	return in, out
}

// Decode rebuilds absolute points from offsets by cumulative summation
// starting at anchor. Point i takes its pen from offset i+1, which carries
// the state of point i; the final point is marked StrokeEnd.
func Decode(anchor Point, offsets []Offset) []Point {
	points := make([]Point, len(offsets))
	x, y := anchor.X, anchor.Y
	for i, o := range offsets {
		x += o.X
		y += o.Y
		points[i] = Point{X: x, Y: y, Pen: StrokeEnd}
		if i > 0 {
			points[i-1].Pen = PenFromChannel(o.Pen)
		}
	}
	return points
}

// Normalize returns a copy of offsets with x and y divided by divider.
// The pen channel is left alone.
func Normalize(offsets []Offset, divider float64) []Offset {
	out := make([]Offset, len(offsets))
	for i, o := range offsets {
		out[i] = Offset{X: o.X / divider, Y: o.Y / divider, Pen: o.Pen}
	}
	return out
}

// Denormalize reverses Normalize.
func Denormalize(offsets []Offset, divider float64) []Offset {
	out := make([]Offset, len(offsets))
	for i, o := range offsets {
		out[i] = Offset{X: o.X * divider, Y: o.Y * divider, Pen: o.Pen}
	}
	return out
}
