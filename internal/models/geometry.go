package models

// Point is a pixel coordinate on the rectified timesheet image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is a quadrilateral bounding box given as four corner points in
// top-left, top-right, bottom-right, bottom-left order.
type Quad [4]Point

// CenterY returns the mean of the four corner y-coordinates.
func (q Quad) CenterY() float64 {
	return (q[0].Y + q[1].Y + q[2].Y + q[3].Y) / 4
}

// CenterX returns the mean of the four corner x-coordinates.
func (q Quad) CenterX() float64 {
	return (q[0].X + q[1].X + q[2].X + q[3].X) / 4
}

// Left returns the left edge: the minimum x of the two left corners.
func (q Quad) Left() float64 {
	if q[0].X < q[3].X {
		return q[0].X
	}
	return q[3].X
}

// Right returns the right edge: the maximum x of the two right corners.
func (q Quad) Right() float64 {
	if q[1].X > q[2].X {
		return q[1].X
	}
	return q[2].X
}

// Top returns the smallest y over all corners.
func (q Quad) Top() float64 {
	min := q[0].Y
	for _, p := range q[1:] {
		if p.Y < min {
			min = p.Y
		}
	}
	return min
}

// QuadFromRect builds an axis-aligned Quad from two opposite corners.
func QuadFromRect(x0, y0, x1, y1 float64) Quad {
	return Quad{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}
