package extract

// Point is a coordinate in crop-local pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Fragment is one piece of text detected by a recognition backend within a
// cropped metric region: its quadrilateral location, the recognized text and
// the backend's confidence in [0,1]. Fragments are ephemeral; they exist only
// between a Recognize call and the Select call that consumes them.
type Fragment struct {
	Quad       [4]Point `json:"quad"`
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
}

// Centroid returns the arithmetic mean of the four quadrilateral corners.
func (f Fragment) Centroid() Point {
	var cx, cy float64
	for _, p := range f.Quad {
		cx += p.X
		cy += p.Y
	}
	return Point{X: cx / 4, Y: cy / 4}
}

// QuadFromRect builds an axis-aligned quadrilateral from rectangle corners,
// ordered clockwise from the top-left. Backends that only report rectangular
// boxes (e.g. Tesseract word boxes) use this to fit the Fragment shape.
func QuadFromRect(x1, y1, x2, y2 float64) [4]Point {
	return [4]Point{
		{X: x1, Y: y1},
		{X: x2, Y: y1},
		{X: x2, Y: y2},
		{X: x1, Y: y2},
	}
}
