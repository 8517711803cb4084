package pixset

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an axis-aligned box. X2/Y2 are exclusive.
type Rect struct {
	X      int32 `json:"x"`
	Y      int32 `json:"y"`
	Width  int32 `json:"width"`
	Height int32 `json:"height"`
}

func (r Rect) X2() int32 {
	return r.X + r.Width
}

func (r Rect) Y2() int32 {
	return r.Y + r.Height
}

func (r Rect) Area() int {
	return int(r.Width) * int(r.Height)
}

func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) Intersection(b Rect) Rect {
	x1 := max(r.X, b.X)
	y1 := max(r.Y, b.Y)
	x2 := min(r.X2(), b.X2())
	y2 := min(r.Y2(), b.Y2())
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  max(0, x2-x1),
		Height: max(0, y2-y1),
	}
}

// Returns true if the two boxes share at least one pixel
func (r Rect) Overlaps(b Rect) bool {
	return !r.Intersection(b).IsEmpty()
}

// Dims is the size of a video frame, in pixels
type Dims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dims) Size() int {
	return d.Width * d.Height
}

// Point at the given row-major linear index
func (d Dims) PointAt(index int) Point {
	return Point{X: index % d.Width, Y: index / d.Width}
}

// Row-major linear index of the point
func (d Dims) IndexOf(p Point) int {
	return p.Y*d.Width + p.X
}

func (d Dims) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < d.Width && p.Y < d.Height
}
