// Package pixset holds sets of integer pixel coordinates, and the
// Intersection over Union score between two of them.
package pixset

import "sort"

// PixelSet is an unordered, duplicate-free set of pixel coordinates.
// The zero value is not usable; create with New or FromPoints.
type PixelSet struct {
	points map[Point]struct{}
	bounds Rect
}

func New() *PixelSet {
	return &PixelSet{
		points: map[Point]struct{}{},
	}
}

// FromPoints builds a set, silently dropping duplicates
func FromPoints(points []Point) *PixelSet {
	s := &PixelSet{
		points: make(map[Point]struct{}, len(points)),
	}
	for _, p := range points {
		s.Add(p)
	}
	return s
}

// Add a point. Adding an existing point is a no-op.
func (s *PixelSet) Add(p Point) {
	if _, ok := s.points[p]; ok {
		return
	}
	if len(s.points) == 0 {
		s.bounds = Rect{X: int32(p.X), Y: int32(p.Y), Width: 1, Height: 1}
	} else {
		x1 := min(s.bounds.X, int32(p.X))
		y1 := min(s.bounds.Y, int32(p.Y))
		x2 := max(s.bounds.X2(), int32(p.X)+1)
		y2 := max(s.bounds.Y2(), int32(p.Y)+1)
		s.bounds = Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
	}
	s.points[p] = struct{}{}
}

func (s *PixelSet) Contains(p Point) bool {
	_, ok := s.points[p]
	return ok
}

func (s *PixelSet) Len() int {
	return len(s.points)
}

// Bounds returns the tightest box holding every point.
// For an empty set, the box is empty.
func (s *PixelSet) Bounds() Rect {
	return s.bounds
}

// Points returns the points in row-major order (y, then x)
func (s *PixelSet) Points() []Point {
	pts := make([]Point, 0, len(s.points))
	for p := range s.points {
		pts = append(pts, p)
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
	return pts
}

// IntersectionSize returns |s ∩ b|
func (s *PixelSet) IntersectionSize(b *PixelSet) int {
	small, big := s, b
	if small.Len() > big.Len() {
		small, big = big, small
	}
	if !small.bounds.Overlaps(big.bounds) {
		return 0
	}
	n := 0
	for p := range small.points {
		if big.Contains(p) {
			n++
		}
	}
	return n
}

// Intersection over Union.
// At least one of the two sets must be non-empty.
func (s *PixelSet) IOU(b *PixelSet) float64 {
	inter := s.IntersectionSize(b)
	union := s.Len() + b.Len() - inter
	return float64(inter) / float64(union)
}

// Equal returns true if both sets hold exactly the same points
func (s *PixelSet) Equal(b *PixelSet) bool {
	return s.Len() == b.Len() && s.IntersectionSize(b) == s.Len()
}
