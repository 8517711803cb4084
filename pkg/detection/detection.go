package detection

import (
	"github.com/chewxy/math32"
	"github.com/fmo-detect/fmoeval/pkg/pixset"
)

// Vec2 is a 2D vector in pixel space
type Vec2 struct {
	X float32
	Y float32
}

func (v Vec2) Length() float32 {
	return math32.Hypot(v.X, v.Y)
}

// Normalized returns the unit vector in the direction of v, or the zero vector
// if v has no length.
func (v Vec2) Normalized() Vec2 {
	l := v.Length()
	if l == 0 || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Object describes a detected object. Every field is optional, because
// detectors differ in what they are able to estimate.
type Object struct {
	ID        *int
	Center    *Vec2
	Direction *Vec2    // Unit vector of travel
	Length    *float32 // Length of the motion blur streak, in pixels
	Radius    *float32 // In pixels
	Velocity  *float32 // In pixels per frame
}

// Detection is one object found by the detector in one frame
type Detection struct {
	Object      Object
	Predecessor *int // ID of the same object in a previous frame
	Pixels      *pixset.PixelSet
}

// Output is everything the detector produced for one frame
type Output struct {
	Detections []Detection
}

// PixelSets returns the silhouettes of all detections, in detection order.
// Detections without pixels are represented by an empty set.
func (o *Output) PixelSets() []*pixset.PixelSet {
	if o == nil {
		return nil
	}
	sets := make([]*pixset.PixelSet, len(o.Detections))
	for i, d := range o.Detections {
		if d.Pixels == nil {
			sets[i] = pixset.New()
		} else {
			sets[i] = d.Pixels
		}
	}
	return sets
}

func (o *Output) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Detections)
}

// Clear removes all detections, retaining the backing array
func (o *Output) Clear() {
	o.Detections = o.Detections[:0]
}

// Ptr is a helper for populating the optional fields of Object
func Ptr[T any](v T) *T {
	return &v
}
