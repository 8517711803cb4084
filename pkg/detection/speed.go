package detection

// DefaultFPS is assumed when the video frame rate is unknown
const DefaultFPS = 29.97

// Converts cm/s into km/h
const cmPerSecondToKmh = 3600 * 1e-5

// SpeedParams control the conversion from image-space velocity to real-world speed
type SpeedParams struct {
	FPS        float32 // Frames per second of the input video. Zero means DefaultFPS.
	RadiusCm   float32 // Real radius of the object. Used when CmPerPixel is zero.
	CmPerPixel float32 // Scale of the scene. Zero if unknown.
}

// SpeedKmh estimates the real speed of the object, in km/h.
// Returns false if the object doesn't carry the necessary fields, or the
// parameters don't allow an estimate.
//
// With a known scene scale, the distance travelled in one frame is the streak
// length (velocity * (radius + 1.5)) converted to cm. Without a scale, the
// velocity is interpreted in object radii per frame, and the real radius is
// used to convert it.
func (o *Object) SpeedKmh(p SpeedParams) (float32, bool) {
	if o.Velocity == nil {
		return 0, false
	}
	fps := p.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	if p.CmPerPixel > 0 {
		if o.Radius == nil {
			return 0, false
		}
		length := *o.Velocity * (*o.Radius + 1.5)
		return length * p.CmPerPixel * fps * cmPerSecondToKmh, true
	}
	if p.RadiusCm <= 0 {
		return 0, false
	}
	return *o.Velocity * fps * p.RadiusCm * cmPerSecondToKmh, true
}
