package detection

import (
	"fmt"
	"strings"

	"github.com/fmo-detect/fmoeval/pkg/perfstats"
	"github.com/fmo-detect/fmoeval/pkg/stats"
)

// Statistics accumulates detection counts over the frames and sequences of a run
type Statistics struct {
	Speed SpeedParams

	perFrame    perfstats.Int64Accumulator // One sample per frame
	perSequence []int64                    // Detections in each sequence
	frames      []int64                    // Frames in each sequence
	maxSpeed    float32
	haveSpeed   bool
}

// Summary is a snapshot of Statistics
type Summary struct {
	Sequences             int
	Frames                int64
	Detections            int64
	MaxPerFrame           int64
	MeanPerFrame          float64
	MeanPerSequence       float64
	MedianPerSequence     int64
	MeanFramesPerSequence float64
	HaveSpeed             bool
	MaxSpeedKmh           float32
}

// BeginSequence starts counting a new sequence
func (s *Statistics) BeginSequence() {
	s.perSequence = append(s.perSequence, 0)
	s.frames = append(s.frames, 0)
}

// AddFrame records the detector output of one frame.
// A sequence is implicitly started if BeginSequence has not been called.
func (s *Statistics) AddFrame(out *Output) {
	if len(s.perSequence) == 0 {
		s.BeginSequence()
	}
	n := int64(out.Len())
	s.perFrame.AddSample(n)
	s.perSequence[len(s.perSequence)-1] += n
	s.frames[len(s.frames)-1]++
	if out == nil {
		return
	}
	for i := range out.Detections {
		if kmh, ok := out.Detections[i].Object.SpeedKmh(s.Speed); ok {
			if !s.haveSpeed || kmh > s.maxSpeed {
				s.maxSpeed = kmh
			}
			s.haveSpeed = true
		}
	}
}

func (s *Statistics) Summary() Summary {
	return Summary{
		Sequences:             len(s.perSequence),
		Frames:                s.perFrame.Samples,
		Detections:            s.perFrame.Total,
		MaxPerFrame:           s.perFrame.Max,
		MeanPerFrame:          s.perFrame.Average(),
		MeanPerSequence:       stats.Mean(s.perSequence),
		MedianPerSequence:     stats.Median(s.perSequence),
		MeanFramesPerSequence: stats.Mean(s.frames),
		HaveSpeed:             s.haveSpeed,
		MaxSpeedKmh:           s.maxSpeed,
	}
}

func (s Summary) String() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "detections: %v in %v frames of %v sequences\n", s.Detections, s.Frames, s.Sequences)
	fmt.Fprintf(&b, "detections per frame: mean %.3f, max %v\n", s.MeanPerFrame, s.MaxPerFrame)
	fmt.Fprintf(&b, "detections per sequence: mean %.2f, median %v\n", s.MeanPerSequence, s.MedianPerSequence)
	fmt.Fprintf(&b, "frames per sequence: mean %.1f\n", s.MeanFramesPerSequence)
	if s.HaveSpeed {
		fmt.Fprintf(&b, "max speed: %.2f km/h\n", s.MaxSpeedKmh)
	}
	return b.String()
}
