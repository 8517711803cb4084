package results

import "math"

// Event is the outcome class of a ground truth object, a detection, or an empty frame
type Event int

const (
	EventTP Event = iota // Ground truth object matched by a detection
	EventTN              // Frame with neither ground truth nor detections
	EventFP              // Detection without a matching ground truth object
	EventFN              // Ground truth object without a matching detection
	NumEvents
)

// SerializationOrder is the order in which event blocks are written to, and
// expected in, a results file. It never depends on storage order.
var SerializationOrder = [NumEvents]Event{EventFN, EventFP, EventTN, EventTP}

func (e Event) String() string {
	switch e {
	case EventTP:
		return "TP"
	case EventTN:
		return "TN"
	case EventFP:
		return "FP"
	case EventFN:
		return "FN"
	}
	return "??"
}

// Counts are the classification counts of one frame (or a sum of frames), indexed by Event
type Counts [NumEvents]int

func (c *Counts) Add(b Counts) {
	for i := range c {
		c[i] += b[i]
	}
}

// Good is true when nothing went wrong in the frame
func (c Counts) Good() bool {
	return c[EventFN] == 0 && c[EventFP] == 0
}

// Bad is true when nothing went right in the frame
func (c Counts) Bad() bool {
	return c[EventTN] == 0 && c[EventTP] == 0
}

// IOUStorageFactor converts an IoU score in [0,1] to its stored integer form
const IOUStorageFactor = 1000

// QuantizeIOU converts an IoU score to the integer representation kept in results files
func QuantizeIOU(iou float64) int {
	return int(math.RoundToEven(iou * IOUStorageFactor))
}
