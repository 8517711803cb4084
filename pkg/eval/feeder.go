package eval

import (
	"github.com/fmo-detect/fmoeval/pkg/detection"
)

// Feeder drives an Evaluator from a detector that lags behind its input.
//
// A detector with an output offset of -2 produces the output for input frame N
// while it is consuming frame N+2. The feeder tracks both frame numbers, reports
// the frames before the first output as buffering, and stops once every ground
// truth frame has been evaluated.
type Feeder struct {
	ev  *Evaluator
	in  int // Number of the next input frame
	out int // Number of the frame that the next detector output belongs to
}

func NewFeeder(ev *Evaluator, outputOffset int) *Feeder {
	return &Feeder{
		ev:  ev,
		in:  1,
		out: 1 + outputOffset,
	}
}

// InFrame is the number of the next input frame
func (f *Feeder) InFrame() int {
	return f.in
}

// OutFrame is the number of the frame that the next output is evaluated against
func (f *Feeder) OutFrame() int {
	return f.out
}

// AllowNewFrames is false once every input frame has been consumed.
// After that, the driver should keep submitting empty input until Done.
func (f *Feeder) AllowNewFrames() bool {
	return f.in <= f.ev.GroundTruth().NumFrames()
}

// Done is true when every ground truth frame has been evaluated
func (f *Feeder) Done() bool {
	return f.out > f.ev.GroundTruth().NumFrames()
}

// Feed submits the detector output produced after consuming the current input frame.
// Returns done=true without evaluating anything if the sequence is already finished.
func (f *Feeder) Feed(out *detection.Output, r *EvalResult) (done bool, err error) {
	if f.Done() {
		return true, nil
	}
	if f.out < 1 {
		r.Clear()
		r.Comparison = ComparisonBuffering
	} else if err := f.ev.EvaluateFrameInto(out, f.out, r); err != nil {
		return false, err
	}
	f.in++
	f.out++
	return false, nil
}
