package eval

import (
	"time"

	flatbush "github.com/bmharper/flatbush-go"
	"github.com/cyclopcam/logs"
	"github.com/fmo-detect/fmoeval/pkg/detection"
	"github.com/fmo-detect/fmoeval/pkg/evalerr"
	"github.com/fmo-detect/fmoeval/pkg/groundtruth"
	"github.com/fmo-detect/fmoeval/pkg/perfstats"
	"github.com/fmo-detect/fmoeval/pkg/pixset"
	"github.com/fmo-detect/fmoeval/pkg/results"
	"github.com/pkg/errors"
)

// DefaultIOUThreshold is the IoU above which a detection counts as a match
const DefaultIOUThreshold = 0.5

// RunContext is the state shared by all evaluators of a run
type RunContext struct {
	Log          logs.Log
	Results      *results.Store // Receives the classification of every evaluated frame
	Baseline     *results.Store // Previous run to compare against. May be nil.
	IOUThreshold float64
}

// Evaluator scores detector output against the ground truth of one sequence.
// Frames must be submitted in order, starting at 1.
type Evaluator struct {
	ctx       *RunContext
	name      string
	gt        *groundtruth.Set
	seq       *results.Sequence
	baseline  *results.Sequence // nil if there is no baseline for this sequence
	lastFrame int

	EvalTime perfstats.TimeAccumulator
}

// NewEvaluator loads the ground truth file, and registers a new sequence
// in the run's results.
func NewEvaluator(ctx *RunContext, gtFilename string, dims pixset.Dims) (*Evaluator, error) {
	gt, err := groundtruth.Load(gtFilename, dims)
	if err != nil {
		return nil, err
	}
	return NewEvaluatorFromSet(ctx, SequenceName(gtFilename), gt)
}

// NewEvaluatorFromSet creates an evaluator for ground truth that is already in memory
func NewEvaluatorFromSet(ctx *RunContext, name string, gt *groundtruth.Set) (*Evaluator, error) {
	e := &Evaluator{
		ctx:  ctx,
		name: name,
		gt:   gt,
	}
	if ctx.Baseline != nil {
		base := ctx.Baseline.GetSequence(name)
		if len(base.Frames) != 0 {
			if len(base.Frames) != gt.NumFrames() {
				return nil, errors.Wrapf(evalerr.ErrBaselineIncompatible, "Sequence %v has %v frames in the baseline, but %v in the ground truth", name, len(base.Frames), gt.NumFrames())
			}
			e.baseline = base
		}
	}
	if e.baseline == nil && ctx.Log != nil {
		ctx.Log.Infof("Sequence %v has no baseline", name)
	}
	e.seq = ctx.Results.NewSequence(name)
	return e, nil
}

func (e *Evaluator) Name() string {
	return e.name
}

func (e *Evaluator) GroundTruth() *groundtruth.Set {
	return e.gt
}

// HasBaseline is true if frames are compared against a previous run
func (e *Evaluator) HasBaseline() bool {
	return e.baseline != nil
}

// LastFrame is the number of the most recently evaluated frame, or zero
func (e *Evaluator) LastFrame() int {
	return e.lastFrame
}

// EvaluateFrame classifies the detector output for frame 'frameNum', records the
// classification and IoU samples in the run's results, and returns the details.
func (e *Evaluator) EvaluateFrame(out *detection.Output, frameNum int) (*EvalResult, error) {
	r := &EvalResult{}
	if err := e.EvaluateFrameInto(out, frameNum, r); err != nil {
		return nil, err
	}
	return r, nil
}

// EvaluateFrameInto is EvaluateFrame, but reuses 'r'
func (e *Evaluator) EvaluateFrameInto(out *detection.Output, frameNum int, r *EvalResult) error {
	if frameNum != e.lastFrame+1 {
		return errors.Wrapf(evalerr.ErrSequenceOrder, "Sequence %v: expected frame %v, but got frame %v", e.name, e.lastFrame+1, frameNum)
	}
	if frameNum > e.gt.NumFrames() {
		return errors.Wrapf(evalerr.ErrOutOfRange, "Sequence %v: frame %v is beyond the %v frames of the ground truth", e.name, frameNum, e.gt.NumFrames())
	}
	start := time.Now()
	e.lastFrame = frameNum

	gt := e.gt.Get(frameNum)
	dt := out.PixelSets()

	r.Clear()
	r.IOUDetections, r.IOUGroundTruth = bestScores(dt, gt, r.IOUDetections, r.IOUGroundTruth)
	r.Counts = classify(r.IOUDetections, r.IOUGroundTruth, e.ctx.IOUThreshold)

	for _, score := range r.IOUGroundTruth {
		if score > 0 {
			e.seq.IOU = append(e.seq.IOU, results.QuantizeIOU(score))
		}
	}

	if e.baseline != nil {
		// The baseline has exactly as many frames as the ground truth, and we never
		// record more frames than that, so this index is always valid.
		r.Comparison = compare(e.baseline.Frames[len(e.seq.Frames)], r.Counts)
	} else {
		r.Comparison = ComparisonNone
	}
	e.seq.Frames = append(e.seq.Frames, r.Counts)

	e.EvalTime.Since(start)
	return nil
}

// bestScores computes the best IoU of every detection and every ground truth object.
// Pairs whose bounding boxes are disjoint score zero, and are never compared pixel by pixel.
func bestScores(dt, gt []*pixset.PixelSet, bestDt, bestGt []float64) ([]float64, []float64) {
	bestDt = resizeZero(bestDt, len(dt))
	bestGt = resizeZero(bestGt, len(gt))
	if len(dt) == 0 || len(gt) == 0 {
		return bestDt, bestGt
	}

	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(gt))
	for _, g := range gt {
		b := g.Bounds()
		fb.Add(b.X, b.Y, b.X2(), b.Y2())
	}
	fb.Finish()

	for i, d := range dt {
		if d.Len() == 0 {
			continue
		}
		b := d.Bounds()
		for _, j := range fb.Search(b.X, b.Y, b.X2(), b.Y2()) {
			if gt[j].Len() == 0 {
				continue
			}
			score := d.IOU(gt[j])
			bestDt[i] = max(bestDt[i], score)
			bestGt[j] = max(bestGt[j], score)
		}
	}
	return bestDt, bestGt
}

// classify turns best scores into TP/FN (one per ground truth object), FP (one per
// unmatched detection), or a single TN when the frame has neither.
func classify(bestDt, bestGt []float64, threshold float64) results.Counts {
	c := results.Counts{}
	for _, score := range bestGt {
		if score > threshold {
			c[results.EventTP]++
		} else {
			c[results.EventFN]++
		}
	}
	for _, score := range bestDt {
		if score <= threshold {
			c[results.EventFP]++
		}
	}
	if len(bestDt) == 0 && len(bestGt) == 0 {
		c[results.EventTN]++
	}
	return c
}

func compare(baseline, current results.Counts) Comparison {
	if baseline.Bad() && current.Good() {
		return ComparisonImprovement
	} else if baseline.Good() && current.Bad() {
		return ComparisonRegression
	}
	return ComparisonSame
}

func resizeZero(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	s = s[:n]
	clear(s)
	return s
}
