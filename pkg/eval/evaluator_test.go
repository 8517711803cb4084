package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/fmo-detect/fmoeval/pkg/detection"
	"github.com/fmo-detect/fmoeval/pkg/evalerr"
	"github.com/fmo-detect/fmoeval/pkg/groundtruth"
	"github.com/fmo-detect/fmoeval/pkg/pixset"
	"github.com/fmo-detect/fmoeval/pkg/results"
	"github.com/stretchr/testify/require"
)

var dims = pixset.Dims{Width: 20, Height: 10}

func square(x, y, size int) *pixset.PixelSet {
	s := pixset.New()
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			s.Add(pixset.Point{X: x + dx, Y: y + dy})
		}
	}
	return s
}

func output(sets ...*pixset.PixelSet) *detection.Output {
	out := &detection.Output{}
	for _, s := range sets {
		out.Detections = append(out.Detections, detection.Detection{Pixels: s})
	}
	return out
}

func newContext(t *testing.T) *RunContext {
	return &RunContext{
		Log:          logs.NewTestingLog(t),
		Results:      results.NewStore(),
		IOUThreshold: DefaultIOUThreshold,
	}
}

// Ground truth with 4 frames: one ball in frames 1 and 2, nothing in frame 3, two balls in frame 4
func newGroundTruth(t *testing.T) *groundtruth.Set {
	gt := groundtruth.New(dims, 4, 0)
	require.NoError(t, gt.AddObject(1, square(2, 2, 3)))
	require.NoError(t, gt.AddObject(2, square(4, 2, 3)))
	require.NoError(t, gt.AddObject(4, square(0, 0, 2)))
	require.NoError(t, gt.AddObject(4, square(10, 5, 4)))
	return gt
}

func TestSequenceName(t *testing.T) {
	require.Equal(t, "ball_1", SequenceName("/data/gt/ball 1_gt.txt"))
	require.Equal(t, "clip", SequenceName("clip.mp4"))
	require.Equal(t, "clip", SequenceName("clip_gt.mat"))
	require.Equal(t, "a.txt", SequenceName("a.txt.mov"))
	require.Equal(t, "plain", SequenceName("plain"))
}

func TestClassifyIdentical(t *testing.T) {
	ctx := newContext(t)
	gt := groundtruth.New(pixset.Dims{Width: 4, Height: 2}, 1, 0)
	obj := pixset.FromPoints([]pixset.Point{{2, 0}, {3, 0}, {0, 1}})
	require.NoError(t, gt.AddObject(1, obj))
	ev, err := NewEvaluatorFromSet(ctx, "seq", gt)
	require.NoError(t, err)

	r, err := ev.EvaluateFrame(output(pixset.FromPoints(obj.Points())), 1)
	require.NoError(t, err)
	require.Equal(t, 1, r.Counts[results.EventTP])
	require.Equal(t, 0, r.Counts[results.EventFN])
	require.Equal(t, 0, r.Counts[results.EventFP])
	require.Equal(t, 0, r.Counts[results.EventTN])
	require.Equal(t, []float64{1}, r.IOUGroundTruth)
	require.Equal(t, []float64{1}, r.IOUDetections)
	require.Equal(t, ComparisonNone, r.Comparison)

	seq := ctx.Results.GetSequence("seq")
	require.Equal(t, []int{1000}, seq.IOU)
	require.Len(t, seq.Frames, 1)
	require.Equal(t, "TP (no baseline)", r.String())
}

func TestClassifySequence(t *testing.T) {
	ctx := newContext(t)
	ev, err := NewEvaluatorFromSet(ctx, "seq", newGroundTruth(t))
	require.NoError(t, err)

	// frame 1: partial overlap. 3x3 vs 3x3 shifted by 1 = 6 / 12 = 0.5, which is not above the threshold
	r, err := ev.EvaluateFrame(output(square(3, 2, 3)), 1)
	require.NoError(t, err)
	require.Equal(t, 1, r.Counts[results.EventFN])
	require.Equal(t, 1, r.Counts[results.EventFP])
	require.Equal(t, 0, r.Counts[results.EventTP])
	require.InDelta(t, 0.5, r.IOUGroundTruth[0], 1e-12)

	// frame 2: a match, plus a stray detection far away
	r, err = ev.EvaluateFrame(output(square(15, 7, 2), square(4, 2, 3)), 2)
	require.NoError(t, err)
	require.Equal(t, 1, r.Counts[results.EventTP])
	require.Equal(t, 1, r.Counts[results.EventFP])
	require.Equal(t, []float64{0, 1}, r.IOUDetections)

	// frame 3: nothing at all
	r, err = ev.EvaluateFrame(output(), 3)
	require.NoError(t, err)
	require.Equal(t, results.Counts{results.EventTN: 1}, r.Counts)
	require.Empty(t, r.IOUDetections)
	require.Empty(t, r.IOUGroundTruth)

	// frame 4: two objects, no detections
	r, err = ev.EvaluateFrame(nil, 4)
	require.NoError(t, err)
	require.Equal(t, 2, r.Counts[results.EventFN])
	require.Equal(t, 0, r.Counts[results.EventTN])
	require.Equal(t, "2xFN (no baseline)", r.String())

	seq := ctx.Results.GetSequence("seq")
	require.Len(t, seq.Frames, 4)
	// zero scores are not sampled
	require.Equal(t, []int{500, 1000}, seq.IOU)

	// beyond the end of the ground truth
	_, err = ev.EvaluateFrame(output(), 5)
	require.ErrorIs(t, err, evalerr.ErrOutOfRange)
	require.Len(t, seq.Frames, 4)
}

func TestOrderViolation(t *testing.T) {
	ev, err := NewEvaluatorFromSet(newContext(t), "seq", newGroundTruth(t))
	require.NoError(t, err)
	_, err = ev.EvaluateFrame(output(), 1)
	require.NoError(t, err)
	_, err = ev.EvaluateFrame(output(), 3)
	require.ErrorIs(t, err, evalerr.ErrSequenceOrder)
	_, err = ev.EvaluateFrame(output(), 1)
	require.ErrorIs(t, err, evalerr.ErrSequenceOrder)
	require.Equal(t, 1, ev.LastFrame())

	ev2, err := NewEvaluatorFromSet(newContext(t), "seq", newGroundTruth(t))
	require.NoError(t, err)
	_, err = ev2.EvaluateFrame(output(), 2)
	require.ErrorIs(t, err, evalerr.ErrSequenceOrder)
}

func TestOverlappingDetections(t *testing.T) {
	// two detections that both match the same object produce a single TP and no FP
	ctx := newContext(t)
	ev, err := NewEvaluatorFromSet(ctx, "seq", newGroundTruth(t))
	require.NoError(t, err)
	r, err := ev.EvaluateFrame(output(square(2, 2, 3), square(2, 2, 3)), 1)
	require.NoError(t, err)
	require.Equal(t, results.Counts{results.EventTP: 1}, r.Counts)
	require.Equal(t, []int{1000}, ctx.Results.GetSequence("seq").IOU)
}

func TestBaseline(t *testing.T) {
	// baseline: frame 1 bad, frame 2 good, frame 3 good, frame 4 bad
	baseline := results.NewStore()
	b := baseline.NewSequence("seq")
	b.Frames = []results.Counts{
		{results.EventFN: 1},
		{results.EventTP: 1},
		{results.EventTN: 1},
		{results.EventFN: 2},
	}

	ctx := newContext(t)
	ctx.Baseline = baseline
	ev, err := NewEvaluatorFromSet(ctx, "seq", newGroundTruth(t))
	require.NoError(t, err)
	require.True(t, ev.HasBaseline())

	expect := []Comparison{ComparisonImprovement, ComparisonRegression, ComparisonSame, ComparisonSame}
	outputs := []*detection.Output{
		output(square(2, 2, 3)),  // TP, was FN
		output(square(15, 7, 2)), // FN+FP, was TP
		output(),                 // TN, was TN
		output(square(0, 0, 2)),  // TP+FN, was 2xFN: not good, so not an improvement
	}
	for i, out := range outputs {
		r, err := ev.EvaluateFrame(out, i+1)
		require.NoError(t, err)
		require.Equal(t, expect[i], r.Comparison, "frame %v", i+1)
	}

	// missing from the baseline
	ev, err = NewEvaluatorFromSet(ctx, "other", newGroundTruth(t))
	require.NoError(t, err)
	require.False(t, ev.HasBaseline())
}

func TestBaselineIncompatible(t *testing.T) {
	baseline := results.NewStore()
	baseline.NewSequence("seq").Frames = make([]results.Counts, 3)
	ctx := newContext(t)
	ctx.Baseline = baseline
	_, err := NewEvaluatorFromSet(ctx, "seq", newGroundTruth(t))
	require.ErrorIs(t, err, evalerr.ErrBaselineIncompatible)
}

func TestReprocessClears(t *testing.T) {
	ctx := newContext(t)
	ev, err := NewEvaluatorFromSet(ctx, "seq", newGroundTruth(t))
	require.NoError(t, err)
	_, err = ev.EvaluateFrame(output(square(2, 2, 3)), 1)
	require.NoError(t, err)
	require.Len(t, ctx.Results.GetSequence("seq").Frames, 1)

	_, err = NewEvaluatorFromSet(ctx, "seq", newGroundTruth(t))
	require.NoError(t, err)
	seq := ctx.Results.GetSequence("seq")
	require.Empty(t, seq.Frames)
	require.Empty(t, seq.IOU)
	require.Equal(t, 1, ctx.Results.Len())
}

func TestNewEvaluatorFromFile(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "ball 2_gt.txt")
	require.NoError(t, os.WriteFile(fn, []byte("4\n2\n1\n0\n1\n1\n3\n2\n3\n3\n"), 0644))
	ctx := newContext(t)
	ev, err := NewEvaluator(ctx, fn, pixset.Dims{Width: 4, Height: 2})
	require.NoError(t, err)
	require.Equal(t, "ball_2", ev.Name())
	require.Equal(t, 1, ev.GroundTruth().NumFrames())

	_, err = NewEvaluator(ctx, fn, pixset.Dims{Width: 5, Height: 2})
	require.ErrorIs(t, err, evalerr.ErrDimensionMismatch)
}

func TestFeeder(t *testing.T) {
	ctx := newContext(t)
	ev, err := NewEvaluatorFromSet(ctx, "seq", newGroundTruth(t))
	require.NoError(t, err)
	f := NewFeeder(ev, -2)
	require.Equal(t, 1, f.InFrame())
	require.Equal(t, -1, f.OutFrame())

	r := &EvalResult{}
	comparisons := []Comparison{}
	feeds := 0
	for {
		done, err := f.Feed(output(), r)
		require.NoError(t, err)
		if done {
			break
		}
		feeds++
		comparisons = append(comparisons, r.Comparison)
		if feeds == 4 {
			require.False(t, f.AllowNewFrames())
		}
	}
	// 2 buffering frames, then 4 evaluated frames
	require.Equal(t, 6, feeds)
	require.Equal(t, ComparisonBuffering, comparisons[0])
	require.Equal(t, ComparisonBuffering, comparisons[1])
	require.Equal(t, ComparisonNone, comparisons[2])
	require.True(t, f.Done())
	require.Len(t, ctx.Results.GetSequence("seq").Frames, 4)
	require.Equal(t, "(buffering)", (&EvalResult{Comparison: ComparisonBuffering}).String())
}

func TestPausePolicy(t *testing.T) {
	fn := &EvalResult{Counts: results.Counts{results.EventFN: 1}}
	reg := &EvalResult{Counts: results.Counts{results.EventFP: 1}, Comparison: ComparisonRegression}
	require.False(t, PausePolicy{}.Any())
	require.False(t, PausePolicy{}.ShouldPause(fn))
	require.True(t, PausePolicy{OnFN: true}.ShouldPause(fn))
	require.False(t, PausePolicy{OnFN: true}.ShouldPause(reg))
	require.True(t, PausePolicy{OnFP: true}.ShouldPause(reg))
	require.True(t, PausePolicy{OnRegression: true}.ShouldPause(reg))
	require.False(t, PausePolicy{OnImprovement: true}.ShouldPause(reg))
}
