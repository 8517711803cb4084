// Package groundtruth loads the annotated object silhouettes of one video sequence.
//
// File layout (whitespace separated integers, one per line in practice):
//
//	width
//	height
//	frame count
//	frame offset (signed)
//	object count
//	object count x { frame number, run count, run count x run length }
//
// Each object block is the on/off run-length encoding of a single object's
// silhouette over the row-major raster of the frame.
package groundtruth

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/fmo-detect/fmoeval/pkg/evalerr"
	"github.com/fmo-detect/fmoeval/pkg/pixset"
	"github.com/fmo-detect/fmoeval/pkg/rle"
	"github.com/pkg/errors"
)

// Set is the ground truth of one sequence. Immutable after loading.
type Set struct {
	Dims   pixset.Dims
	Offset int // Added to the evaluation frame number to get the ground truth frame number

	numFrames int

	// Objects keyed by ground truth frame number (1-based). Frames without objects are absent.
	frames map[int][]*pixset.PixelSet
}

// New creates an empty ground truth, which can be filled with AddObject.
func New(dims pixset.Dims, numFrames, offset int) *Set {
	return &Set{
		Dims:      dims,
		Offset:    offset,
		numFrames: numFrames,
		frames:    map[int][]*pixset.PixelSet{},
	}
}

// Load a ground truth file. The dimensions in the file must match 'dims'.
func Load(filename string, dims pixset.Dims) (*Set, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open ground truth %v", filename)
	}
	defer f.Close()
	gt, err := Read(f, dims)
	if err != nil {
		return nil, errors.WithMessagef(err, "Ground truth %v", filename)
	}
	return gt, nil
}

// Read parses a ground truth file from r
func Read(r io.Reader, dims pixset.Dims) (*Set, error) {
	tok := newTokenizer(r)

	var header [5]int
	names := [5]string{"width", "height", "frame count", "frame offset", "object count"}
	for i := range header {
		v, err := tok.next(names[i])
		if err != nil {
			return nil, err
		}
		header[i] = v
	}
	fileDims := pixset.Dims{Width: header[0], Height: header[1]}
	numFrames := header[2]
	offset := header[3]
	numObjects := header[4]

	if fileDims != dims {
		return nil, errors.Wrapf(evalerr.ErrDimensionMismatch, "ground truth is %vx%v, video is %vx%v", fileDims.Width, fileDims.Height, dims.Width, dims.Height)
	}
	if numFrames < 0 || numObjects < 0 {
		return nil, evalerr.Formatf("negative frame count (%v) or object count (%v)", numFrames, numObjects)
	}

	gt := New(dims, numFrames, offset)
	runs := []int{}
	for obj := 0; obj < numObjects; obj++ {
		frameNum, err := tok.next("frame number")
		if err != nil {
			return nil, err
		}
		numRuns, err := tok.next("run count")
		if err != nil {
			return nil, err
		}
		if frameNum < 1 || frameNum > numFrames {
			return nil, evalerr.Formatf("object %v: bad frame number %v (frame count is %v)", obj, frameNum, numFrames)
		}
		if numRuns < 0 {
			return nil, evalerr.Formatf("object %v: negative run count %v", obj, numRuns)
		}
		runs = runs[:0]
		for i := 0; i < numRuns; i++ {
			length, err := tok.next("run length")
			if err != nil {
				return nil, err
			}
			runs = append(runs, length)
		}
		silhouette := pixset.New()
		err = rle.Decode(runs, dims.Size(), func(index int) {
			silhouette.Add(dims.PointAt(index))
		})
		if err != nil {
			return nil, evalerr.Formatf("object %v in frame %v: %v", obj, frameNum, err)
		}
		gt.frames[frameNum] = append(gt.frames[frameNum], silhouette)
	}
	return gt, nil
}

// AddObject appends an object silhouette to the given ground truth frame (1-based).
func (s *Set) AddObject(frameNum int, silhouette *pixset.PixelSet) error {
	if frameNum < 1 || frameNum > s.numFrames {
		return errors.Wrapf(evalerr.ErrOutOfRange, "frame %v (frame count is %v)", frameNum, s.numFrames)
	}
	for _, p := range silhouette.Points() {
		if !s.Dims.Contains(p) {
			return errors.Errorf("Point %v,%v lies outside the %vx%v frame", p.X, p.Y, s.Dims.Width, s.Dims.Height)
		}
	}
	s.frames[frameNum] = append(s.frames[frameNum], silhouette)
	return nil
}

// Get returns the objects of the given evaluation frame number (1-based).
// A frame without objects, or outside of the ground truth, returns an empty list.
func (s *Set) Get(frameNum int) []*pixset.PixelSet {
	return s.frames[frameNum+s.Offset]
}

// NumFrames is the frame count declared in the header
func (s *Set) NumFrames() int {
	return s.numFrames
}

// Write the ground truth in the same format that Read accepts.
func (s *Set) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	numObjects := 0
	for _, objs := range s.frames {
		numObjects += len(objs)
	}
	fmt.Fprintf(bw, "%v\n%v\n%v\n%v\n%v\n", s.Dims.Width, s.Dims.Height, s.numFrames, s.Offset, numObjects)
	bits := make([]bool, s.Dims.Size())
	frameNums := slices.Sorted(maps.Keys(s.frames))
	for _, frameNum := range frameNums {
		for _, obj := range s.frames[frameNum] {
			clear(bits)
			for _, p := range obj.Points() {
				bits[s.Dims.IndexOf(p)] = true
			}
			runs := rle.Encode(bits)
			fmt.Fprintf(bw, "%v\n%v\n", frameNum, len(runs))
			for _, r := range runs {
				fmt.Fprintf(bw, "%v\n", r)
			}
		}
	}
	return bw.Flush()
}

// Save writes the ground truth to a file
func (s *Set) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := s.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type tokenizer struct {
	scanner *bufio.Scanner
}

func newTokenizer(r io.Reader) *tokenizer {
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)
	return &tokenizer{scanner: s}
}

func (t *tokenizer) next(what string) (int, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, evalerr.Formatf("truncated file, expected %v", what)
	}
	v, err := strconv.Atoi(t.scanner.Text())
	if err != nil {
		return 0, evalerr.Formatf("expected %v, but found '%v'", what, t.scanner.Text())
	}
	return v, nil
}
