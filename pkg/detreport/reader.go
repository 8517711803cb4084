package detreport

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/fmo-detect/fmoeval/pkg/detection"
	"github.com/fmo-detect/fmoeval/pkg/evalerr"
	"github.com/fmo-detect/fmoeval/pkg/pixset"
	"github.com/pkg/errors"
)

// Report is a detection report read back from XML
type Report struct {
	Date      string
	Sequences []*Sequence
}

// Sequence holds the recorded detector output of one input
type Sequence struct {
	Input     string
	Dims      pixset.Dims // Zero if the report does not record the video size
	Frames    map[int]*detection.Output
	LastFrame int // Highest frame number with detections
}

// Output returns the recorded detector output for the frame.
// Frames that are absent from the report had no detections.
func (s *Sequence) Output(frameNum int) *detection.Output {
	if out, ok := s.Frames[frameNum]; ok {
		return out
	}
	return &detection.Output{}
}

// Find returns the sequence whose input is 'input', or nil
func (r *Report) Find(input string) *Sequence {
	for _, s := range r.Sequences {
		if s.Input == input {
			return s
		}
	}
	return nil
}

func Load(filename string) (*Report, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open detection report %v", filename)
	}
	defer f.Close()
	r, err := Read(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "Detection report %v", filename)
	}
	return r, nil
}

func Read(r io.Reader) (*Report, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, evalerr.Formatf("invalid XML: %v", err)
	}
	run := doc.SelectElement("run")
	if run == nil {
		return nil, evalerr.Formatf("missing <run> element")
	}
	report := &Report{}
	if date := run.SelectElement("date"); date != nil {
		report.Date = strings.TrimSpace(date.Text())
	}
	for _, seqEl := range run.SelectElements("sequence") {
		seq, err := readSequence(seqEl)
		if err != nil {
			return nil, err
		}
		report.Sequences = append(report.Sequences, seq)
	}
	return report, nil
}

func readSequence(el *etree.Element) (*Sequence, error) {
	seq := &Sequence{
		Input:  el.SelectAttrValue("input", ""),
		Frames: map[int]*detection.Output{},
	}
	var err error
	if seq.Dims.Width, err = optionalInt(el, "width"); err != nil {
		return nil, err
	}
	if seq.Dims.Height, err = optionalInt(el, "height"); err != nil {
		return nil, err
	}
	for _, frameEl := range el.SelectElements("frame") {
		num, err := strconv.Atoi(frameEl.SelectAttrValue("num", ""))
		if err != nil || num < 1 {
			return nil, evalerr.Formatf("sequence '%v': invalid frame number '%v'", seq.Input, frameEl.SelectAttrValue("num", ""))
		}
		if _, exists := seq.Frames[num]; exists {
			return nil, evalerr.Formatf("sequence '%v': frame %v appears twice", seq.Input, num)
		}
		out := &detection.Output{}
		for _, detEl := range frameEl.SelectElements("detection") {
			d, err := readDetection(detEl)
			if err != nil {
				return nil, errors.WithMessagef(err, "sequence '%v' frame %v", seq.Input, num)
			}
			out.Detections = append(out.Detections, d)
		}
		seq.Frames[num] = out
		seq.LastFrame = max(seq.LastFrame, num)
	}
	return seq, nil
}

func readDetection(el *etree.Element) (detection.Detection, error) {
	d := detection.Detection{}
	var err error
	if attr := el.SelectAttr("id"); attr != nil {
		id, err := strconv.Atoi(attr.Value)
		if err != nil {
			return d, evalerr.Formatf("invalid detection id '%v'", attr.Value)
		}
		d.Object.ID = &id
	}
	if p := el.SelectElement("predecessor"); p != nil {
		id, err := strconv.Atoi(strings.TrimSpace(p.Text()))
		if err != nil {
			return d, evalerr.Formatf("invalid predecessor '%v'", p.Text())
		}
		d.Predecessor = &id
	}
	if d.Object.Center, err = readVec(el, "center"); err != nil {
		return d, err
	}
	if d.Object.Direction, err = readVec(el, "direction"); err != nil {
		return d, err
	}
	if d.Object.Length, err = readScalar(el, "length"); err != nil {
		return d, err
	}
	if d.Object.Radius, err = readScalar(el, "radius"); err != nil {
		return d, err
	}
	if d.Object.Velocity, err = readScalar(el, "velocity"); err != nil {
		return d, err
	}
	d.Pixels = pixset.New()
	if points := el.SelectElement("points"); points != nil {
		fields := strings.Fields(points.Text())
		if len(fields)%2 != 0 {
			return d, evalerr.Formatf("odd number of point coordinates")
		}
		for i := 0; i < len(fields); i += 2 {
			x, errX := strconv.Atoi(fields[i])
			y, errY := strconv.Atoi(fields[i+1])
			if errX != nil || errY != nil {
				return d, evalerr.Formatf("invalid point '%v %v'", fields[i], fields[i+1])
			}
			d.Pixels.Add(pixset.Point{X: x, Y: y})
		}
	}
	return d, nil
}

func optionalInt(el *etree.Element, attr string) (int, error) {
	s := el.SelectAttrValue(attr, "")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, evalerr.Formatf("invalid %v '%v'", attr, s)
	}
	return v, nil
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, evalerr.Formatf("invalid number '%v'", s)
	}
	return float32(v), nil
}

func readVec(parent *etree.Element, tag string) (*detection.Vec2, error) {
	el := parent.SelectElement(tag)
	if el == nil {
		return nil, nil
	}
	x, err := parseFloat(el.SelectAttrValue("x", ""))
	if err != nil {
		return nil, errors.WithMessage(err, tag)
	}
	y, err := parseFloat(el.SelectAttrValue("y", ""))
	if err != nil {
		return nil, errors.WithMessage(err, tag)
	}
	return &detection.Vec2{X: x, Y: y}, nil
}

func readScalar(parent *etree.Element, tag string) (*float32, error) {
	el := parent.SelectElement(tag)
	if el == nil {
		return nil, nil
	}
	v, err := parseFloat(el.Text())
	if err != nil {
		return nil, errors.WithMessage(err, tag)
	}
	return &v, nil
}
