package detreport

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fmo-detect/fmoeval/pkg/detection"
	"github.com/fmo-detect/fmoeval/pkg/eval"
	"github.com/fmo-detect/fmoeval/pkg/pixset"
	"github.com/pkg/errors"
)

// DateFormat is the format of the <date> element
const DateFormat = "2006-01-02 15:04:05"

// Writer builds an XML document describing every detection of a run
type Writer struct {
	Date time.Time
	doc  *etree.Document
	run  *etree.Element
}

// SequenceWriter adds frames to one <sequence> element
type SequenceWriter struct {
	el *etree.Element
}

func NewWriter(date time.Time) *Writer {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0"`)
	run := doc.CreateElement("run")
	run.CreateElement("date").SetText(date.Format(DateFormat))
	return &Writer{
		Date: date,
		doc:  doc,
		run:  run,
	}
}

// FileName returns the name under which a report of the given date is saved
func FileName(dir string, date time.Time) string {
	return filepath.Join(dir, date.Format("20060102_150405")+".xml")
}

// BeginSequence adds a sequence. 'dims' may be zero if the video size is unknown.
func (w *Writer) BeginSequence(input string, dims pixset.Dims) *SequenceWriter {
	el := w.run.CreateElement("sequence")
	el.CreateAttr("input", input)
	if dims.Width != 0 && dims.Height != 0 {
		el.CreateAttr("width", strconv.Itoa(dims.Width))
		el.CreateAttr("height", strconv.Itoa(dims.Height))
	}
	return &SequenceWriter{el: el}
}

// WriteFrame adds the detections of one frame. Frames without detections are skipped.
// 'r' may be nil if the frame was not evaluated.
func (s *SequenceWriter) WriteFrame(frameNum int, out *detection.Output, r *eval.EvalResult) {
	if out.Len() == 0 {
		return
	}
	frame := s.el.CreateElement("frame")
	frame.CreateAttr("num", strconv.Itoa(frameNum))
	for i, d := range out.Detections {
		el := frame.CreateElement("detection")
		obj := &d.Object
		if obj.ID != nil {
			el.CreateAttr("id", strconv.Itoa(*obj.ID))
		}
		if d.Predecessor != nil {
			el.CreateElement("predecessor").SetText(strconv.Itoa(*d.Predecessor))
		}
		if obj.Center != nil {
			writeVec(el.CreateElement("center"), *obj.Center)
		}
		if obj.Direction != nil {
			writeVec(el.CreateElement("direction"), *obj.Direction)
		}
		writeScalar(el, "length", "px", obj.Length)
		writeScalar(el, "radius", "px", obj.Radius)
		writeScalar(el, "velocity", "px/frame", obj.Velocity)
		if r != nil && i < len(r.IOUDetections) {
			el.CreateElement("iou").SetText(strconv.FormatFloat(r.IOUDetections[i], 'g', -1, 64))
		}
		el.CreateElement("points").SetText(formatPoints(d.Pixels))
	}
}

// WriteTo writes the XML document
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	w.doc.Indent(2)
	return w.doc.WriteTo(out)
}

// Save writes the document into 'dir', and returns the filename
func (w *Writer) Save(dir string) (string, error) {
	filename := FileName(dir, w.Date)
	f, err := os.Create(filename)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to create detection report %v", filename)
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "Failed to write detection report %v", filename)
	}
	return filename, f.Close()
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func writeVec(el *etree.Element, v detection.Vec2) {
	el.CreateAttr("x", formatFloat(v.X))
	el.CreateAttr("y", formatFloat(v.Y))
}

func writeScalar(parent *etree.Element, tag, unit string, v *float32) {
	if v == nil {
		return
	}
	el := parent.CreateElement(tag)
	el.CreateAttr("unit", unit)
	el.SetText(formatFloat(*v))
}

func formatPoints(s *pixset.PixelSet) string {
	if s == nil {
		return ""
	}
	b := strings.Builder{}
	for i, p := range s.Points() {
		if i != 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(p.X))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(p.Y))
	}
	return b.String()
}
