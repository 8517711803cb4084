package detreport

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fmo-detect/fmoeval/pkg/detection"
	"github.com/fmo-detect/fmoeval/pkg/eval"
	"github.com/fmo-detect/fmoeval/pkg/evalerr"
	"github.com/fmo-detect/fmoeval/pkg/pixset"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func sampleWriter() *Writer {
	w := NewWriter(testDate)
	seq := w.BeginSequence("ball.mp4", pixset.Dims{Width: 64, Height: 48})
	seq.WriteFrame(1, &detection.Output{}, nil)
	seq.WriteFrame(2, &detection.Output{Detections: []detection.Detection{
		{
			Object: detection.Object{
				ID:        detection.Ptr(7),
				Center:    &detection.Vec2{X: 10.5, Y: 3},
				Direction: &detection.Vec2{X: 0.6, Y: -0.8},
				Length:    detection.Ptr[float32](12.25),
				Radius:    detection.Ptr[float32](2),
				Velocity:  detection.Ptr[float32](4.5),
			},
			Predecessor: detection.Ptr(3),
			Pixels:      pixset.FromPoints([]pixset.Point{{11, 3}, {10, 3}, {10, 4}}),
		},
		{
			Pixels: pixset.FromPoints([]pixset.Point{{0, 0}}),
		},
	}}, &eval.EvalResult{IOUDetections: []float64{0.75, 0}})

	w.BeginSequence("empty.mp4", pixset.Dims{})
	return w
}

func TestWriteFormat(t *testing.T) {
	buf := bytes.Buffer{}
	_, err := sampleWriter().WriteTo(&buf)
	require.NoError(t, err)
	xml := buf.String()
	require.True(t, strings.HasPrefix(xml, `<?xml version="1.0"?>`))
	require.Contains(t, xml, "<date>2024-03-05 14:07:09</date>")
	require.Contains(t, xml, `<sequence input="ball.mp4" width="64" height="48">`)
	require.Contains(t, xml, `<sequence input="empty.mp4"/>`)
	require.NotContains(t, xml, `<frame num="1">`)
	require.Contains(t, xml, `<frame num="2">`)
	require.Contains(t, xml, `<detection id="7">`)
	require.Contains(t, xml, `<predecessor>3</predecessor>`)
	require.Contains(t, xml, `<center x="10.5" y="3"/>`)
	require.Contains(t, xml, `<velocity unit="px/frame">4.5</velocity>`)
	require.Contains(t, xml, `<iou>0.75</iou>`)
	require.Contains(t, xml, `<points>10 3 11 3 10 4</points>`)
}

func TestReadBack(t *testing.T) {
	buf := bytes.Buffer{}
	_, err := sampleWriter().WriteTo(&buf)
	require.NoError(t, err)

	r, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, "2024-03-05 14:07:09", r.Date)
	require.Len(t, r.Sequences, 2)

	seq := r.Find("ball.mp4")
	require.NotNil(t, seq)
	require.Equal(t, pixset.Dims{Width: 64, Height: 48}, seq.Dims)
	require.Equal(t, 2, seq.LastFrame)
	require.Equal(t, 0, seq.Output(1).Len())

	out := seq.Output(2)
	require.Equal(t, 2, out.Len())
	d := out.Detections[0]
	require.Equal(t, 7, *d.Object.ID)
	require.Equal(t, 3, *d.Predecessor)
	require.Equal(t, detection.Vec2{X: 10.5, Y: 3}, *d.Object.Center)
	require.InDelta(t, 0.6, d.Object.Direction.X, 1e-6)
	require.Equal(t, float32(12.25), *d.Object.Length)
	require.Equal(t, float32(2), *d.Object.Radius)
	require.Equal(t, float32(4.5), *d.Object.Velocity)
	require.True(t, d.Pixels.Equal(pixset.FromPoints([]pixset.Point{{11, 3}, {10, 3}, {10, 4}})))

	d = out.Detections[1]
	require.Nil(t, d.Object.ID)
	require.Nil(t, d.Object.Center)
	require.Nil(t, d.Object.Velocity)
	require.Equal(t, 1, d.Pixels.Len())

	empty := r.Find("empty.mp4")
	require.NotNil(t, empty)
	require.Equal(t, pixset.Dims{}, empty.Dims)
	require.Nil(t, r.Find("nope"))
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	fn, err := sampleWriter().Save(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20240305_140709.xml"), fn)
	r, err := Load(fn)
	require.NoError(t, err)
	require.Len(t, r.Sequences, 2)
}

func TestReadErrors(t *testing.T) {
	cases := []string{
		"not xml at all <",
		"<other/>",
		`<run><sequence input="a"><frame num="x"/></sequence></run>`,
		`<run><sequence input="a"><frame num="1"/><frame num="1"/></sequence></run>`,
		`<run><sequence input="a" width="-3"/></run>`,
		`<run><sequence input="a"><frame num="1"><detection><points>1 2 3</points></detection></frame></sequence></run>`,
		`<run><sequence input="a"><frame num="1"><detection><radius>big</radius></detection></frame></sequence></run>`,
		`<run><sequence input="a"><frame num="1"><detection id="q"/></frame></sequence></run>`,
	}
	for _, src := range cases {
		_, err := Read(strings.NewReader(src))
		require.ErrorIs(t, err, evalerr.ErrFormat, src)
	}
}
