package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
)

const (
	chartWidth  = 640
	chartHeight = 360
	chartMargin = 40
)

// RenderHistogram draws the IoU histogram as a PNG bar chart.
// When the report has a baseline, its histogram is drawn as an outline over the bars.
func (r *Report) RenderHistogram(w io.Writer) error {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	bins := len(r.Histogram)
	if bins == 0 {
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored("no IoU samples", chartWidth/2, chartHeight/2, 0.5, 0.5)
		return dc.EncodePNG(w)
	}

	peak := 1
	for i, v := range r.Histogram {
		peak = max(peak, v)
		if r.HistogramBase != nil {
			peak = max(peak, r.HistogramBase[i])
		}
	}

	plotW := float64(chartWidth - 2*chartMargin)
	plotH := float64(chartHeight - 2*chartMargin)
	barW := plotW / float64(bins)
	bottom := float64(chartHeight - chartMargin)
	barHeight := func(v int) float64 {
		return plotH * float64(v) / float64(peak)
	}

	dc.SetRGB(0.2, 0.45, 0.8)
	for i, v := range r.Histogram {
		h := barHeight(v)
		dc.DrawRectangle(chartMargin+float64(i)*barW+1, bottom-h, barW-2, h)
		dc.Fill()
	}

	if r.HistogramBase != nil {
		dc.SetRGB(0.85, 0.2, 0.2)
		dc.SetLineWidth(2)
		for i, v := range r.HistogramBase {
			h := barHeight(v)
			dc.DrawRectangle(chartMargin+float64(i)*barW+1, bottom-h, barW-2, h)
			dc.Stroke()
		}
	}

	// axis and labels
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(chartMargin, bottom, chartWidth-chartMargin, bottom)
	dc.Stroke()
	for i := 0; i <= bins; i++ {
		x := chartMargin + float64(i)*barW
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", float64(i)/float64(bins)), x, bottom+14, 0.5, 0.5)
	}
	for i, v := range r.Histogram {
		x := chartMargin + (float64(i)+0.5)*barW
		dc.DrawStringAnchored(fmt.Sprintf("%v", v), x, bottom-barHeight(v)-8, 0.5, 0.5)
	}
	dc.DrawStringAnchored(fmt.Sprintf("IoU histogram, mean %.2f%%", r.Stats.IOU*100), chartWidth/2, chartMargin/2, 0.5, 0.5)
	return dc.EncodePNG(w)
}

// SaveHistogram renders the histogram into 'dir', and returns the filename
func (r *Report) SaveHistogram(dir string) (string, error) {
	filename := r.FileName(dir, ".png")
	f, err := os.Create(filename)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to create histogram image %v", filename)
	}
	if err := r.RenderHistogram(f); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "Failed to render histogram image %v", filename)
	}
	return filename, f.Close()
}
