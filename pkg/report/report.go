package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fmo-detect/fmoeval/pkg/results"
	"github.com/pkg/errors"
)

// DefaultHistogramBins is the number of IoU histogram bins in the report header
const DefaultHistogramBins = 10

// Deltas smaller than this are not shown
const deltaEpsilon = 5e-5

// Params describe the run that produced the results
type Params struct {
	Parameters    string    // Printed on the first line of the report
	Names         []string  // Optional display names, replacing sequence names in order
	Date          time.Time // When the run started
	Seconds       float64   // Duration of the evaluation
	HistogramBins int       // Zero means DefaultHistogramBins
}

// SequenceRow is one line of the report table
type SequenceRow struct {
	Name       string // Display name
	Sequence   string // Name in the results
	Frames     int
	Counts     results.Counts
	HasBase    bool
	BaseCounts results.Counts
}

// Report is an evaluation report, comparing a run's results to a baseline
type Report struct {
	Date          time.Time
	Stats         Stats
	Rows          []SequenceRow
	HasBase       bool  // True if at least one sequence was compared to the baseline
	Histogram     []int // IoU histogram of the results
	HistogramBase []int // IoU histogram of the baseline, or nil

	results *results.Store
	text    string
}

// Generate computes the report. 'baseline' may be nil.
// Only sequences with at least one evaluated frame are reported. A sequence
// is compared to its baseline only if both have the same number of frames.
func Generate(res, baseline *results.Store, p Params) *Report {
	if baseline == nil {
		baseline = results.NewStore()
	}
	bins := p.HistogramBins
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	r := &Report{
		Date:    p.Date,
		results: res,
	}

	var sum, sumBase [NumStats]float64
	total := results.Counts{}
	totalBase := results.Counts{}
	numBase := 0
	for _, seq := range res.Sequences() {
		if len(seq.Frames) == 0 {
			continue
		}
		row := SequenceRow{
			Name:     seq.Name,
			Sequence: seq.Name,
			Frames:   len(seq.Frames),
			Counts:   seq.Total(),
		}
		if len(r.Rows) < len(p.Names) {
			row.Name = p.Names[len(r.Rows)]
		}
		total.Add(row.Counts)
		base := baseline.GetSequence(seq.Name)
		if len(base.Frames) == len(seq.Frames) {
			row.HasBase = true
			row.BaseCounts = base.Total()
			totalBase.Add(row.BaseCounts)
			numBase++
		}
		for s := range NumStats {
			sum[s] += s.Eval(row.Counts)
			if row.HasBase {
				sumBase[s] += s.Eval(row.BaseCounts)
			}
		}
		r.Rows = append(r.Rows, row)
	}
	if len(r.Rows) == 0 {
		return r
	}

	r.HasBase = numBase > 0
	n := float64(len(r.Rows))
	for s := range NumStats {
		r.Stats.Total[s] = s.Eval(total)
		r.Stats.Avg[s] = sum[s] / n
		if r.HasBase {
			r.Stats.TotalBase[s] = s.Eval(totalBase)
			// sequences without a baseline contribute zero, but still count
			r.Stats.AvgBase[s] = sumBase[s] / n
		} else {
			r.Stats.TotalBase[s] = r.Stats.Total[s]
			r.Stats.AvgBase[s] = r.Stats.Avg[s]
		}
	}

	r.Histogram = res.IOUHistogram(bins)
	r.Stats.IOU = res.AverageIOU()
	r.Stats.IOUBase = r.Stats.IOU
	if r.HasBase {
		r.HistogramBase = baseline.IOUHistogram(bins)
		r.Stats.IOUBase = baseline.AverageIOU()
	}

	r.text = r.format(p, total, totalBase)
	return r
}

// Text returns the human readable report. It is empty if no sequence was evaluated.
func (r *Report) Text() string {
	return r.text
}

func (r *Report) Write(w io.Writer) error {
	_, err := io.WriteString(w, r.text)
	return err
}

// FileName returns the path of a report artifact, named after the report date
func (r *Report) FileName(dir, ext string) string {
	return filepath.Join(dir, r.Date.Format("20060102_150405")+ext)
}

// Save writes the text report, followed by the results, into 'dir'.
// Because the results come last, the file can be loaded as a baseline.
// Returns the filename, or an empty string if there were no results to save.
func (r *Report) Save(dir string) (string, error) {
	if r.results.Len() == 0 {
		return "", nil
	}
	filename := r.FileName(dir, ".txt")
	f, err := os.Create(filename)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to create report %v", filename)
	}
	bw := bufio.NewWriter(f)
	err = r.Write(bw)
	if err == nil {
		_, err = bw.WriteString("\n")
	}
	if err == nil {
		err = r.results.Write(bw)
	}
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		f.Close()
		return "", errors.Wrapf(err, "Failed to write report %v", filename)
	}
	return filename, f.Close()
}

// WriteScore writes the average stats, then the total stats, then the mean IoU, one per line
func (r *Report) WriteScore(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, v := range r.Stats.Avg {
		fmt.Fprintf(bw, "%.12f\n", v)
	}
	for _, v := range r.Stats.Total {
		fmt.Fprintf(bw, "%.12f\n", v)
	}
	fmt.Fprintf(bw, "%.12f\n", r.Stats.IOU)
	return bw.Flush()
}

func (r *Report) SaveScore(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Failed to create score file %v", filename)
	}
	if err := r.WriteScore(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "Failed to write score file %v", filename)
	}
	return f.Close()
}

func countStr(val, base int) string {
	if delta := val - base; delta != 0 {
		return fmt.Sprintf("%v (%+d)", val, delta)
	}
	return fmt.Sprintf("%v", val)
}

func percentStr(val, base float64) string {
	if delta := val - base; math.Abs(delta) > deltaEpsilon {
		return fmt.Sprintf("%.2f%% (%+.2f%%)", val*100, delta*100)
	}
	return fmt.Sprintf("%.2f%%", val*100)
}

func countCells(c, base results.Counts, hasBase bool) []string {
	if !hasBase {
		base = c
	}
	return []string{
		countStr(c[results.EventTP], base[results.EventTP]),
		countStr(c[results.EventTN], base[results.EventTN]),
		countStr(c[results.EventFP], base[results.EventFP]),
		countStr(c[results.EventFN], base[results.EventFN]),
	}
}

func (r *Report) format(p Params, total, totalBase results.Counts) string {
	rows := [][]string{}

	header := []string{"sequence", "tp", "tn", "fp", "fn"}
	for s := range NumStats {
		if statInTable[s] {
			header = append(header, s.String())
		}
	}
	rows = append(rows, header)

	for _, seqRow := range r.Rows {
		row := append([]string{seqRow.Name}, countCells(seqRow.Counts, seqRow.BaseCounts, seqRow.HasBase)...)
		for s := range NumStats {
			if !statInTable[s] {
				continue
			}
			val := s.Eval(seqRow.Counts)
			base := val
			if seqRow.HasBase {
				base = s.Eval(seqRow.BaseCounts)
			}
			row = append(row, percentStr(val, base))
		}
		rows = append(rows, row)
	}

	totalRow := append([]string{"total"}, countCells(total, totalBase, r.HasBase)...)
	avgRow := []string{"average", "", "", "", ""}
	for s := range NumStats {
		if statInTable[s] {
			totalRow = append(totalRow, percentStr(r.Stats.Total[s], r.Stats.TotalBase[s]))
			avgRow = append(avgRow, percentStr(r.Stats.Avg[s], r.Stats.AvgBase[s]))
		}
	}
	rows = append(rows, totalRow, avgRow)

	colSize := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			colSize[i] = max(colSize[i], utf8.RuneCountInString(cell)+1)
		}
	}

	b := strings.Builder{}
	fmt.Fprintf(&b, "parameters: %v\n", p.Parameters)
	fmt.Fprintf(&b, "generated on: %v\n", p.Date.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "evaluation time: %.1f s\n", p.Seconds)
	b.WriteString("iou: ")
	for i, v := range r.Histogram {
		base := v
		if r.HistogramBase != nil {
			base = r.HistogramBase[i]
		}
		b.WriteString(countStr(v, base))
		b.WriteByte(' ')
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "iou avg: %v\n", percentStr(r.Stats.IOU, r.Stats.IOUBase))
	for s := range NumStats {
		if !statInTable[s] {
			fmt.Fprintf(&b, "%v total: %v, avg: %v\n", s, percentStr(r.Stats.Total[s], r.Stats.TotalBase[s]), percentStr(r.Stats.Avg[s], r.Stats.AvgBase[s]))
		}
	}
	b.WriteByte('\n')

	for i, row := range rows {
		for col, cell := range row {
			if col != 0 {
				b.WriteByte('|')
			}
			fmt.Fprintf(&b, "%-*s", colSize[col], cell)
		}
		b.WriteByte('\n')
		if i == 0 || i == len(r.Rows) {
			writeRule(&b, colSize)
		}
	}
	return b.String()
}

func writeRule(b *strings.Builder, colSize []int) {
	for col, size := range colSize {
		if col != 0 {
			b.WriteByte('|')
		}
		b.WriteString(strings.Repeat("-", size))
	}
	b.WriteByte('\n')
}
