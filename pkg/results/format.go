package results

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fmo-detect/fmoeval/pkg/evalerr"
	"github.com/pkg/errors"
)

// FormatToken is the first line of the results section of a file.
const FormatToken = "/FMO/EVALUATION/V3/"

// Results file layout:
//
//	/FMO/EVALUATION/V3/
//	<sequence count>
//	<name> <frame count> <iou count>
//	FN <frame count ints>
//	FP <frame count ints>
//	TN <frame count ints>
//	TP <frame count ints>
//	IOU <iou count ints>      (omitted when iou count is 0)
//	... repeated per sequence
//
// Anything before the token line is ignored, so that a full evaluation report
// (text report followed by the results) can be loaded as a baseline.

// Save writes the store to a file
func (s *Store) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Failed to create results file %v", filename)
	}
	if err := s.Write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "Failed to write results file %v", filename)
	}
	return f.Close()
}

// Write the store in the versioned text format
func (s *Store) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%v\n", FormatToken)
	fmt.Fprintf(bw, "%v\n", len(s.list))
	for _, seq := range s.list {
		fmt.Fprintf(bw, "%v %v %v\n", seq.Name, len(seq.Frames), len(seq.IOU))
		for _, ev := range SerializationOrder {
			bw.WriteString(ev.String())
			for _, f := range seq.Frames {
				bw.WriteByte(' ')
				bw.WriteString(strconv.Itoa(f[ev]))
			}
			bw.WriteByte('\n')
		}
		if len(seq.IOU) > 0 {
			bw.WriteString("IOU")
			for _, v := range seq.IOU {
				bw.WriteByte(' ')
				bw.WriteString(strconv.Itoa(v))
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// Load reads a results file into the store.
// Sequences that already exist in the store are replaced.
func (s *Store) Load(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "Failed to open results file %v", filename)
	}
	defer f.Close()
	if err := s.Read(f); err != nil {
		return errors.WithMessagef(err, "Results file %v", filename)
	}
	return nil
}

// Read parses the versioned text format.
// The store is only modified if the entire input parses successfully.
func (s *Store) Read(r io.Reader) error {
	lr := &lineReader{r: bufio.NewReader(r)}

	for {
		line, err := lr.next("version token " + FormatToken)
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == FormatToken {
			break
		}
	}

	countLine, err := lr.next("sequence count")
	if err != nil {
		return err
	}
	numSequences, err := parseCount(countLine, "sequence count")
	if err != nil {
		return err
	}

	// Not preallocated: the count comes from the file and may be corrupt
	parsed := []*Sequence{}
	for i := 0; i < numSequences; i++ {
		seq, err := readSequence(lr)
		if err != nil {
			return err
		}
		parsed = append(parsed, seq)
	}

	for _, p := range parsed {
		seq := s.NewSequence(p.Name)
		seq.Frames = p.Frames
		seq.IOU = p.IOU
	}
	return nil
}

func readSequence(lr *lineReader) (*Sequence, error) {
	header, err := lr.next("sequence header")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(header)
	if len(fields) != 3 {
		return nil, evalerr.Formatf("line %v: expected '<name> <frames> <ious>', but got '%v'", lr.lineNum, header)
	}
	numFrames, err := parseCount(fields[1], "frame count")
	if err != nil {
		return nil, err
	}
	numIOU, err := parseCount(fields[2], "iou count")
	if err != nil {
		return nil, err
	}

	seq := &Sequence{
		Name: fields[0],
	}
	for _, ev := range SerializationOrder {
		values, err := readValues(lr, ev.String(), numFrames)
		if err != nil {
			return nil, err
		}
		if seq.Frames == nil {
			// Sized by the values actually present, which readValues has matched to the header
			seq.Frames = make([]Counts, len(values))
		}
		for i, v := range values {
			if v < 0 {
				return nil, evalerr.Formatf("line %v: negative %v count %v", lr.lineNum, ev, v)
			}
			seq.Frames[i][ev] = v
		}
	}
	if numIOU > 0 {
		values, err := readValues(lr, "IOU", numIOU)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if v < 0 || v > IOUStorageFactor {
				return nil, evalerr.Formatf("line %v: IoU sample %v out of range", lr.lineNum, v)
			}
		}
		seq.IOU = values
	}
	return seq, nil
}

// Read a line of the form "<name> v1 v2 ... vN"
func readValues(lr *lineReader, name string, n int) ([]int, error) {
	line, err := lr.next(name)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != name {
		return nil, evalerr.Formatf("line %v: expected %v but got '%v'", lr.lineNum, name, truncate(line, 40))
	}
	fields = fields[1:]
	if len(fields) != n {
		return nil, evalerr.Formatf("line %v: expected %v %v values, but found %v", lr.lineNum, n, name, len(fields))
	}
	values := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, evalerr.Formatf("line %v: invalid %v value '%v'", lr.lineNum, name, f)
		}
		values[i] = v
	}
	return values, nil
}

func parseCount(s, what string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0, evalerr.Formatf("invalid %v '%v'", what, s)
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

type lineReader struct {
	r       *bufio.Reader
	lineNum int
}

// Returns the next line, without the line terminator
func (l *lineReader) next(expect string) (string, error) {
	line, err := l.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err == io.EOF {
		return "", evalerr.Formatf("unexpected end of file, expected %v", expect)
	} else if err != nil {
		return "", err
	}
	l.lineNum++
	return strings.TrimRight(line, "\r\n"), nil
}
