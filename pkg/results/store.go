package results

import (
	"math"

	"github.com/fmo-detect/fmoeval/pkg/stats"
)

// Sequence holds the per-frame classification history of one sequence
type Sequence struct {
	Name string

	// One entry per evaluated frame. Index 0 is the first evaluated frame.
	// Only ever appended to.
	Frames []Counts

	// Quantized IoU of every ground truth object whose best match scored above zero
	IOU []int
}

func (s *Sequence) clear() {
	s.Frames = nil
	s.IOU = nil
}

// Total returns the sum of the counts of all frames
func (s *Sequence) Total() Counts {
	total := Counts{}
	for _, f := range s.Frames {
		total.Add(f)
	}
	return total
}

// Store is a name-keyed collection of sequences, which remembers insertion order
type Store struct {
	list   []*Sequence
	byName map[string]*Sequence
}

func NewStore() *Store {
	return &Store{
		byName: map[string]*Sequence{},
	}
}

// NewSequence returns the existing sequence with the given name, cleared,
// or creates and registers a new one.
func (s *Store) NewSequence(name string) *Sequence {
	if seq, ok := s.byName[name]; ok {
		seq.clear()
		return seq
	}
	seq := &Sequence{Name: name}
	s.list = append(s.list, seq)
	s.byName[name] = seq
	return seq
}

// GetSequence returns the sequence with the given name.
// If there is no such sequence, it returns an unregistered sequence with zero frames.
func (s *Store) GetSequence(name string) *Sequence {
	if seq, ok := s.byName[name]; ok {
		return seq
	}
	return &Sequence{Name: name}
}

// Sequences returns all sequences in insertion order
func (s *Store) Sequences() []*Sequence {
	return s.list
}

func (s *Store) Len() int {
	return len(s.list)
}

// IOUHistogram buckets the IoU samples of all sequences into 'bins' bins over [0,1].
func (s *Store) IOUHistogram(bins int) []int {
	if bins < 1 {
		return nil
	}
	width := int(math.RoundToEven(float64(IOUStorageFactor) / float64(bins)))
	width = max(width, 1)
	hist := make([]int, bins)
	for _, seq := range s.list {
		for _, v := range seq.IOU {
			hist[max(0, min(bins-1, v/width))]++
		}
	}
	return hist
}

// AverageIOU returns the mean IoU (in [0,1]) over all samples of all sequences,
// or zero if there are no samples.
func (s *Store) AverageIOU() float64 {
	all := []int{}
	for _, seq := range s.list {
		all = append(all, seq.IOU...)
	}
	if len(all) == 0 {
		return 0
	}
	return stats.Mean(all) / IOUStorageFactor
}
