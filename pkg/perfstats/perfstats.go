package perfstats

import "time"

// Int64Accumulator counts samples, and keeps their total and maximum
type Int64Accumulator struct {
	Samples int64
	Total   int64
	Max     int64
}

func (a *Int64Accumulator) Reset() {
	*a = Int64Accumulator{}
}

func (a *Int64Accumulator) AddSample(v int64) {
	if a.Samples == 0 || v > a.Max {
		a.Max = v
	}
	a.Samples++
	a.Total += v
}

func (a *Int64Accumulator) Average() float64 {
	if a.Samples == 0 {
		return 0
	}
	return float64(a.Total) / float64(a.Samples)
}

// Accumulate samples of how long something took
type TimeAccumulator struct {
	Samples int64
	Total   time.Duration
}

func (a *TimeAccumulator) Reset() {
	a.Samples = 0
	a.Total = 0
}

func (a *TimeAccumulator) AddSample(v time.Duration) {
	a.Samples++
	a.Total += v
}

// Since adds the time elapsed since 'start'
func (a *TimeAccumulator) Since(start time.Time) {
	a.AddSample(time.Since(start))
}

func (a *TimeAccumulator) Average() time.Duration {
	if a.Samples == 0 {
		return 0
	}
	return time.Duration(a.Total.Nanoseconds() / a.Samples)
}

// Seconds returns the total time in seconds
func (a *TimeAccumulator) Seconds() float64 {
	return a.Total.Seconds()
}
