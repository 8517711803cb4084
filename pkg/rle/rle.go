// Package rle provides on/off run-length coding of a raster scan.
// Runs alternate background/foreground, and the first run is always background
// (it may have length zero).
package rle

import (
	"github.com/pkg/errors"
)

var ErrRunOverflow = errors.New("Runs extend past the end of the raster")
var ErrNegativeRun = errors.New("Negative run length")

// Decode walks the runs over a raster of 'size' elements, and calls onForeground
// for every linear index that lies inside a foreground run.
// If the runs stop on a background run before the end of the raster, then the
// remainder of the raster is foreground.
func Decode(runs []int, size int, onForeground func(index int)) error {
	pos := 0
	on := false
	for _, length := range runs {
		if length < 0 {
			return ErrNegativeRun
		}
		if pos+length > size {
			return ErrRunOverflow
		}
		if on {
			for i := pos; i < pos+length; i++ {
				onForeground(i)
			}
		}
		pos += length
		on = !on
	}
	if on {
		for i := pos; i < size; i++ {
			onForeground(i)
		}
	}
	return nil
}

// Encode produces runs that cover the whole bitmap, starting with background.
func Encode(bits []bool) []int {
	runs := []int{}
	state := false
	start := 0
	for i, on := range bits {
		if on != state {
			runs = append(runs, i-start)
			start = i
			state = on
		}
	}
	runs = append(runs, len(bits)-start)
	return runs
}
