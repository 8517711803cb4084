package eval

import (
	"path/filepath"
	"strings"
)

// Suffixes removed from a file name to form a sequence name, in this order
var nameSuffixes = []string{".mat", ".txt", "_gt", ".avi", ".mp4", ".mov"}

// SequenceName derives the name under which a sequence is stored in a results
// file, from the path of its ground truth or video file.
// For example "/data/ball 1_gt.txt" becomes "ball_1".
func SequenceName(path string) string {
	name := filepath.Base(path)
	for _, suffix := range nameSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.ReplaceAll(name, " ", "_")
}
