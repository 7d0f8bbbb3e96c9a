package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkg.jsn.cam/friendrec/pkg/mapreduce"
	"pkg.jsn.cam/friendrec/pkg/social"
)

const successMarker = "_SUCCESS"

var errUnsafePath = errors.New("refusing to clear path")

func partFileName(partition int) string {
	return fmt.Sprintf("part-r-%05d", partition)
}

// resetDir deletes dir and everything under it, then recreates it empty.
func resetDir(dir string) error {
	if err := clearPath(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// clearPath deletes a previous dataset. Missing paths are fine.
func clearPath(path string) error {
	clean := filepath.Clean(path)
	if clean == "." || clean == string(filepath.Separator) || clean == "" {
		return fmt.Errorf("%w: %q", errUnsafePath, path)
	}
	return os.RemoveAll(clean)
}

// writePart writes one reduce partition's results as "key<TAB>value" lines.
func writePart(dir string, partition int, results []mapreduce.KeyValue) (uint64, error) {
	path := filepath.Join(dir, partFileName(partition))

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	w := bufio.NewWriter(f)
	var written uint64
	for _, kv := range results {
		n, err := w.WriteString(social.FormatRecord(kv.Key, kv.Value) + "\n")
		written += uint64(n)
		if err != nil {
			f.Close()
			return written, fmt.Errorf("write %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return written, fmt.Errorf("flush %s: %w", path, err)
	}

	return written, f.Close()
}

func markSuccess(dir string) error {
	return os.WriteFile(filepath.Join(dir, successMarker), nil, 0644)
}

// pathsOverlap reports whether a and b are the same location or one lies
// under the other. Symlinks are not resolved.
func pathsOverlap(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		absA, absB = filepath.Clean(a), filepath.Clean(b)
	}
	return within(absA, absB) || within(absB, absA)
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
