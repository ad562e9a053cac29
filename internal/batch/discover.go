package batch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/spectro-roi/internal/imaging"
)

// DefaultPattern marks rendered, non-annotated mel spectrograms.
const DefaultPattern = "sox_mel"

// Discover walks dir and returns every PNG whose name contains pattern, in
// natural order ("clip_2" before "clip_10"). Debug snapshots and training tiles
// written by earlier runs are skipped.
func Discover(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.EqualFold(filepath.Ext(name), ".png") || !strings.Contains(name, pattern) {
			return nil
		}
		if isArtifact(imaging.Stem(name)) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return naturalLess(files[i], files[j]) })
	return files, nil
}

func isArtifact(stem string) bool {
	for _, suffix := range []string{imaging.SuffixCons, imaging.SuffixEdges, imaging.SuffixCoral} {
		if strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return strings.Contains(stem, "_roi_")
}

// naturalLess orders strings with embedded numbers by numeric value.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		ca, ra := leadingChunk(a)
		cb, rb := leadingChunk(b)
		if ca != cb {
			if isDigit(ca[0]) && isDigit(cb[0]) {
				na, nb := strings.TrimLeft(ca, "0"), strings.TrimLeft(cb, "0")
				if len(na) != len(nb) {
					return len(na) < len(nb)
				}
				if na != nb {
					return na < nb
				}
			}
			return ca < cb
		}
		a, b = ra, rb
	}
	return len(a) < len(b)
}

// leadingChunk splits s after its first run of digits or non-digits.
func leadingChunk(s string) (chunk, rest string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
