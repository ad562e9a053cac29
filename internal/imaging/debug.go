package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	disimaging "github.com/disintegration/imaging"
)

// Debug artifact suffixes, one per pipeline stage snapshot.
const (
	SuffixCons  = "_CONS"
	SuffixEdges = "_EDGES"
	SuffixCoral = "_CORAL"
)

// Sink receives named debug images. Names are bare file names such as
// "clip_sox_mel_CONS.png".
type Sink interface {
	Write(name string, img image.Image) error
}

// Stem returns the file name of path without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DebugName builds the artifact name for the source image at srcPath.
func DebugName(srcPath, suffix string) string {
	return Stem(srcPath) + suffix + ".png"
}

// DirSink writes debug images as PNG files into a directory, creating it on first
// use. Distinct names never collide, so a DirSink may be shared by workers.
type DirSink struct {
	Dir string
}

// Write implements Sink.
func (s DirSink) Write(name string, img image.Image) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create debug dir: %w", err)
	}
	if err := disimaging.Save(img, filepath.Join(s.Dir, name)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// MemorySink keeps debug images in memory. It is safe for concurrent use.
type MemorySink struct {
	mu     sync.Mutex
	images map[string]image.Image
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{images: make(map[string]image.Image)}
}

// Write implements Sink.
func (s *MemorySink) Write(name string, img image.Image) error {
	s.mu.Lock()
	s.images[name] = img
	s.mu.Unlock()
	return nil
}

// Get returns the image stored under name.
func (s *MemorySink) Get(name string) (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[name]
	return img, ok
}

// Names returns the stored names in sorted order.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.images))
	for n := range s.images {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
