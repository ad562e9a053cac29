package imaging

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	disimaging "github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of decoded spectrogram frames so repeated
// tool calls against the same file avoid disk reads.
//
// Entries are keyed by the exact path string. A relative and an absolute path to the
// same file are separate entries.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached frames remain in memory until removed via Evict or Clear. The MCP server
// shares one cache across requests and exposes both through the
// spectrogram_cache_clear tool; the batch driver reads each file once and does not
// cache.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/data/marsh/clip_sox_mel.png")
//	if err != nil {
//	    return err
//	}
//	// Use img...
//	cache.Evict("/data/marsh/clip_sox_mel.png") // re-read after re-rendering
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty cache, ready for concurrent use.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the cached image for path, decoding it from disk on a miss.
//
// Parameters:
//   - path: File path of the image. PNG, JPEG, GIF, TIFF and BMP are supported.
//
// Returns:
//   - image.Image: The decoded image. The concrete type depends on the format
//     (e.g., *image.NRGBA, *image.Gray).
//   - error: Non-nil if the file cannot be opened or decoded.
//
// # Errors
//
//   - "failed to open image" when the file does not exist
//   - "failed to decode image" when the contents are not a supported format
//
// Failed loads are not cached.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := openImage(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes the image loaded under path so the next Load reads the file again.
// Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

func openImage(path string) (image.Image, error) {
	img, err := disimaging.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadFrame decodes the spectrogram at path and fits it to the target frame.
//
// Parameters:
//   - path: File path of the rendered spectrogram.
//   - frameX, frameY: Expected frame size in pixels. A non-positive value in either
//     disables resizing.
//
// Returns the frame, resized with FitFrame when its size differs, or the wrapped
// open/decode error. LoadFrame bypasses the cache.
func LoadFrame(path string, frameX, frameY int) (image.Image, error) {
	img, err := openImage(path)
	if err != nil {
		return nil, err
	}
	return FitFrame(img, frameX, frameY), nil
}

// FitFrame resizes img to frameX x frameY with bilinear resampling when its size
// differs, and returns img unchanged otherwise.
func FitFrame(img image.Image, frameX, frameY int) image.Image {
	if frameX <= 0 || frameY <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() == frameX && b.Dy() == frameY {
		return img
	}
	return disimaging.Resize(img, frameX, frameY, disimaging.Linear)
}

// FrameInfo describes a spectrogram file on disk.
type FrameInfo struct {
	// Width is the decoded width in pixels.
	Width int `json:"width"`

	// Height is the decoded height in pixels.
	Height int `json:"height"`

	// Format is the lower-case format derived from the file extension, or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// MatchesFrame reports whether the size equals the configured frame. It is
	// omitted when no frame size is known.
	MatchesFrame *bool `json:"matches_frame,omitempty"`
}

// LoadFrameInfo loads path through cache and reports its metadata.
//
// Parameters:
//   - cache: Cache the frame is decoded through.
//   - path: File path of the spectrogram.
//   - frameX, frameY: Configured frame size. When both are positive, MatchesFrame
//     is filled in.
//
// Returns:
//   - *FrameInfo: Decoded size, format from the file extension, and file size.
//   - error: Non-nil if the file cannot be decoded or stat'ed.
func LoadFrameInfo(cache *ImageCache, path string, frameX, frameY int) (*FrameInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := disimaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	b := img.Bounds()
	info := &FrameInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        format,
		FileSizeBytes: stat.Size(),
	}
	if frameX > 0 && frameY > 0 {
		match := b.Dx() == frameX && b.Dy() == frameY
		info.MatchesFrame = &match
	}
	return info, nil
}

// Dimensions holds the width and height of an image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the pixel dimensions of the image at path, loading it
// through cache.
func GetDimensions(cache *ImageCache, path string) (*Dimensions, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
}
