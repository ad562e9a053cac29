package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	disimaging "github.com/disintegration/imaging"
)

// DefaultTileSize is the edge length of exported training tiles.
const DefaultTileSize = 128

// TileName returns the file name of the n-th training tile cut from stem.
func TileName(stem string, n int) string {
	return fmt.Sprintf("%s_roi_%d.png", stem, n)
}

// ExportTiles writes one training thumbnail per region.
//
// Parameters:
//   - frame: Source spectrogram frame.
//   - regions: Pixel regions to cut. Each is clipped to the frame; empty regions
//     are skipped but keep their index.
//   - dir: Output directory, created when missing.
//   - stem: Base name; tile i is written as TileName(stem, i).
//   - size: Tile edge length. Non-positive selects DefaultTileSize.
//
// Returns:
//   - []string: Paths of the written tiles.
//   - error: Non-nil if the directory or a tile cannot be written.
func ExportTiles(frame image.Image, regions []image.Rectangle, dir, stem string, size int) ([]string, error) {
	if size <= 0 {
		size = DefaultTileSize
	}
	if len(regions) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create train dir: %w", err)
	}

	b := frame.Bounds()
	paths := make([]string, 0, len(regions))
	for i, r := range regions {
		r = r.Add(b.Min).Intersect(b)
		if r.Empty() {
			continue
		}
		tile := disimaging.Resize(disimaging.Crop(frame, r), size, size, disimaging.Linear)
		path := filepath.Join(dir, TileName(stem, i))
		if err := disimaging.Save(tile, path); err != nil {
			return paths, fmt.Errorf("failed to write tile %d: %w", i, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
