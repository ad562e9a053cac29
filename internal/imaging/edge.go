package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	disimaging "github.com/disintegration/imaging"
)

// EdgeImageResult carries an edge map encoded as base64 PNG.
//
// The image is grayscale with edges marked in white (255) and everything else
// black (0).
type EdgeImageResult struct {
	// Width of the edge map in pixels (same as the input).
	Width int `json:"width"`

	// Height of the edge map in pixels (same as the input).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge map encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

const (
	// tan(22.5°) and tan(67.5°) split gradient directions into horizontal,
	// diagonal and vertical sectors.
	tan22 = 0.4142135623730950488
	tan67 = 2.4142135623730950488
)

// Canny detects edges in a single-channel image.
//
// Parameters:
//   - gray: Input image. It is not modified.
//   - low: Hysteresis low threshold. Only pixels whose gradient magnitude is strictly
//     greater than low can become edges.
//   - high: Hysteresis high threshold. Local maxima strictly above high seed edges.
//
// Gradients come from 3x3 Sobel operators with replicated borders and the magnitude
// is the L1 norm |gx| + |gy|, so thresholds are in the same units as the raw
// Sobel response (not normalized to 0-255). If low > high the two are swapped.
//
// Returns a binary image (0 or 255) with bounds starting at (0,0).
//
// # Algorithm
//
//  1. Sobel gradients gx, gy with border replication
//  2. Non-maximum suppression along the quantized gradient direction. Ties are
//     broken toward the upper/left pixel so edges stay one pixel wide.
//  3. Hysteresis: strong pixels are traced through 8-connected weak candidates.
func Canny(gray *image.Gray, low, high float64) *image.Gray {
	src := toOrigin(gray)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	if low > high {
		low, high = high, low
	}

	gx := make([]int32, w*h)
	gy := make([]int32, w*h)
	// Magnitudes live in a buffer padded by one zero pixel on every side so the
	// suppression step never needs bounds checks.
	pw := w + 2
	mag := make([]int32, pw*(h+2))

	at := func(x, y int) int32 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return int32(src.Pix[y*src.Stride+x])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, tc, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			ml, mr := at(x-1, y), at(x+1, y)
			bl, bc, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			dx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			dy := (bl + 2*bc + br) - (tl + 2*tc + tr)
			i := y*w + x
			gx[i] = dx
			gy[i] = dy
			mag[(y+1)*pw+x+1] = abs32(dx) + abs32(dy)
		}
	}

	const (
		stateNone = iota
		stateWeak
		stateEdge
	)
	state := make([]uint8, w*h)
	stack := make([]int, 0, w+h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mi := (y+1)*pw + x + 1
			m := mag[mi]
			if float64(m) <= low {
				continue
			}
			i := y*w + x
			dx, dy := gx[i], gy[i]
			ax, ay := float64(abs32(dx)), float64(abs32(dy))

			var keep bool
			switch {
			case ay < ax*tan22:
				keep = m > mag[mi-1] && m >= mag[mi+1]
			case ay > ax*tan67:
				keep = m > mag[mi-pw] && m >= mag[mi+pw]
			default:
				s := 1
				if (dx < 0) != (dy < 0) {
					s = -1
				}
				keep = m > mag[mi-pw-s] && m > mag[mi+pw+s]
			}
			if !keep {
				continue
			}
			if float64(m) > high {
				state[i] = stateEdge
				stack = append(stack, i)
			} else {
				state[i] = stateWeak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			if ny < 0 || ny >= h {
				continue
			}
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || nx >= w {
					continue
				}
				j := ny*w + nx
				if state[j] == stateWeak {
					state[j] = stateEdge
					stack = append(stack, j)
				}
			}
		}
	}

	for i, s := range state {
		if s == stateEdge {
			dst.Pix[(i/w)*dst.Stride+i%w] = 255
		}
	}
	return dst
}

// CountNonZero returns the number of pixels in gray that are not 0.
func CountNonZero(gray *image.Gray) int {
	b := gray.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if gray.GrayAt(x, y).Y != 0 {
				n++
			}
		}
	}
	return n
}

// EncodeEdgeImage encodes an edge map as a base64 PNG result.
func EncodeEdgeImage(edges *image.Gray) (*EdgeImageResult, error) {
	var buf bytes.Buffer
	if err := disimaging.Encode(&buf, edges, disimaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}
	b := edges.Bounds()
	return &EdgeImageResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		EdgePixels:  CountNonZero(edges),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
