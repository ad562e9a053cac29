package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// blurSigma is the Gaussian sigma used by BlurWrap's 3x3 kernel.
const blurSigma = 3.0

var blurKernel = gaussianKernel3(blurSigma)

// gaussianKernel3 builds a normalized 3x3 Gaussian kernel as the outer product of
// the 1D weights exp(-x²/2σ²) for x in {-1, 0, 1}.
func gaussianKernel3(sigma float64) convolution.Matrix {
	w := [3]float64{}
	for i := range w {
		x := float64(i - 1)
		w[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
	}

	k := convolution.NewKernel(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			k.Matrix[y*3+x] = w[y] * w[x]
		}
	}
	return k.Normalized()
}

// Grayscale converts img to single-channel luminance.
//
// Parameters:
//   - img: Any image. It is not modified.
//
// Returns a Gray image with bounds starting at (0,0), using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B). An empty input gives an empty image.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	if b.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	rgba := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	return redChannel(rgba)
}

// BlurWrap smooths gray with a 3x3 Gaussian kernel. Pixels beyond an edge are
// taken from the opposite side of the image, so a dark event touching one edge
// darkens the facing edge too.
func BlurWrap(gray *image.Gray) *image.Gray {
	if gray.Bounds().Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	src := toOrigin(gray)
	out := convolution.Convolve(src, blurKernel, &convolution.Options{Wrap: true, KeepAlpha: true})
	return redChannel(out)
}

// Threshold produces a binary image.
//
// Parameters:
//   - gray: Input image. It is not modified.
//   - min: Pixels strictly above min are set.
//   - max: Value written for set pixels. All others become 0.
func Threshold(gray *image.Gray, min, max uint8) *image.Gray {
	src := toOrigin(gray)
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()]
		for x, v := range row {
			if v > min {
				out[x] = max
			}
		}
	}
	return dst
}

// redChannel copies the R channel of a grey-valued RGBA image into a Gray whose
// bounds start at (0,0).
func redChannel(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := y * src.Stride
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			dst.Pix[di+x] = src.Pix[si+x*4]
		}
	}
	return dst
}

// toOrigin returns gray unchanged when its bounds already start at (0,0) and a
// re-based copy otherwise.
func toOrigin(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	if b.Min == (image.Point{}) {
		return gray
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return dst
}
