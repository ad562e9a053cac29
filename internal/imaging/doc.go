// Package imaging provides the pixel-level building blocks of the spectrogram
// detection pipeline: frame loading, grayscale conversion, blurring, thresholding,
// Canny edge detection, raster drawing and debug/training image output.
//
// All operations work with standard Go image types and use a coordinate system
// where (0,0) is at the top-left corner, X increases rightward, and Y increases
// downward. On a rendered spectrogram, row 0 is the highest displayed frequency.
//
// # Single-Channel Images
//
// Intermediate stages are carried as *image.Gray. Grayscale, BlurWrap and Threshold
// always return images whose bounds start at (0,0) with the same size as the input.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Every other function allocates its own
// output and never mutates its input unless documented (the Draw* and Fill* helpers
// draw in place on the image they are given).
//
// # Error Handling
//
// Functions return errors for I/O failures, undecodable input and malformed colours.
// Pure pixel operations do not fail.
package imaging
