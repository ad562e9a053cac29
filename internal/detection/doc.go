// Package detection finds candidate acoustic events on rendered spectrogram frames.
//
// A frame goes through a fixed pipeline:
//
//  1. Extract: grayscale, 3x3 wrap-border blur, Canny with the raw-pass
//     thresholds, and border following that keeps every contour pixel.
//  2. Consolidate: each raw contour's minimum enclosing circle, grown by the
//     radius boost, is painted as a black disk onto a copy of the frame so that
//     fragments of one event fuse into a single blob. The filled copy is
//     thresholded and its edges traced again.
//  3. FilterBoxes: bounding boxes of the consolidated contours, kept when their
//     area lies strictly between the configured bounds, with consecutive
//     duplicates removed.
//
// Detector ties the stages to one parameter set and writes the debug overlays.
// Mapping boxes to seconds and hertz lives in package transform.
//
// # Coordinate System
//
// Boxes are in pixel space with (0, 0) at the top-left corner and y increasing
// downward, so the top of the frame is the highest displayed frequency. A Box
// stores its top-left corner and its width and height in pixels.
//
// # Determinism
//
// Every stage is a pure function of its inputs. The enclosing-circle search
// shuffles with a fixed seed, so repeated runs give identical contours and boxes.
package detection
