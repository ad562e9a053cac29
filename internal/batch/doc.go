// Package batch runs detection over a directory tree of rendered spectrograms.
//
// Discover finds the spectrogram PNGs, Runner fans them across a fixed pool of
// workers, and ReportWriter emits one JSON document per file for the document
// store. Each worker owns its image buffers; the only shared state is the
// read-only detector and transform, plus the metrics counters.
package batch
