// Package server implements the MCP (Model Context Protocol) server for
// spectrogram region detection.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, and exposes
// the detection pipeline as tools so an assistant can inspect a rendered
// spectrogram, find candidate acoustic events and map them to seconds and hertz.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - spectrogram_load: frame metadata, optionally checked against a target's frame size
//   - spectrogram_dimensions: width and height
//   - spectrogram_cache_clear: evict one cached frame, or all of them
//   - spectrogram_seek: pixel boxes and physical rectangles for a configured target and taxon
//   - spectrogram_edges: the raw-pass edge map as base64 PNG with its contour counts
//   - spectrogram_transform: map one pixel box to seconds and hertz
//
// Images are cached by path for the lifetime of the process. Detectors are
// built from the configuration on first use and reused.
//
// # Error Handling
//
// Tool failures return JSON-RPC error code -32000 with the Go error in data.
// Malformed tools/call params return -32602 and unparseable lines -32700.
package server
