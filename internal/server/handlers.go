package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/spectro-roi/internal/config"
	"github.com/ironsheep/spectro-roi/internal/detection"
	"github.com/ironsheep/spectro-roi/internal/imaging"
	"github.com/ironsheep/spectro-roi/internal/transform"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "spectrogram_seek").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	case "spectrogram_load":
		return s.handleSpectrogramLoad(args)
	case "spectrogram_dimensions":
		return s.handleSpectrogramDimensions(args)
	case "spectrogram_seek":
		return s.handleSpectrogramSeek(args)
	case "spectrogram_edges":
		return s.handleSpectrogramEdges(args)
	case "spectrogram_transform":
		return s.handleSpectrogramTransform(args)
	case "spectrogram_cache_clear":
		return s.handleSpectrogramCacheClear(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Frame Information Handlers ===

type spectrogramLoadArgs struct {
	Path   string `json:"path"`
	Target string `json:"target"`
}

func (s *Server) handleSpectrogramLoad(args json.RawMessage) (interface{}, error) {
	var a spectrogramLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	var fx, fy int
	if a.Target != "" {
		t, err := s.target(a.Target)
		if err != nil {
			return nil, err
		}
		fx, fy = t.FrameX, t.FrameY
	}
	return imaging.LoadFrameInfo(s.cache, a.Path, fx, fy)
}

func (s *Server) handleSpectrogramDimensions(args json.RawMessage) (interface{}, error) {
	var a spectrogramLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type spectrogramCacheClearArgs struct {
	Path string `json:"path"`
}

// CacheResult is the spectrogram_cache_clear tool output.
type CacheResult struct {
	Evicted int `json:"evicted"`
	Cached  int `json:"cached"`
}

// handleSpectrogramCacheClear drops one cached frame, or every frame when no path
// is given, so re-rendered files are decoded again on the next call.
func (s *Server) handleSpectrogramCacheClear(args json.RawMessage) (interface{}, error) {
	var a spectrogramCacheClearArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	before := s.cache.Len()
	if a.Path == "" {
		s.cache.Clear()
	} else {
		s.cache.Evict(a.Path)
	}
	after := s.cache.Len()
	return &CacheResult{Evicted: before - after, Cached: after}, nil
}

func (s *Server) target(name string) (*config.Target, error) {
	if s.cfg == nil {
		return nil, fmt.Errorf("no configuration loaded; start the server with -config")
	}
	return s.cfg.Target(name)
}

// === Detection Handlers ===

type spectrogramSeekArgs struct {
	Path   string `json:"path"`
	Target string `json:"target"`
	Taxon  string `json:"taxon"`
}

// SeekResult is the spectrogram_seek tool output.
type SeekResult struct {
	Path   string           `json:"path"`
	Target string           `json:"target"`
	Taxon  string           `json:"taxon"`
	Count  int              `json:"count"`
	Boxes  []detection.Box  `json:"boxes"`
	Rects  []transform.Rect `json:"rects"`
}

func (s *Server) handleSpectrogramSeek(args json.RawMessage) (interface{}, error) {
	var a spectrogramSeekArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" || a.Target == "" {
		return nil, fmt.Errorf("path and target are required")
	}
	if a.Taxon == "" {
		a.Taxon = config.DefaultTaxon
	}

	d, err := s.detector(a.Target, a.Taxon)
	if err != nil {
		return nil, err
	}
	xf, err := s.cfg.Transform(a.Target)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	t := s.cfg.Targets[a.Target]
	boxes := d.Seek(imaging.FitFrame(img, t.FrameX, t.FrameY), a.Path)
	if boxes == nil {
		boxes = []detection.Box{}
	}
	return &SeekResult{
		Path:   a.Path,
		Target: a.Target,
		Taxon:  a.Taxon,
		Count:  len(boxes),
		Boxes:  boxes,
		Rects:  xf.ToPhysicalAll(boxes),
	}, nil
}

type spectrogramEdgesArgs struct {
	Path          string  `json:"path"`
	ThresholdLow  float64 `json:"threshold_low"`
	ThresholdHigh float64 `json:"threshold_high"`
	Approx        string  `json:"approx"`
}

// EdgesResult is the spectrogram_edges tool output.
type EdgesResult struct {
	*imaging.EdgeImageResult
	Contours      int `json:"contours"`
	OuterContours int `json:"outer_contours"`
}

func (s *Server) handleSpectrogramEdges(args json.RawMessage) (interface{}, error) {
	var a spectrogramEdgesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = 50
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = 150
	}
	mode, err := detection.ParseApproxMode(a.Approx)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	ex := detection.ExtractStages(img, a.ThresholdLow, a.ThresholdHigh, mode)
	enc, err := imaging.EncodeEdgeImage(ex.Edges)
	if err != nil {
		return nil, err
	}
	return &EdgesResult{
		EdgeImageResult: enc,
		Contours:        len(ex.Contours),
		OuterContours:   len(ex.Contours.Outer()),
	}, nil
}

// === Coordinate Handlers ===

type spectrogramTransformArgs struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	Target string `json:"target"`

	FrameWidth       int     `json:"frame_width"`
	FrameHeight      int     `json:"frame_height"`
	RecordingSeconds float64 `json:"recording_seconds"`
	FMin             float64 `json:"fmin"`
	FMax             float64 `json:"fmax"`
}

// TransformResult is the spectrogram_transform tool output.
type TransformResult struct {
	Box    detection.Box    `json:"box"`
	Rect   transform.Rect   `json:"rect"`
	Params transform.Params `json:"params"`
}

func (s *Server) handleSpectrogramTransform(args json.RawMessage) (interface{}, error) {
	var a spectrogramTransformArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var (
		xf  transform.Params
		err error
	)
	if a.Target != "" {
		if s.cfg == nil {
			return nil, fmt.Errorf("no configuration loaded; start the server with -config")
		}
		xf, err = s.cfg.Transform(a.Target)
	} else {
		xf, err = transform.Derive(a.FrameWidth, a.FrameHeight, a.RecordingSeconds, a.FMin, a.FMax)
	}
	if err != nil {
		return nil, err
	}

	box := detection.Box{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
	return &TransformResult{Box: box, Rect: xf.ToPhysical(box), Params: xf}, nil
}
