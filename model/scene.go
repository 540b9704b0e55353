package model

// TerrainDescriptor names the active elevation source and carries the
// literal data needed to rebuild its elevation function exactly. For
// profile terrain the point array is stored verbatim so the rebuilt
// piecewise-linear function is bit-for-bit equivalent to the original
// session's.
type TerrainDescriptor struct {
	Kind          TerrainKind    `json:"kind"`
	ProfilePoints []ProfilePoint `json:"profilePoints,omitempty"`
	GISPoints     []ScenePoint   `json:"gisPoints,omitempty"`
	Method        string         `json:"method,omitempty"`
	Falloff       float64        `json:"falloff,omitempty"`
	SceneWidth    float64        `json:"sceneWidth,omitempty"`
	SceneDepth    float64        `json:"sceneDepth,omitempty"`
	HeightScale   float64        `json:"heightScale,omitempty"`
}

// PoleRecord is the persisted form of a pole placement.
type PoleRecord struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Z         float64 `json:"z"`
	Height    float64 `json:"height"`
	Elevation float64 `json:"elevation"`
}

// SpanRecord is the persisted form of a span, one lateral offset per
// parallel conductor.
type SpanRecord struct {
	ID             string    `json:"id"`
	PoleA          string    `json:"poleA"`
	PoleB          string    `json:"poleB"`
	Tension        float64   `json:"tension"`
	LateralOffsets []float64 `json:"lateralOffsets"`
}

// SceneRecord is a complete persisted scene: pole list, spans, and the
// terrain descriptor. Restoring a record rehydrates the session
// exactly.
type SceneRecord struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Poles   []PoleRecord      `json:"poles"`
	Spans   []SpanRecord      `json:"spans"`
	Terrain TerrainDescriptor `json:"terrain"`
}
