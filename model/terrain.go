package model

// TerrainKind identifies which elevation source is active. Exactly one
// source is active at a time; switching sources fully replaces the
// elevation function, never merges.
type TerrainKind string

const (
	TerrainFlat       TerrainKind = "flat"
	TerrainProcedural TerrainKind = "procedural"
	TerrainProfile    TerrainKind = "profile"
	TerrainGIS        TerrainKind = "gis"
)

// ProfilePoint is one sample of a 1-D survey elevation profile.
// X and Y carry optional source coordinates when the export had them.
type ProfilePoint struct {
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
}

// GISRecord is one parsed geographic survey row. Immutable once parsed.
type GISRecord struct {
	ID        string  `json:"id,omitempty"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Elevation float64 `json:"elevation"`
	Height    float64 `json:"height,omitempty"`
}

// ScenePoint is a GISRecord projected into local planar scene
// coordinates (feet).
type ScenePoint struct {
	GISRecord
	X float64 `json:"x"`
	Z float64 `json:"z"`
}
