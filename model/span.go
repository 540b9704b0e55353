package model

// Conductor is one wire hanging within a span. Parallel conductors on
// the same pole pair differ only by their lateral offset from the
// pole centerline.
type Conductor struct {
	LateralOffset float64
}

// Span connects two poles and owns one or more parallel conductors.
type Span struct {
	ID    string
	PoleA string
	PoleB string

	// Tension is a dimensionless multiplier reducing sag; higher
	// tension means less sag. Must be positive.
	Tension float64

	Conductors []Conductor
}

// CurvePoint is one sample of a conductor curve in scene coordinates.
// Curves are produced fresh on every recompute and never mutated.
type CurvePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
