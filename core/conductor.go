package core

import (
	"math"

	"github.com/danmaps/GridScaper/model"
)

// DefaultSamples is the number of curve segments used when a
// ConductorConfig leaves Samples unset. The emitted curve has
// Samples+1 points.
const DefaultSamples = 32

// ConductorConfig describes one conductor to sample. Zero values for
// Tension and Samples take their defaults at the boundary, so callers
// only fill what they care about.
type ConductorConfig struct {
	PoleA model.Pole
	PoleB model.Pole

	// Tension divides the base sag; defaults to 1 when unset.
	Tension float64

	// Samples is the number of curve segments; defaults to
	// DefaultSamples when unset.
	Samples int

	// LateralOffset displaces the conductor perpendicular to the span
	// direction, separating parallel wires on the same crossarm.
	LateralOffset float64

	// TerrainOffset shifts the whole curve along the depth axis into
	// the terrain frame.
	TerrainOffset float64
}

// BuildConductorCurve samples the hanging-cable curve between the two
// poles. The result has Samples+1 points whose endpoints land exactly
// on the (laterally-offset) pole attachment points. Output is
// deterministic for identical inputs.
func BuildConductorCurve(cfg ConductorConfig) []model.CurvePoint {
	tension := cfg.Tension
	if tension <= 0 {
		tension = 1
	}
	samples := cfg.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}

	hA := cfg.PoleA.AttachmentHeight()
	hB := cfg.PoleB.AttachmentHeight()

	a2 := Point2{X: cfg.PoleA.X, Z: cfg.PoleA.Z}
	b2 := Point2{X: cfg.PoleB.X, Z: cfg.PoleB.Z}

	// Horizontal span ignores elevation. Degenerate spans are clamped
	// rather than propagated as NaN.
	d := a2.DistanceTo(b2)
	if d < minSpanLength {
		d = minSpanLength
	}

	sag := math.Max(MinSag, d*BaseSagFactor) / tension
	a := SolveCatenaryParameter(d, sag)

	// Perpendicular unit vector for the lateral crossarm offset.
	var px, pz float64
	if sep := a2.DistanceTo(b2); sep > 0 {
		px = -(b2.Z - a2.Z) / sep
		pz = (b2.X - a2.X) / sep
	}

	ax := a2.X + px*cfg.LateralOffset
	az := a2.Z + pz*cfg.LateralOffset
	bx := b2.X + px*cfg.LateralOffset
	bz := b2.Z + pz*cfg.LateralOffset

	apex := math.Cosh((d / 2) / a)

	points := make([]model.CurvePoint, 0, samples+1)
	for i := 0; i <= samples; i++ {
		t := float64(i) / float64(samples)

		// Local horizontal coordinate centred on midspan.
		u := (t - 0.5) * d
		dip := a * (apex - math.Cosh(u/a))

		points = append(points, model.CurvePoint{
			X: lerp(ax, bx, t),
			Y: lerp(hA, hB, t) - dip,
			Z: lerp(az, bz, t) + cfg.TerrainOffset,
		})
	}
	return points
}
