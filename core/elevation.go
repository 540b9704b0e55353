package core

import (
	"math"
	"sort"

	"github.com/danmaps/GridScaper/model"
)

// ElevationFunc returns ground elevation at a planar scene coordinate.
// Implementations are total over the plane: queries outside a source's
// natural domain clamp to the nearest valid boundary value and never
// return NaN.
type ElevationFunc func(x, z float64) float64

// TerrainSource selects exactly one elevation source. At most one of
// GIS and Profile is set; the zero value is flat terrain. Priority
// when several are configured: GIS, then profile, then the
// flat/procedural fallback named by Kind.
type TerrainSource struct {
	Kind    model.TerrainKind
	GIS     *GISSurface
	Profile *ProfileTerrain
}

// Descriptor reduces the source to its persistable form.
func (s TerrainSource) Descriptor() model.TerrainDescriptor {
	switch {
	case s.GIS != nil:
		return s.GIS.Descriptor()
	case s.Profile != nil:
		return s.Profile.Descriptor()
	case s.Kind == model.TerrainProcedural:
		return model.TerrainDescriptor{Kind: model.TerrainProcedural}
	default:
		return model.TerrainDescriptor{Kind: model.TerrainFlat}
	}
}

// NewElevationModel builds the single height(x, z) function for the
// active source.
func NewElevationModel(src TerrainSource) ElevationFunc {
	switch {
	case src.GIS != nil:
		return src.GIS.Elevation
	case src.Profile != nil:
		return src.Profile.Elevation
	case src.Kind == model.TerrainProcedural:
		return ProceduralElevation
	default:
		return FlatElevation
	}
}

// FlatElevation is the zero-elevation fallback surface.
func FlatElevation(x, z float64) float64 { return 0 }

// ProceduralElevation is a fixed synthetic undulation used when no
// explicit elevation data exists. Deterministic in (x, z).
func ProceduralElevation(x, z float64) float64 {
	return 2.0*math.Sin(x*0.02)*math.Cos(z*0.015) +
		0.8*math.Sin(x*0.07+z*0.05)
}

// interpolateKnots evaluates a piecewise-linear function over knots
// sorted by Distance. Queries outside the knot range clamp to the
// nearest endpoint elevation; inside, the two bracketing knots are
// linearly interpolated. Exact at the knots themselves.
func interpolateKnots(knots []model.ProfilePoint, d float64) float64 {
	n := len(knots)
	if n == 0 {
		return 0
	}
	if d <= knots[0].Distance {
		return knots[0].Elevation
	}
	if d >= knots[n-1].Distance {
		return knots[n-1].Elevation
	}

	// First knot strictly beyond d; its predecessor brackets from below.
	hi := sort.Search(n, func(i int) bool { return knots[i].Distance > d })
	lo := hi - 1

	span := knots[hi].Distance - knots[lo].Distance
	if span == 0 {
		return knots[lo].Elevation
	}
	t := (d - knots[lo].Distance) / span
	return lerp(knots[lo].Elevation, knots[hi].Elevation, t)
}

// SurfaceMethod names how a scattered GIS surface interpolates.
type SurfaceMethod string

const (
	// SurfaceNearestPair blends the two nearest source points by
	// inverse distance, fading to the mean elevation beyond the
	// falloff distance.
	SurfaceNearestPair SurfaceMethod = "nearest"

	// SurfaceIDW weights every source point by 1/distance² with an
	// exponential decay applied past the falloff distance.
	SurfaceIDW SurfaceMethod = "idw"
)

// SurfaceOptions configures CreateElevationSurface. Zero values take
// defaults: nearest-pair blending with a 200-unit falloff.
type SurfaceOptions struct {
	Method  SurfaceMethod
	Falloff float64
}

// DefaultFalloff is the distance beyond which a scattered surface
// fades toward its mean elevation.
const DefaultFalloff = 200.0

// GISSurface is a scattered-point elevation surface in scene
// coordinates.
type GISSurface struct {
	Points  []model.ScenePoint
	Method  SurfaceMethod
	Falloff float64

	mean float64
}

// CreateElevationSurface builds a total elevation function from
// scattered scene points. It fails only when no points are supplied.
func CreateElevationSurface(points []model.ScenePoint, opts SurfaceOptions) (*GISSurface, error) {
	if len(points) == 0 {
		return nil, ErrInvalidInputData
	}

	method := opts.Method
	if method == "" {
		method = SurfaceNearestPair
	}
	falloff := opts.Falloff
	if falloff <= 0 {
		falloff = DefaultFalloff
	}

	sum := 0.0
	for _, p := range points {
		sum += p.Elevation
	}

	return &GISSurface{
		Points:  points,
		Method:  method,
		Falloff: falloff,
		mean:    sum / float64(len(points)),
	}, nil
}

// Descriptor reduces the surface to its persistable form.
func (s *GISSurface) Descriptor() model.TerrainDescriptor {
	return model.TerrainDescriptor{
		Kind:      model.TerrainGIS,
		GISPoints: s.Points,
		Method:    string(s.Method),
		Falloff:   s.Falloff,
	}
}

// Elevation samples the surface. Total over the plane.
func (s *GISSurface) Elevation(x, z float64) float64 {
	if s.Method == SurfaceIDW {
		return s.idw(x, z)
	}
	return s.nearestPair(x, z)
}

func (s *GISSurface) nearestPair(x, z float64) float64 {
	q := Point2{X: x, Z: z}

	// Locate the two nearest source points.
	best, second := -1, -1
	bestD, secondD := math.Inf(1), math.Inf(1)
	for i, p := range s.Points {
		d := q.DistanceTo(Point2{X: p.X, Z: p.Z})
		switch {
		case d < bestD:
			second, secondD = best, bestD
			best, bestD = i, d
		case d < secondD:
			second, secondD = i, d
		}
	}

	if bestD == 0 {
		return s.Points[best].Elevation
	}

	blended := s.Points[best].Elevation
	if second >= 0 {
		wa := 1 / bestD
		wb := 1 / secondD
		blended = (s.Points[best].Elevation*wa + s.Points[second].Elevation*wb) / (wa + wb)
	}

	// Fade toward the mean elevation as the query leaves the data.
	fade := clamp(bestD/s.Falloff, 0, 1)
	return lerp(blended, s.mean, fade)
}

func (s *GISSurface) idw(x, z float64) float64 {
	q := Point2{X: x, Z: z}

	sumW := 0.0
	sumWE := 0.0
	for _, p := range s.Points {
		d := q.DistanceTo(Point2{X: p.X, Z: p.Z})
		if d == 0 {
			return p.Elevation
		}
		w := 1 / (d * d)
		if d > s.Falloff {
			w *= math.Exp(-(d - s.Falloff) / s.Falloff)
		}
		sumW += w
		sumWE += w * p.Elevation
	}
	if sumW == 0 {
		return s.mean
	}
	return sumWE / sumW
}
