package core

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/danmaps/GridScaper/model"
)

// ProfileStats summarizes a parsed elevation profile.
type ProfileStats struct {
	Count         int     `json:"count"`
	MinElevation  float64 `json:"minElevation"`
	MaxElevation  float64 `json:"maxElevation"`
	MeanElevation float64 `json:"meanElevation"`
	ElevationSpan float64 `json:"elevationSpan"`
	MinDistance   float64 `json:"minDistance"`
	MaxDistance   float64 `json:"maxDistance"`
	DistanceSpan  float64 `json:"distanceSpan"`
}

// ElevationProfile is a parsed 1-D survey profile, sorted by distance.
type ElevationProfile struct {
	Points   []model.ProfilePoint `json:"points"`
	Stats    ProfileStats         `json:"stats"`
	Warnings []string             `json:"warnings,omitempty"`
}

type profileColumns struct {
	elevation, distance, x, y int
}

func detectProfileColumns(header []string) (profileColumns, bool) {
	cols := profileColumns{elevation: -1, distance: -1, x: -1, y: -1}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case cols.elevation < 0 && (strings.Contains(name, "elev") || strings.Contains(name, "ground")):
			cols.elevation = i
		case cols.distance < 0 && strings.Contains(name, "dist"):
			cols.distance = i
		case cols.x < 0 && name == "x":
			cols.x = i
		case cols.y < 0 && name == "y":
			cols.y = i
		}
	}
	return cols, cols.elevation >= 0
}

// ParseElevationProfile parses a survey elevation CSV. The elevation
// column is required and matched by header-name substring; distance
// and x/y columns are optional. Rows with an unparsable elevation are
// dropped with a warning. When no distance column exists, row order
// stands in for distance. Points come back sorted by distance.
func ParseElevationProfile(input string) (*ElevationProfile, error) {
	reader := csv.NewReader(strings.NewReader(input))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse elevation profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse elevation profile: %w: empty input", ErrInvalidInputData)
	}

	cols, ok := detectProfileColumns(rows[0])
	if !ok {
		return nil, fmt.Errorf("parse elevation profile: %w: no elevation column", ErrInvalidInputData)
	}

	field := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var warnings []string
	points := make([]model.ProfilePoint, 0, len(rows)-1)
	for i, row := range rows[1:] {
		elev, rowErr := strconv.ParseFloat(field(row, cols.elevation), 64)
		if rowErr != nil {
			warnings = append(warnings, fmt.Sprintf("row %d skipped: bad elevation %q", i+1, field(row, cols.elevation)))
			continue
		}

		pt := model.ProfilePoint{Elevation: elev}

		// Row order is the distance proxy when no column exists.
		pt.Distance = float64(len(points))
		if cols.distance >= 0 {
			if d, err := strconv.ParseFloat(field(row, cols.distance), 64); err == nil {
				pt.Distance = d
			} else {
				warnings = append(warnings, fmt.Sprintf("row %d: bad distance %q, using row order", i+1, field(row, cols.distance)))
			}
		}
		if v, err := strconv.ParseFloat(field(row, cols.x), 64); err == nil {
			pt.X = v
		}
		if v, err := strconv.ParseFloat(field(row, cols.y), 64); err == nil {
			pt.Y = v
		}

		points = append(points, pt)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("parse elevation profile: %w: no valid rows", ErrInvalidInputData)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Distance < points[j].Distance
	})

	return &ElevationProfile{
		Points:   points,
		Stats:    ProfileStatsFor(points),
		Warnings: warnings,
	}, nil
}

// ProfileStatsFor summarizes points already sorted by distance.
func ProfileStatsFor(points []model.ProfilePoint) ProfileStats {
	stats := ProfileStats{
		Count:        len(points),
		MinElevation: points[0].Elevation,
		MaxElevation: points[0].Elevation,
		MinDistance:  points[0].Distance,
		MaxDistance:  points[len(points)-1].Distance,
	}

	sum := 0.0
	for _, p := range points {
		if p.Elevation < stats.MinElevation {
			stats.MinElevation = p.Elevation
		}
		if p.Elevation > stats.MaxElevation {
			stats.MaxElevation = p.Elevation
		}
		sum += p.Elevation
	}
	stats.MeanElevation = sum / float64(len(points))
	stats.ElevationSpan = stats.MaxElevation - stats.MinElevation
	stats.DistanceSpan = stats.MaxDistance - stats.MinDistance
	return stats
}

// TerrainOptions shapes profile-derived terrain. Zero values take
// defaults: a 400x400 scene at unit height scale.
type TerrainOptions struct {
	SceneWidth  float64
	SceneDepth  float64
	HeightScale float64
}

// Default scene footprint for profile terrain.
const (
	DefaultSceneWidth = 400.0
	DefaultSceneDepth = 400.0
)

// ProfileTerrain is an elevation surface built from a 1-D profile laid
// along the x axis at z = 0. The profile has no inherent width, so a
// lateral falloff takes over past half the scene depth.
type ProfileTerrain struct {
	// Knots are the profile points rescaled to scene x and height,
	// stored verbatim so a persisted terrain rebuilds the exact same
	// interpolation function.
	Knots []model.ProfilePoint

	Width       float64
	Depth       float64
	HeightScale float64

	// BaseElevation is the survey elevation subtracted during
	// rescaling, recorded so reports can translate back.
	BaseElevation float64

	edge float64
}

// CreateTerrainFromProfile rescales the profile's distance axis to the
// scene width, rescales elevations against the profile minimum, and
// returns the resulting surface.
func CreateTerrainFromProfile(profile *ElevationProfile, opts TerrainOptions) (*ProfileTerrain, error) {
	if profile == nil || len(profile.Points) == 0 {
		return nil, fmt.Errorf("create terrain from profile: %w: empty profile", ErrInvalidInputData)
	}

	width := opts.SceneWidth
	if width <= 0 {
		width = DefaultSceneWidth
	}
	depth := opts.SceneDepth
	if depth <= 0 {
		depth = DefaultSceneDepth
	}
	heightScale := opts.HeightScale
	if heightScale <= 0 {
		heightScale = 1
	}

	src := profile.Points
	base := profile.Stats.MinElevation
	span := profile.Stats.DistanceSpan

	knots := make([]model.ProfilePoint, len(src))
	for i, p := range src {
		t := 0.0
		if span > 0 {
			t = (p.Distance - profile.Stats.MinDistance) / span
		}
		knots[i] = model.ProfilePoint{
			Distance:  t * width,
			Elevation: (p.Elevation - base) * heightScale,
			X:         p.X,
			Y:         p.Y,
		}
	}

	return NewProfileTerrain(knots, width, depth, heightScale, base), nil
}

// NewProfileTerrain builds a surface from already-rescaled knots, as
// stored in a persisted terrain descriptor. Knots must be sorted by
// distance.
func NewProfileTerrain(knots []model.ProfilePoint, width, depth, heightScale, baseElevation float64) *ProfileTerrain {
	edge := 0.0
	if n := len(knots); n > 0 {
		edge = (knots[0].Elevation + knots[n-1].Elevation) / 2
	}
	return &ProfileTerrain{
		Knots:         knots,
		Width:         width,
		Depth:         depth,
		HeightScale:   heightScale,
		BaseElevation: baseElevation,
		edge:          edge,
	}
}

// Descriptor reduces the terrain to its persistable form.
func (t *ProfileTerrain) Descriptor() model.TerrainDescriptor {
	return model.TerrainDescriptor{
		Kind:          model.TerrainProfile,
		ProfilePoints: t.Knots,
		SceneWidth:    t.Width,
		SceneDepth:    t.Depth,
		HeightScale:   t.HeightScale,
	}
}

// Elevation samples the surface. Along the profile line the bracketing
// knots are linearly interpolated, clamping beyond the knot range.
// Laterally, elevation holds the profile value out to half the scene
// depth and then fades to the profile edge elevation over another
// half depth.
func (t *ProfileTerrain) Elevation(x, z float64) float64 {
	along := interpolateKnots(t.Knots, x)

	lateral := z
	if lateral < 0 {
		lateral = -lateral
	}
	half := t.Depth / 2
	if half <= 0 || lateral <= half {
		return along
	}

	fade := clamp((lateral-half)/half, 0, 1)
	return lerp(along, t.edge, fade)
}
