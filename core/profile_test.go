package core

import (
	"math"
	"strings"
	"testing"
)

const profileCSV = `distance,elevation
0,100
50,112
120,108
200,95
`

func TestParseElevationProfile_SortedWithStats(t *testing.T) {
	// Rows deliberately out of distance order.
	csv := "distance,elevation\n120,108\n0,100\n200,95\n50,112\n"
	profile, err := ParseElevationProfile(csv)
	if err != nil {
		t.Fatalf("ParseElevationProfile: %v", err)
	}

	if profile.Stats.Count != 4 {
		t.Fatalf("count = %d, want 4", profile.Stats.Count)
	}
	for i := 1; i < len(profile.Points); i++ {
		if profile.Points[i].Distance < profile.Points[i-1].Distance {
			t.Fatalf("points not sorted by distance at %d", i)
		}
	}

	s := profile.Stats
	if s.MinElevation != 95 || s.MaxElevation != 112 || s.ElevationSpan != 17 {
		t.Errorf("elevation stats = %+v", s)
	}
	if s.MinDistance != 0 || s.MaxDistance != 200 || s.DistanceSpan != 200 {
		t.Errorf("distance stats = %+v", s)
	}
	if math.Abs(s.MeanElevation-103.75) > 1e-12 {
		t.Errorf("mean elevation = %v, want 103.75", s.MeanElevation)
	}
}

func TestParseElevationProfile_RowOrderWithoutDistanceColumn(t *testing.T) {
	profile, err := ParseElevationProfile("ground_elev\n100\n105\n103\n")
	if err != nil {
		t.Fatalf("ParseElevationProfile: %v", err)
	}
	for i, p := range profile.Points {
		if p.Distance != float64(i) {
			t.Errorf("point %d distance = %v, want row order %d", i, p.Distance, i)
		}
	}
}

func TestParseElevationProfile_DropsBadRowsWithWarnings(t *testing.T) {
	profile, err := ParseElevationProfile("elevation\n100\nn/a\n105\n")
	if err != nil {
		t.Fatalf("ParseElevationProfile: %v", err)
	}
	if len(profile.Points) != 2 {
		t.Fatalf("parsed %d points, want 2", len(profile.Points))
	}
	if len(profile.Warnings) != 1 || !strings.Contains(profile.Warnings[0], "skipped") {
		t.Errorf("warnings = %v", profile.Warnings)
	}
}

func TestParseElevationProfile_RequiresElevationColumn(t *testing.T) {
	if _, err := ParseElevationProfile("distance,value\n0,100\n"); err == nil {
		t.Fatalf("missing elevation column did not error")
	}
	if _, err := ParseElevationProfile(""); err == nil {
		t.Fatalf("empty input did not error")
	}
	if _, err := ParseElevationProfile("elevation\nfoo\nbar\n"); err == nil {
		t.Fatalf("zero surviving rows did not error")
	}
}

func TestCreateTerrainFromProfile_RoundTripAtKnots(t *testing.T) {
	profile, err := ParseElevationProfile(profileCSV)
	if err != nil {
		t.Fatalf("ParseElevationProfile: %v", err)
	}

	terrain, err := CreateTerrainFromProfile(profile, TerrainOptions{
		SceneWidth: 400, SceneDepth: 200, HeightScale: 2,
	})
	if err != nil {
		t.Fatalf("CreateTerrainFromProfile: %v", err)
	}

	// Sampling at each rescaled knot position reproduces that knot's
	// rescaled elevation exactly.
	for i, src := range profile.Points {
		knot := terrain.Knots[i]
		wantX := (src.Distance / 200.0) * 400.0
		wantE := (src.Elevation - profile.Stats.MinElevation) * 2

		if math.Abs(knot.Distance-wantX) > 1e-12 {
			t.Errorf("knot %d at x=%v, want %v", i, knot.Distance, wantX)
		}
		if got := terrain.Elevation(knot.Distance, 0); got != wantE {
			t.Errorf("terrain at knot %d = %v, want exactly %v", i, got, wantE)
		}
	}
}

func TestCreateTerrainFromProfile_LateralFalloff(t *testing.T) {
	profile, err := ParseElevationProfile(profileCSV)
	if err != nil {
		t.Fatalf("ParseElevationProfile: %v", err)
	}
	terrain, err := CreateTerrainFromProfile(profile, TerrainOptions{
		SceneWidth: 400, SceneDepth: 200,
	})
	if err != nil {
		t.Fatalf("CreateTerrainFromProfile: %v", err)
	}

	x := 100.0
	onLine := terrain.Elevation(x, 0)

	// Inside half the scene depth the profile value holds.
	if got := terrain.Elevation(x, 99); got != onLine {
		t.Errorf("height at z=99 is %v, want the profile value %v", got, onLine)
	}

	// Far beyond, the surface settles at the profile edge elevation.
	edge := (terrain.Knots[0].Elevation + terrain.Knots[len(terrain.Knots)-1].Elevation) / 2
	if got := terrain.Elevation(x, 1e6); math.Abs(got-edge) > 1e-9 {
		t.Errorf("far lateral height = %v, want edge elevation %v", got, edge)
	}
}

func TestCreateTerrainFromProfile_DescriptorRebuildsSameFunction(t *testing.T) {
	profile, err := ParseElevationProfile(profileCSV)
	if err != nil {
		t.Fatalf("ParseElevationProfile: %v", err)
	}
	terrain, err := CreateTerrainFromProfile(profile, TerrainOptions{SceneWidth: 300, SceneDepth: 150})
	if err != nil {
		t.Fatalf("CreateTerrainFromProfile: %v", err)
	}

	desc := terrain.Descriptor()
	rebuilt := NewProfileTerrain(desc.ProfilePoints, desc.SceneWidth, desc.SceneDepth, desc.HeightScale, 0)

	for x := -50.0; x <= 350; x += 7.3 {
		for _, z := range []float64{0, 40, 80, 200} {
			if terrain.Elevation(x, z) != rebuilt.Elevation(x, z) {
				t.Fatalf("rebuilt terrain differs at (%v, %v)", x, z)
			}
		}
	}
}
