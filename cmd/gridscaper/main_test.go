package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmaps/GridScaper/core"
	"github.com/danmaps/GridScaper/model"
	"github.com/danmaps/GridScaper/scene"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestBuildTerrainPrefersGISOverProfile(t *testing.T) {
	gis := writeTempFile(t, "gis.csv", "latitude,longitude,elevation\n34.0522,-118.2437,85\n34.0526,-118.2431,87\n")
	profile := writeTempFile(t, "profile.csv", "distance,elevation\n0,10\n100,12\n")

	terrain, _, err := buildTerrain(gis, profile, core.TerrainOptions{}, 500)
	if err != nil {
		t.Fatalf("buildTerrain: %v", err)
	}
	if terrain.GIS == nil {
		t.Fatal("GIS CSV should win over the profile CSV")
	}
	if terrain.Kind != model.TerrainGIS {
		t.Fatalf("terrain kind = %q, want gis", terrain.Kind)
	}
}

func TestBuildTerrainProfileFallback(t *testing.T) {
	profile := writeTempFile(t, "profile.csv", "distance,elevation\n0,10\n100,12\n200,11\n")

	terrain, _, err := buildTerrain("", profile, core.TerrainOptions{SceneWidth: 400}, 0)
	if err != nil {
		t.Fatalf("buildTerrain: %v", err)
	}
	if terrain.Profile == nil {
		t.Fatal("expected profile terrain")
	}
	if got := terrain.Profile.Elevation(0, 0); got != 0 {
		t.Fatalf("elevation at first knot = %v, want 0 (rebased to profile minimum)", got)
	}
}

func TestBuildTerrainProceduralDefault(t *testing.T) {
	terrain, warnings, err := buildTerrain("", "", core.TerrainOptions{}, 0)
	if err != nil {
		t.Fatalf("buildTerrain: %v", err)
	}
	if terrain.Kind != model.TerrainProcedural || terrain.GIS != nil || terrain.Profile != nil {
		t.Fatalf("terrain = %+v, want bare procedural source", terrain)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
}

func TestBuildSceneProceduralLayout(t *testing.T) {
	sc, err := buildScene("", core.TerrainSource{Kind: model.TerrainProcedural}, 4, 80, 35, 1.5)
	if err != nil {
		t.Fatalf("buildScene: %v", err)
	}

	record := sc.Snapshot()
	if len(record.Poles) != 4 {
		t.Fatalf("poles = %d, want 4", len(record.Poles))
	}
	if len(record.Spans) != 3 {
		t.Fatalf("spans = %d, want 3 chained spans", len(record.Spans))
	}
	for _, span := range record.Spans {
		if span.Tension != 1.5 {
			t.Fatalf("span %s tension = %v, want 1.5", span.ID, span.Tension)
		}
	}
	if record.Poles[1].X != 80 {
		t.Fatalf("second pole X = %v, want spacing 80", record.Poles[1].X)
	}

	reports := sc.Recompute(scene.RecomputeConfig{Threshold: 5})
	if len(reports) != 3 {
		t.Fatalf("reports = %d, want one per span", len(reports))
	}
}

func TestBuildSceneRejectsTooFewPoles(t *testing.T) {
	if _, err := buildScene("", core.TerrainSource{}, 1, 80, 35, 1); err == nil {
		t.Fatal("one pole should be rejected")
	}
}

func TestBuildSceneFromFile(t *testing.T) {
	path := writeTempFile(t, "scene.json", `{
  "id": "file-scene",
  "name": "from file",
  "poles": [
    {"id": "p1", "x": 0, "z": 0, "height": 10},
    {"id": "p2", "x": 50, "z": 0, "height": 12}
  ],
  "spans": [
    {"id": "s1", "poleA": "p1", "poleB": "p2", "tension": 1, "lateralOffsets": [0]}
  ],
  "terrain": {"kind": "flat"}
}`)

	sc, err := buildScene(path, core.TerrainSource{Kind: model.TerrainProcedural}, 0, 0, 0, 0)
	if err != nil {
		t.Fatalf("buildScene: %v", err)
	}
	if sc.ID() != "file-scene" {
		t.Fatalf("scene ID = %q, want file-scene", sc.ID())
	}
	// The flag-selected terrain replaces whatever the file declared.
	if sc.Snapshot().Terrain.Kind != model.TerrainProcedural {
		t.Fatalf("terrain kind = %q, want procedural override", sc.Snapshot().Terrain.Kind)
	}
}
