package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danmaps/GridScaper/core"
	"github.com/danmaps/GridScaper/internal/logging"
	"github.com/danmaps/GridScaper/internal/render"
	"github.com/danmaps/GridScaper/model"
	"github.com/danmaps/GridScaper/scene"
)

type runResult struct {
	Scene    model.SceneRecord      `json:"scene"`
	Reports  []core.ClearanceReport `json:"reports"`
	Warnings []string               `json:"warnings,omitempty"`
}

func main() {
	gisPath := flag.String("gis", "", "GIS survey CSV (lat/lng/elevation columns)")
	profilePath := flag.String("profile", "", "elevation profile CSV (distance/elevation columns)")
	scenePath := flag.String("scene", "", "scene JSON file; omit to lay out poles procedurally")
	maxSceneSize := flag.Float64("max-scene-size", 500, "shrink GIS footprints to fit this extent; 0 disables")
	sceneWidth := flag.Float64("scene-width", core.DefaultSceneWidth, "profile terrain width")
	sceneDepth := flag.Float64("scene-depth", core.DefaultSceneDepth, "profile terrain depth")
	heightScale := flag.Float64("height-scale", 1, "profile elevation exaggeration")
	poleCount := flag.Int("poles", 5, "pole count for the procedural layout")
	poleSpacing := flag.Float64("spacing", 80, "pole spacing for the procedural layout")
	poleHeight := flag.Float64("pole-height", 35, "pole height for the procedural layout")
	tension := flag.Float64("tension", 1, "conductor tension")
	samples := flag.Int("samples", core.DefaultSamples, "curve segments per span")
	threshold := flag.Float64("threshold", 20, "minimum acceptable ground clearance")
	outPath := flag.String("out", "", "write the JSON report here instead of stdout")
	pngPath := flag.String("png", "", "also render a profile-view PNG here")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	var warnings []string
	terrain, terrainWarnings, err := buildTerrain(*gisPath, *profilePath, core.TerrainOptions{
		SceneWidth:  *sceneWidth,
		SceneDepth:  *sceneDepth,
		HeightScale: *heightScale,
	}, *maxSceneSize)
	if err != nil {
		log.Error(ctx, "terrain build failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	warnings = append(warnings, terrainWarnings...)

	sc, err := buildScene(*scenePath, terrain, *poleCount, *poleSpacing, *poleHeight, *tension)
	if err != nil {
		log.Error(ctx, "scene build failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	reports := sc.Recompute(scene.RecomputeConfig{
		Samples:   *samples,
		Threshold: *threshold,
	})

	result := runResult{
		Scene:    sc.Snapshot(),
		Reports:  reports,
		Warnings: warnings,
	}

	if err := writeResult(result, *outPath); err != nil {
		log.Error(ctx, "failed to write report", logging.String("error", err.Error()))
		os.Exit(1)
	}

	if *pngPath != "" {
		err := render.SavePNG(*pngPath, render.Input{
			Poles:     result.Scene.Poles,
			Spans:     sc.CurveGroups(scene.RecomputeConfig{Samples: *samples}),
			Elevation: sc.Height,
			Reports:   reports,
		}, render.Options{Threshold: *threshold})
		if err != nil {
			log.Error(ctx, "failed to render profile", logging.String("path", *pngPath), logging.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info(ctx, "wrote profile render", logging.String("path", *pngPath))
	}

	violations := 0
	for _, r := range reports {
		if r.Status == core.ClearanceViolation {
			violations++
		}
	}
	log.Info(ctx, "clearance check complete",
		logging.Int("spans", len(reports)),
		logging.Int("violations", violations),
		logging.Float64("threshold", *threshold),
	)
	if violations > 0 {
		os.Exit(2)
	}
}

// buildTerrain resolves the active terrain source: GIS data wins over a
// profile, which wins over the procedural fallback.
func buildTerrain(gisPath, profilePath string, opts core.TerrainOptions, maxSceneSize float64) (core.TerrainSource, []string, error) {
	switch {
	case gisPath != "":
		data, err := os.ReadFile(gisPath)
		if err != nil {
			return core.TerrainSource{}, nil, err
		}
		records, warnings, err := core.ParseGISData(string(data))
		if err != nil {
			return core.TerrainSource{}, nil, err
		}
		validated, err := core.ValidateGISRecords(records)
		if err != nil {
			return core.TerrainSource{}, nil, err
		}
		warnings = append(warnings, validated.Warnings...)

		converted, err := core.ConvertToSceneCoordinates(validated.Records, core.ConvertOptions{
			MaxSceneSize: maxSceneSize,
			Recenter:     true,
		})
		if err != nil {
			return core.TerrainSource{}, nil, err
		}
		surface, err := core.CreateElevationSurface(converted.Points, core.SurfaceOptions{})
		if err != nil {
			return core.TerrainSource{}, nil, err
		}
		return core.TerrainSource{Kind: model.TerrainGIS, GIS: surface}, warnings, nil

	case profilePath != "":
		data, err := os.ReadFile(profilePath)
		if err != nil {
			return core.TerrainSource{}, nil, err
		}
		profile, err := core.ParseElevationProfile(string(data))
		if err != nil {
			return core.TerrainSource{}, nil, err
		}
		warnings := append(profile.Warnings, core.ValidateProfile(profile)...)

		terrain, err := core.CreateTerrainFromProfile(profile, opts)
		if err != nil {
			return core.TerrainSource{}, nil, err
		}
		return core.TerrainSource{Kind: model.TerrainProfile, Profile: terrain}, warnings, nil

	default:
		return core.TerrainSource{Kind: model.TerrainProcedural}, nil, nil
	}
}

// buildScene restores the scene file when given, otherwise lays poles
// in a straight line across the terrain with chained spans.
func buildScene(scenePath string, terrain core.TerrainSource, poles int, spacing, height, tension float64) (*scene.Scene, error) {
	if scenePath != "" {
		data, err := os.ReadFile(scenePath)
		if err != nil {
			return nil, err
		}
		var record model.SceneRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("parse scene file: %w", err)
		}
		sc, err := scene.Restore(record)
		if err != nil {
			return nil, err
		}
		sc.SetTerrain(terrain)
		return sc, nil
	}

	if poles < 2 {
		return nil, fmt.Errorf("procedural layout needs at least 2 poles, got %d", poles)
	}

	sc := scene.New("cli", "clearance run")
	sc.SetTerrain(terrain)
	for i := 0; i < poles; i++ {
		if err := sc.AddPole(&model.Pole{
			ID:     fmt.Sprintf("p%d", i+1),
			X:      float64(i) * spacing,
			Height: height,
		}); err != nil {
			return nil, err
		}
	}
	for i := 1; i < poles; i++ {
		if err := sc.AddSpan(&model.Span{
			ID:      fmt.Sprintf("s%d", i),
			PoleA:   fmt.Sprintf("p%d", i),
			PoleB:   fmt.Sprintf("p%d", i+1),
			Tension: tension,
		}); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func writeResult(result runResult, outPath string) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	encoded = append(encoded, '\n')

	if outPath == "" {
		_, err = os.Stdout.Write(encoded)
		return err
	}
	return os.WriteFile(outPath, encoded, 0o644)
}
