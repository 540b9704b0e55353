package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/danmaps/GridScaper/core"
	"github.com/danmaps/GridScaper/internal/render"
	"github.com/danmaps/GridScaper/internal/store"
	"github.com/danmaps/GridScaper/model"
	"github.com/danmaps/GridScaper/scene"
)

// jsonError maps engine errors onto the API's error envelope: 400 for
// rejected input, 404 for missing scenes, 500 otherwise.
func jsonError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, core.ErrInvalidInputData):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func decodeBody(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(c.Body(), dst)
}

type catenaryRequest struct {
	Span float64 `json:"span"`
	Sag  float64 `json:"sag"`
}

type catenaryResponse struct {
	CatenaryParameter float64 `json:"catenaryParameter"`
	Span              float64 `json:"span"`
	Sag               float64 `json:"sag"`
}

func (s *Server) handleCatenarySolve(c fiber.Ctx) error {
	var req catenaryRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	a := core.SolveCatenaryParameter(req.Span, req.Sag)
	return c.JSON(catenaryResponse{CatenaryParameter: a, Span: req.Span, Sag: req.Sag})
}

type curveRequest struct {
	PoleA         model.Pole `json:"poleA"`
	PoleB         model.Pole `json:"poleB"`
	Tension       float64    `json:"tension"`
	Samples       int        `json:"samples"`
	LateralOffset float64    `json:"lateralOffset"`
	TerrainOffset float64    `json:"terrainOffset"`
}

func (s *Server) handleConductorCurve(c fiber.Ctx) error {
	var req curveRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	points := core.BuildConductorCurve(core.ConductorConfig{
		PoleA:         req.PoleA,
		PoleB:         req.PoleB,
		Tension:       req.Tension,
		Samples:       req.Samples,
		LateralOffset: req.LateralOffset,
		TerrainOffset: req.TerrainOffset,
	})
	return c.JSON(fiber.Map{"points": points})
}

type clearanceRequest struct {
	Spans     []core.SpanGroup         `json:"spans"`
	Threshold float64                  `json:"threshold"`
	Terrain   *model.TerrainDescriptor `json:"terrain,omitempty"`
}

func (s *Server) handleClearanceCheck(c fiber.Ctx) error {
	var req clearanceRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	ground := core.FlatElevation
	if req.Terrain != nil {
		src, err := scene.TerrainFromDescriptor(*req.Terrain)
		if err != nil {
			return jsonError(c, err)
		}
		ground = core.NewElevationModel(src)
	}

	reports := core.CheckClearances(req.Spans, ground, req.Threshold)
	return c.JSON(fiber.Map{"reports": reports})
}

func (s *Server) handleGISParse(c fiber.Ctx) error {
	records, warnings, err := core.ParseGISData(string(c.Body()))
	if err != nil {
		return jsonError(c, err)
	}

	validated, err := core.ValidateGISRecords(records)
	if err != nil {
		return jsonError(c, err)
	}
	warnings = append(warnings, validated.Warnings...)

	return c.JSON(fiber.Map{
		"records":  validated.Records,
		"warnings": warnings,
	})
}

type convertRequest struct {
	Records      []model.GISRecord `json:"records"`
	MaxSceneSize float64           `json:"maxSceneSize"`
	Recenter     bool              `json:"recenter"`
}

func (s *Server) handleGISConvert(c fiber.Ctx) error {
	var req convertRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	result, err := core.ConvertToSceneCoordinates(req.Records, core.ConvertOptions{
		MaxSceneSize: req.MaxSceneSize,
		Recenter:     req.Recenter,
	})
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(result)
}

type surfaceRequest struct {
	Points  []model.ScenePoint `json:"points"`
	Method  string             `json:"method"`
	Falloff float64            `json:"falloff"`
	Samples int                `json:"samples"`
}

type surfaceResponse struct {
	Samples int         `json:"samples"`
	MinX    float64     `json:"minX"`
	MaxX    float64     `json:"maxX"`
	MinZ    float64     `json:"minZ"`
	MaxZ    float64     `json:"maxZ"`
	Grid    [][]float64 `json:"grid"`
}

// handleTerrainSurface builds a scattered surface and samples it over
// the points' bounding box as a row-major elevation grid.
func (s *Server) handleTerrainSurface(c fiber.Ctx) error {
	var req surfaceRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	surface, err := core.CreateElevationSurface(req.Points, core.SurfaceOptions{
		Method:  core.SurfaceMethod(req.Method),
		Falloff: req.Falloff,
	})
	if err != nil {
		return jsonError(c, err)
	}

	samples := req.Samples
	if samples <= 1 {
		samples = 16
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, p := range req.Points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minZ = math.Min(minZ, p.Z)
		maxZ = math.Max(maxZ, p.Z)
	}

	grid := make([][]float64, samples)
	for row := 0; row < samples; row++ {
		z := minZ
		if samples > 1 {
			z += (maxZ - minZ) * float64(row) / float64(samples-1)
		}
		grid[row] = make([]float64, samples)
		for col := 0; col < samples; col++ {
			x := minX
			if samples > 1 {
				x += (maxX - minX) * float64(col) / float64(samples-1)
			}
			grid[row][col] = surface.Elevation(x, z)
		}
	}

	return c.JSON(surfaceResponse{
		Samples: samples,
		MinX:    minX, MaxX: maxX,
		MinZ: minZ, MaxZ: maxZ,
		Grid: grid,
	})
}

func (s *Server) handleProfileParse(c fiber.Ctx) error {
	profile, err := core.ParseElevationProfile(string(c.Body()))
	if err != nil {
		return jsonError(c, err)
	}
	profile.Warnings = append(profile.Warnings, core.ValidateProfile(profile)...)
	return c.JSON(profile)
}

type profileTerrainRequest struct {
	Points      []model.ProfilePoint `json:"points"`
	SceneWidth  float64              `json:"sceneWidth"`
	SceneDepth  float64              `json:"sceneDepth"`
	HeightScale float64              `json:"heightScale"`
}

type profileTerrainResponse struct {
	Terrain       model.TerrainDescriptor `json:"terrain"`
	BaseElevation float64                 `json:"baseElevation"`
}

func (s *Server) handleProfileTerrain(c fiber.Ctx) error {
	var req profileTerrainRequest
	if err := decodeBody(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if len(req.Points) == 0 {
		return jsonError(c, core.ErrInvalidInputData)
	}

	sort.SliceStable(req.Points, func(i, j int) bool {
		return req.Points[i].Distance < req.Points[j].Distance
	})
	profile := &core.ElevationProfile{Points: req.Points, Stats: core.ProfileStatsFor(req.Points)}
	terrain, err := core.CreateTerrainFromProfile(profile, core.TerrainOptions{
		SceneWidth:  req.SceneWidth,
		SceneDepth:  req.SceneDepth,
		HeightScale: req.HeightScale,
	})
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(profileTerrainResponse{
		Terrain:       terrain.Descriptor(),
		BaseElevation: terrain.BaseElevation,
	})
}

func (s *Server) handleSceneCreate(c fiber.Ctx) error {
	var record model.SceneRecord
	if err := decodeBody(c, &record); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	// Restore validates referential integrity before anything persists.
	if _, err := scene.Restore(record); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.store.Save(context.Background(), record); err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (s *Server) handleSceneList(c fiber.Ctx) error {
	summaries, err := s.store.List(context.Background())
	if err != nil {
		return jsonError(c, err)
	}
	if summaries == nil {
		summaries = []store.SceneSummary{}
	}
	return c.JSON(fiber.Map{"scenes": summaries})
}

func (s *Server) handleSceneGet(c fiber.Ctx) error {
	record, err := s.store.Load(context.Background(), c.Params("id"))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(record)
}

func (s *Server) handleSceneUpdate(c fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.store.Load(context.Background(), id); err != nil {
		return jsonError(c, err)
	}

	var record model.SceneRecord
	if err := decodeBody(c, &record); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	record.ID = id

	if _, err := scene.Restore(record); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := s.store.Save(context.Background(), record); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(record)
}

func (s *Server) handleSceneDelete(c fiber.Ctx) error {
	if err := s.store.Delete(context.Background(), c.Params("id")); err != nil {
		return jsonError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type recomputeRequest struct {
	Samples       int     `json:"samples"`
	Threshold     float64 `json:"threshold"`
	TerrainOffset float64 `json:"terrainOffset"`
}

func (s *Server) handleSceneRecompute(c fiber.Ctx) error {
	record, err := s.store.Load(context.Background(), c.Params("id"))
	if err != nil {
		return jsonError(c, err)
	}

	var req recomputeRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
	}

	opts := []scene.Option{}
	if s.metrics != nil {
		opts = append(opts, scene.WithMetricsRecorder(s.metrics))
	}
	sc, err := scene.Restore(record, opts...)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reports := sc.Recompute(scene.RecomputeConfig{
		Samples:       req.Samples,
		Threshold:     req.Threshold,
		TerrainOffset: req.TerrainOffset,
	})
	if reports == nil {
		reports = []core.ClearanceReport{}
	}
	return c.JSON(fiber.Map{"sceneId": record.ID, "reports": reports})
}

func (s *Server) handleSceneRender(c fiber.Ctx) error {
	record, err := s.store.Load(context.Background(), c.Params("id"))
	if err != nil {
		return jsonError(c, err)
	}

	sc, err := scene.Restore(record)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	threshold := queryFloat(c, "threshold", 0)
	reports := sc.Recompute(scene.RecomputeConfig{Threshold: threshold})
	groups := sc.CurveGroups(scene.RecomputeConfig{})

	var buf bytes.Buffer
	err = render.EncodePNG(&buf, render.Input{
		Poles:     record.Poles,
		Spans:     groups,
		Elevation: sc.Height,
		Reports:   reports,
	}, render.Options{
		Width:     int(queryFloat(c, "width", 0)),
		Height:    int(queryFloat(c, "height", 0)),
		Threshold: threshold,
	})
	if err != nil {
		return jsonError(c, err)
	}

	c.Set("Content-Type", "image/png")
	return c.Send(buf.Bytes())
}

func queryFloat(c fiber.Ctx, key string, fallback float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
