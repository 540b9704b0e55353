package scene

import (
	"fmt"
	"sort"

	"github.com/danmaps/GridScaper/core"
	"github.com/danmaps/GridScaper/model"
)

// Snapshot reduces the scene to its persisted record form: pole
// placements, spans, and the terrain descriptor with the literal data
// needed to rebuild the elevation function exactly.
func (s *Scene) Snapshot() model.SceneRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record := model.SceneRecord{
		ID:      s.id,
		Name:    s.name,
		Poles:   make([]model.PoleRecord, 0, len(s.poles)),
		Spans:   make([]model.SpanRecord, 0, len(s.spans)),
		Terrain: s.terrain.Descriptor(),
	}

	for _, p := range s.poles {
		record.Poles = append(record.Poles, model.PoleRecord{
			ID: p.ID, X: p.X, Z: p.Z, Height: p.Height, Elevation: p.Elevation,
		})
	}
	for _, span := range s.spans {
		offsets := make([]float64, 0, len(span.Conductors))
		for _, c := range span.Conductors {
			offsets = append(offsets, c.LateralOffset)
		}
		record.Spans = append(record.Spans, model.SpanRecord{
			ID: span.ID, PoleA: span.PoleA, PoleB: span.PoleB,
			Tension: span.Tension, LateralOffsets: offsets,
		})
	}

	// Map iteration order is random; persisted records are stable.
	sort.Slice(record.Poles, func(i, j int) bool { return record.Poles[i].ID < record.Poles[j].ID })
	sort.Slice(record.Spans, func(i, j int) bool { return record.Spans[i].ID < record.Spans[j].ID })
	return record
}

// TerrainFromDescriptor rebuilds a terrain source from its persisted
// form. Profile terrain reuses the literal knot array, so the
// rehydrated piecewise-linear function is equivalent bit-for-bit.
func TerrainFromDescriptor(d model.TerrainDescriptor) (core.TerrainSource, error) {
	switch d.Kind {
	case model.TerrainProfile:
		if len(d.ProfilePoints) == 0 {
			return core.TerrainSource{}, fmt.Errorf("terrain descriptor %q has no profile points", d.Kind)
		}
		return core.TerrainSource{
			Kind: d.Kind,
			Profile: core.NewProfileTerrain(
				d.ProfilePoints, d.SceneWidth, d.SceneDepth, d.HeightScale, 0,
			),
		}, nil

	case model.TerrainGIS:
		surface, err := core.CreateElevationSurface(d.GISPoints, core.SurfaceOptions{
			Method:  core.SurfaceMethod(d.Method),
			Falloff: d.Falloff,
		})
		if err != nil {
			return core.TerrainSource{}, fmt.Errorf("rebuild GIS surface: %w", err)
		}
		return core.TerrainSource{Kind: d.Kind, GIS: surface}, nil

	case model.TerrainProcedural, model.TerrainFlat, "":
		return core.TerrainSource{Kind: d.Kind}, nil

	default:
		return core.TerrainSource{}, fmt.Errorf("unknown terrain kind %q", d.Kind)
	}
}

// Restore rebuilds a scene from a persisted record. Stored pole
// elevations are kept verbatim rather than re-grounded, so the session
// rehydrates exactly as saved.
func Restore(record model.SceneRecord, opts ...Option) (*Scene, error) {
	terrain, err := TerrainFromDescriptor(record.Terrain)
	if err != nil {
		return nil, fmt.Errorf("restore scene %q: %w", record.ID, err)
	}

	s := New(record.ID, record.Name, opts...)
	s.mu.Lock()
	s.terrain = terrain
	s.elevation = core.NewElevationModel(terrain)

	for _, p := range record.Poles {
		if _, exists := s.poles[p.ID]; exists {
			s.mu.Unlock()
			return nil, fmt.Errorf("restore scene %q: duplicate pole %q", record.ID, p.ID)
		}
		s.poles[p.ID] = &model.Pole{
			ID: p.ID, X: p.X, Z: p.Z, Height: p.Height, Elevation: p.Elevation,
		}
	}
	for _, sp := range record.Spans {
		if _, ok := s.poles[sp.PoleA]; !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("restore scene %q: span %q references missing pole %q", record.ID, sp.ID, sp.PoleA)
		}
		if _, ok := s.poles[sp.PoleB]; !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("restore scene %q: span %q references missing pole %q", record.ID, sp.ID, sp.PoleB)
		}

		conductors := make([]model.Conductor, 0, len(sp.LateralOffsets))
		for _, off := range sp.LateralOffsets {
			conductors = append(conductors, model.Conductor{LateralOffset: off})
		}
		if len(conductors) == 0 {
			conductors = []model.Conductor{{}}
		}
		tension := sp.Tension
		if tension <= 0 {
			tension = 1
		}
		s.spans[sp.ID] = &model.Span{
			ID: sp.ID, PoleA: sp.PoleA, PoleB: sp.PoleB,
			Tension: tension, Conductors: conductors,
		}
	}
	s.recordCountsLocked(-1)
	s.mu.Unlock()
	return s, nil
}
