package scene

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danmaps/GridScaper/core"
	"github.com/danmaps/GridScaper/model"
)

// EventType indicates what kind of change happened in the scene.
type EventType int

const (
	EventRecomputed EventType = iota
	EventTerrainChanged
)

// Event is emitted to subscribers after a full recompute or a terrain
// swap.
type Event struct {
	Type    EventType
	Reports []core.ClearanceReport
}

// MetricsRecorder receives scene gauge updates from mutators. The
// observability collector satisfies it.
type MetricsRecorder interface {
	SetSceneCounts(poles, spans, violations int)
	ObserveRecompute(d time.Duration)
}

// RecomputeConfig tunes a full recompute pass. Zero values take
// defaults at the boundary.
type RecomputeConfig struct {
	Samples       int     // per-span curve segments; defaults to core.DefaultSamples
	Threshold     float64 // minimum acceptable ground clearance
	TerrainOffset float64 // depth-axis shift into the terrain frame
}

// Scene is an in-memory, thread-safe store for poles, spans, and the
// active terrain source. There is no incremental recomputation: any
// mutation of a pole, span, or terrain requires the caller to invoke
// Recompute again for fresh curves and clearance reports.
type Scene struct {
	mu sync.RWMutex

	id    string
	name  string
	poles map[string]*model.Pole
	spans map[string]*model.Span

	terrain   core.TerrainSource
	elevation core.ElevationFunc

	subs    []func(Event)
	metrics MetricsRecorder
}

// Option configures a Scene at construction.
type Option func(*Scene)

// WithMetricsRecorder wires gauge updates into an external collector.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Scene) { s.metrics = rec }
}

// New constructs an empty scene over flat terrain.
func New(id, name string, opts ...Option) *Scene {
	s := &Scene{
		id:        id,
		name:      name,
		poles:     make(map[string]*model.Pole),
		spans:     make(map[string]*model.Span),
		elevation: core.NewElevationModel(core.TerrainSource{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the scene identifier.
func (s *Scene) ID() string { return s.id }

// Name returns the scene display name.
func (s *Scene) Name() string { return s.name }

// AddPole places a pole, grounding its base elevation on the active
// terrain. It returns an error if the ID already exists.
func (s *Scene) AddPole(p *model.Pole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.poles[p.ID]; exists {
		return fmt.Errorf("pole with ID %q already exists", p.ID)
	}
	p.Elevation = s.elevation(p.X, p.Z)
	s.poles[p.ID] = p
	s.recordCountsLocked(-1)
	return nil
}

// UpdatePole moves or resizes a pole, re-grounding its base elevation.
func (s *Scene) UpdatePole(id string, x, z, height float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.poles[id]
	if !ok {
		return fmt.Errorf("pole with ID %q not found", id)
	}
	p.X, p.Z = x, z
	p.Height = height
	p.Elevation = s.elevation(x, z)
	return nil
}

// RemovePole deletes a pole and every span that references it.
func (s *Scene) RemovePole(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.poles[id]; !ok {
		return fmt.Errorf("pole with ID %q not found", id)
	}
	delete(s.poles, id)
	for spanID, span := range s.spans {
		if span.PoleA == id || span.PoleB == id {
			delete(s.spans, spanID)
		}
	}
	s.recordCountsLocked(-1)
	return nil
}

// GetPole returns a copy of the pole, or false when absent.
func (s *Scene) GetPole(id string) (model.Pole, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.poles[id]
	if !ok {
		return model.Pole{}, false
	}
	return *p, true
}

// AddSpan strings conductors between two existing poles. A span with
// no conductors gets a single centerline conductor; a zero tension
// defaults to 1.
func (s *Scene) AddSpan(span *model.Span) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.spans[span.ID]; exists {
		return fmt.Errorf("span with ID %q already exists", span.ID)
	}
	if _, ok := s.poles[span.PoleA]; !ok {
		return fmt.Errorf("pole with ID %q not found for span", span.PoleA)
	}
	if _, ok := s.poles[span.PoleB]; !ok {
		return fmt.Errorf("pole with ID %q not found for span", span.PoleB)
	}
	if span.PoleA == span.PoleB {
		return fmt.Errorf("span %q connects pole %q to itself", span.ID, span.PoleA)
	}
	if span.Tension <= 0 {
		span.Tension = 1
	}
	if len(span.Conductors) == 0 {
		span.Conductors = []model.Conductor{{}}
	}
	s.spans[span.ID] = span
	s.recordCountsLocked(-1)
	return nil
}

// SetSpanTension retunes one span. Tension must be positive.
func (s *Scene) SetSpanTension(id string, tension float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	span, ok := s.spans[id]
	if !ok {
		return fmt.Errorf("span with ID %q not found", id)
	}
	if tension <= 0 {
		return fmt.Errorf("span %q tension must be positive, got %v", id, tension)
	}
	span.Tension = tension
	return nil
}

// RemoveSpan deletes a span.
func (s *Scene) RemoveSpan(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spans[id]; !ok {
		return fmt.Errorf("span with ID %q not found", id)
	}
	delete(s.spans, id)
	s.recordCountsLocked(-1)
	return nil
}

// SetTerrain swaps the active elevation source. The new function fully
// replaces the old one, every pole's base elevation is re-grounded on
// it, and subscribers are notified.
func (s *Scene) SetTerrain(src core.TerrainSource) {
	s.mu.Lock()
	s.terrain = src
	s.elevation = core.NewElevationModel(src)
	for _, p := range s.poles {
		p.Elevation = s.elevation(p.X, p.Z)
	}
	subs := append([]func(Event){}, s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(Event{Type: EventTerrainChanged})
	}
}

// Height queries the active elevation surface.
func (s *Scene) Height(x, z float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elevation(x, z)
}

// Recompute rebuilds every span's conductor curves from scratch and
// evaluates their ground clearance. Cost is O(samples x spans);
// nothing is cached between calls.
func (s *Scene) Recompute(cfg RecomputeConfig) []core.ClearanceReport {
	start := time.Now()

	s.mu.Lock()
	samples := cfg.Samples
	if samples <= 0 {
		samples = core.DefaultSamples
	}

	groups := s.groupsLocked(samples, cfg.TerrainOffset)
	reports := core.CheckClearances(groups, s.elevation, cfg.Threshold)

	violations := 0
	for _, r := range reports {
		if r.Status == core.ClearanceViolation {
			violations++
		}
	}
	s.recordCountsLocked(violations)
	subs := append([]func(Event){}, s.subs...)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveRecompute(time.Since(start))
	}
	for _, sub := range subs {
		sub(Event{Type: EventRecomputed, Reports: reports})
	}
	return reports
}

// CurveGroups rebuilds every span's conductor curves without running a
// clearance pass. Useful for rendering.
func (s *Scene) CurveGroups(cfg RecomputeConfig) []core.SpanGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	samples := cfg.Samples
	if samples <= 0 {
		samples = core.DefaultSamples
	}
	return s.groupsLocked(samples, cfg.TerrainOffset)
}

// groupsLocked builds span curve groups in stable span-ID order. The
// caller holds at least a read lock.
func (s *Scene) groupsLocked(samples int, terrainOffset float64) []core.SpanGroup {
	ordered := make([]*model.Span, 0, len(s.spans))
	for _, span := range s.spans {
		ordered = append(ordered, span)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	groups := make([]core.SpanGroup, 0, len(ordered))
	for _, span := range ordered {
		a, okA := s.poles[span.PoleA]
		b, okB := s.poles[span.PoleB]
		if !okA || !okB {
			continue
		}

		curves := make([][]model.CurvePoint, 0, len(span.Conductors))
		for _, c := range span.Conductors {
			curves = append(curves, core.BuildConductorCurve(core.ConductorConfig{
				PoleA:         *a,
				PoleB:         *b,
				Tension:       span.Tension,
				Samples:       samples,
				LateralOffset: c.LateralOffset,
				TerrainOffset: terrainOffset,
			}))
		}
		groups = append(groups, core.SpanGroup{SpanID: span.ID, Curves: curves})
	}
	return groups
}

// Subscribe registers a callback for scene events. It returns an
// unsubscribe function.
func (s *Scene) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < 0 || idx >= len(s.subs) {
			return
		}
		s.subs = append(s.subs[:idx], s.subs[idx+1:]...)
		idx = -1
	}
}

// recordCountsLocked pushes gauge values while the caller holds the
// lock. A negative violation count means "unchanged / unknown" and is
// reported as zero.
func (s *Scene) recordCountsLocked(violations int) {
	if s.metrics == nil {
		return
	}
	if violations < 0 {
		violations = 0
	}
	s.metrics.SetSceneCounts(len(s.poles), len(s.spans), violations)
}
