package scene

import (
	"math"
	"testing"
	"time"

	"github.com/danmaps/GridScaper/core"
	"github.com/danmaps/GridScaper/model"
)

func buildTestScene(t *testing.T) *Scene {
	t.Helper()
	s := New("scene-1", "test")

	if err := s.AddPole(&model.Pole{ID: "p1", X: 0, Z: 0, Height: 10}); err != nil {
		t.Fatalf("AddPole(p1): %v", err)
	}
	if err := s.AddPole(&model.Pole{ID: "p2", X: 50, Z: 0, Height: 12}); err != nil {
		t.Fatalf("AddPole(p2): %v", err)
	}
	if err := s.AddSpan(&model.Span{ID: "s1", PoleA: "p1", PoleB: "p2"}); err != nil {
		t.Fatalf("AddSpan(s1): %v", err)
	}
	return s
}

func TestScene_DuplicateAndMissingIDs(t *testing.T) {
	s := buildTestScene(t)

	if err := s.AddPole(&model.Pole{ID: "p1"}); err == nil {
		t.Errorf("duplicate pole ID accepted")
	}
	if err := s.AddSpan(&model.Span{ID: "s1", PoleA: "p1", PoleB: "p2"}); err == nil {
		t.Errorf("duplicate span ID accepted")
	}
	if err := s.AddSpan(&model.Span{ID: "s2", PoleA: "p1", PoleB: "ghost"}); err == nil {
		t.Errorf("span to a missing pole accepted")
	}
	if err := s.AddSpan(&model.Span{ID: "s3", PoleA: "p1", PoleB: "p1"}); err == nil {
		t.Errorf("self-span accepted")
	}
}

func TestScene_RemovePoleCascadesSpans(t *testing.T) {
	s := buildTestScene(t)

	if err := s.RemovePole("p1"); err != nil {
		t.Fatalf("RemovePole: %v", err)
	}
	reports := s.Recompute(RecomputeConfig{Threshold: 5})
	if len(reports) != 0 {
		t.Fatalf("span survived removal of its pole: %d reports", len(reports))
	}
}

func TestScene_RecomputeReportsPerSpan(t *testing.T) {
	s := buildTestScene(t)

	reports := s.Recompute(RecomputeConfig{Samples: 32, Threshold: 5})
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	r := reports[0]
	if r.SpanID != "s1" {
		t.Errorf("report span = %q", r.SpanID)
	}
	// Flat terrain, attachment heights 10 and 12, base sag 2.5: the
	// minimum clearance sits well above 5.
	if r.Status != core.ClearanceOK {
		t.Errorf("status = %v, want ok (min clearance %v)", r.Status, r.MinClearance)
	}

	strict := s.Recompute(RecomputeConfig{Samples: 32, Threshold: 20})
	if strict[0].Status != core.ClearanceViolation {
		t.Errorf("threshold 20 not flagged as violation")
	}
}

func TestScene_SetTerrainRegroundsPoles(t *testing.T) {
	s := buildTestScene(t)

	profile := core.NewProfileTerrain([]model.ProfilePoint{
		{Distance: 0, Elevation: 5},
		{Distance: 50, Elevation: 9},
	}, 50, 100, 1, 0)
	s.SetTerrain(core.TerrainSource{Profile: profile})

	p1, _ := s.GetPole("p1")
	p2, _ := s.GetPole("p2")
	if p1.Elevation != 5 || p2.Elevation != 9 {
		t.Errorf("pole elevations = %v, %v, want 5, 9", p1.Elevation, p2.Elevation)
	}
	if got := p2.AttachmentHeight(); got != 21 {
		t.Errorf("p2 attachment height = %v, want base 9 + height 12", got)
	}
}

func TestScene_TensionValidation(t *testing.T) {
	s := buildTestScene(t)

	if err := s.SetSpanTension("s1", 0); err == nil {
		t.Errorf("zero tension accepted")
	}
	if err := s.SetSpanTension("s1", -2); err == nil {
		t.Errorf("negative tension accepted")
	}
	if err := s.SetSpanTension("s1", 3); err != nil {
		t.Errorf("valid tension rejected: %v", err)
	}
}

func TestScene_SubscribersSeeRecompute(t *testing.T) {
	s := buildTestScene(t)

	var events []Event
	unsubscribe := s.Subscribe(func(e Event) { events = append(events, e) })

	s.Recompute(RecomputeConfig{Threshold: 5})
	if len(events) != 1 || events[0].Type != EventRecomputed {
		t.Fatalf("events after recompute = %+v", events)
	}
	if len(events[0].Reports) != 1 {
		t.Errorf("event carried %d reports, want 1", len(events[0].Reports))
	}

	unsubscribe()
	s.Recompute(RecomputeConfig{Threshold: 5})
	if len(events) != 1 {
		t.Errorf("unsubscribed callback still invoked")
	}
}

func TestScene_SnapshotRestoreRoundTrip(t *testing.T) {
	s := buildTestScene(t)

	profile := core.NewProfileTerrain([]model.ProfilePoint{
		{Distance: 0, Elevation: 2},
		{Distance: 25, Elevation: 6},
		{Distance: 50, Elevation: 3},
	}, 50, 100, 1, 0)
	s.SetTerrain(core.TerrainSource{Profile: profile})
	if err := s.SetSpanTension("s1", 2.5); err != nil {
		t.Fatalf("SetSpanTension: %v", err)
	}

	record := s.Snapshot()
	restored, err := Restore(record)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	// The rehydrated elevation function matches the original sample
	// for sample.
	for x := -10.0; x <= 60; x += 3.7 {
		if restored.Height(x, 0) != s.Height(x, 0) {
			t.Fatalf("restored terrain differs at x=%v", x)
		}
	}

	// Clearance reports reproduce exactly.
	cfg := RecomputeConfig{Samples: 32, Threshold: 5}
	want := s.Recompute(cfg)
	got := restored.Recompute(cfg)
	if len(want) != len(got) {
		t.Fatalf("report counts differ: %d vs %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("report %d differs: %+v vs %+v", i, want[i], got[i])
		}
	}

	// Snapshots themselves round-trip.
	again := restored.Snapshot()
	if len(again.Poles) != len(record.Poles) || len(again.Spans) != len(record.Spans) {
		t.Fatalf("second snapshot shape differs")
	}
	for i := range record.Poles {
		if again.Poles[i] != record.Poles[i] {
			t.Errorf("pole record %d differs: %+v vs %+v", i, again.Poles[i], record.Poles[i])
		}
	}
}

func TestScene_DegenerateSpanRecomputeIsFinite(t *testing.T) {
	s := New("scene-degenerate", "test")
	if err := s.AddPole(&model.Pole{ID: "p1", X: 5, Z: 5, Height: 10}); err != nil {
		t.Fatalf("AddPole: %v", err)
	}
	if err := s.AddPole(&model.Pole{ID: "p2", X: 5, Z: 5, Height: 10}); err != nil {
		t.Fatalf("AddPole: %v", err)
	}
	if err := s.AddSpan(&model.Span{ID: "s1", PoleA: "p1", PoleB: "p2"}); err != nil {
		t.Fatalf("AddSpan: %v", err)
	}

	reports := s.Recompute(RecomputeConfig{Threshold: 1})
	if math.IsNaN(reports[0].MinClearance) || math.IsInf(reports[0].MinClearance, 0) {
		t.Fatalf("degenerate span clearance = %v", reports[0].MinClearance)
	}
}

type fakeRecorder struct {
	poles, spans, violations int
	observed                 time.Duration
}

func (f *fakeRecorder) SetSceneCounts(poles, spans, violations int) {
	f.poles, f.spans, f.violations = poles, spans, violations
}
func (f *fakeRecorder) ObserveRecompute(d time.Duration) { f.observed = d }

func TestScene_MetricsRecorderDriven(t *testing.T) {
	rec := &fakeRecorder{}
	s := New("scene-1", "test", WithMetricsRecorder(rec))

	if err := s.AddPole(&model.Pole{ID: "p1", X: 0, Z: 0, Height: 10}); err != nil {
		t.Fatalf("AddPole: %v", err)
	}
	if err := s.AddPole(&model.Pole{ID: "p2", X: 50, Z: 0, Height: 12}); err != nil {
		t.Fatalf("AddPole: %v", err)
	}
	if err := s.AddSpan(&model.Span{ID: "s1", PoleA: "p1", PoleB: "p2"}); err != nil {
		t.Fatalf("AddSpan: %v", err)
	}
	if rec.poles != 2 || rec.spans != 1 {
		t.Errorf("gauges after mutation = %d poles, %d spans", rec.poles, rec.spans)
	}

	s.Recompute(RecomputeConfig{Threshold: 50})
	if rec.violations != 1 {
		t.Errorf("violations gauge = %d, want 1 under an unmeetable threshold", rec.violations)
	}
}
