package core

import (
	"math"
	"strings"
	"testing"

	"github.com/danmaps/GridScaper/model"
)

const gisCSV = `name,latitude,longitude,elevation,height
P1,34.0522,-118.2437,89.0,40
P2,34.0530,-118.2440,91.5,40
P3,34.0541,-118.2452,95.2,45
`

func TestParseGISData_HeaderDetection(t *testing.T) {
	records, warnings, err := ParseGISData(gisCSV)
	if err != nil {
		t.Fatalf("ParseGISData: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(records) != 3 {
		t.Fatalf("parsed %d records, want 3", len(records))
	}

	first := records[0]
	if first.ID != "P1" || first.Lat != 34.0522 || first.Lng != -118.2437 {
		t.Errorf("first record = %+v", first)
	}
	if first.Elevation != 89.0 || first.Height != 40 {
		t.Errorf("first record elevation/height = %v/%v", first.Elevation, first.Height)
	}
}

func TestParseGISData_FixedColumnFallback(t *testing.T) {
	// No recognizable header: the first row is data in the order
	// lat, lng, elevation, height.
	records, _, err := ParseGISData("34.05,-118.24,89,40\n34.06,-118.25,92,40\n")
	if err != nil {
		t.Fatalf("ParseGISData: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("parsed %d records, want 2", len(records))
	}
	if records[0].Lat != 34.05 || records[0].Lng != -118.24 || records[0].Elevation != 89 {
		t.Errorf("first record = %+v", records[0])
	}
}

func TestParseGISData_SkipsMalformedRows(t *testing.T) {
	csv := "lat,lng,elev\n34.05,-118.24,89\nnot-a-number,-118.25,90\n34.07,-118.26,91\n"
	records, warnings, err := ParseGISData(csv)
	if err != nil {
		t.Fatalf("ParseGISData: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("parsed %d records, want 2 after skipping the bad row", len(records))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "skipped") {
		t.Errorf("warnings = %v, want one skip warning", warnings)
	}
}

func TestParseGISData_FailsOnlyWithZeroValidRows(t *testing.T) {
	if _, _, err := ParseGISData(""); err == nil {
		t.Fatalf("empty input did not error")
	}

	_, _, err := ParseGISData("lat,lng\nfoo,bar\nbaz,qux\n")
	if err == nil {
		t.Fatalf("all-invalid rows did not error")
	}
	if !strings.Contains(err.Error(), "invalid input data") {
		t.Errorf("error %v does not wrap ErrInvalidInputData", err)
	}
}

// haversineMeters mirrors the projection's distance model: haversine
// on a sphere of radius 6378137 m.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const radius = 6378137.0
	toRad := math.Pi / 180

	dLat := (lat2 - lat1) * toRad
	dLng := (lng2 - lng1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return radius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func TestConvertToSceneCoordinates_HaversineSeparation(t *testing.T) {
	// Two records at the same latitude, 0.001 degrees apart in
	// longitude, must land a scene distance of haversine(dLng) apart
	// (in feet, times the auto-scale factor).
	records := []model.GISRecord{
		{Lat: 34.05, Lng: -118.2440, Elevation: 10},
		{Lat: 34.05, Lng: -118.2430, Elevation: 12},
	}

	result, err := ConvertToSceneCoordinates(records, ConvertOptions{})
	if err != nil {
		t.Fatalf("ConvertToSceneCoordinates: %v", err)
	}
	if result.ScaleFactor != 1 {
		t.Fatalf("unexpected auto-scale %v without MaxSceneSize", result.ScaleFactor)
	}

	a, b := result.Points[0], result.Points[1]
	got := math.Hypot(b.X-a.X, b.Z-a.Z)
	want := haversineMeters(34.05, -118.2440, 34.05, -118.2430) * MetersToFeet

	if math.Abs(got-want) > 1e-3 {
		t.Errorf("scene separation %v ft, want %v ft", got, want)
	}
}

func TestConvertToSceneCoordinates_AutoScaleFitsFootprint(t *testing.T) {
	records := []model.GISRecord{
		{Lat: 34.00, Lng: -118.30},
		{Lat: 34.10, Lng: -118.20},
	}

	result, err := ConvertToSceneCoordinates(records, ConvertOptions{MaxSceneSize: 500})
	if err != nil {
		t.Fatalf("ConvertToSceneCoordinates: %v", err)
	}

	if result.ScaleFactor >= 1 {
		t.Fatalf("scale factor %v, want a shrink below 1", result.ScaleFactor)
	}
	largest := math.Max(result.Width, result.Depth)
	if largest > 500+1e-6 {
		t.Errorf("largest footprint extent %v exceeds the configured 500", largest)
	}
}

func TestConvertToSceneCoordinates_RecenterNonNegative(t *testing.T) {
	records := []model.GISRecord{
		{Lat: 34.00, Lng: -118.30},
		{Lat: 34.02, Lng: -118.28},
		{Lat: 34.01, Lng: -118.33},
	}

	result, err := ConvertToSceneCoordinates(records, ConvertOptions{Recenter: true})
	if err != nil {
		t.Fatalf("ConvertToSceneCoordinates: %v", err)
	}

	for i, p := range result.Points {
		if p.X < -1e-9 || p.Z < -1e-9 {
			t.Errorf("point %d at (%v, %v), want non-negative after recenter", i, p.X, p.Z)
		}
	}
}

func TestConvertToSceneCoordinates_Metadata(t *testing.T) {
	records := []model.GISRecord{
		{Lat: 34.00, Lng: -118.30, Elevation: 80},
		{Lat: 34.10, Lng: -118.20, Elevation: 120},
	}

	result, err := ConvertToSceneCoordinates(records, ConvertOptions{})
	if err != nil {
		t.Fatalf("ConvertToSceneCoordinates: %v", err)
	}

	if result.Bounds.MinLat != 34.00 || result.Bounds.MaxLat != 34.10 {
		t.Errorf("lat bounds = %+v", result.Bounds)
	}
	if result.MinElevation != 80 || result.MaxElevation != 120 {
		t.Errorf("elevation range = [%v, %v]", result.MinElevation, result.MaxElevation)
	}
	// Route runs northeast: bearing in (0, 90).
	if result.Bearing <= 0 || result.Bearing >= 90 {
		t.Errorf("overall bearing %v, want northeast quadrant", result.Bearing)
	}
	if result.Width <= 0 || result.Depth <= 0 {
		t.Errorf("footprint %vx%v, want positive extents", result.Width, result.Depth)
	}
}
