package core

import (
	"fmt"
	"math"

	"github.com/danmaps/GridScaper/model"
)

// thinSpreadDegrees flags imports whose coordinates are so tightly
// clustered that the projected scene collapses to a point.
const thinSpreadDegrees = 1e-6

// ValidationResult separates blocking problems from advisory ones.
// Import proceeds whenever any valid record survives; warnings are
// surfaced alongside the result.
type ValidationResult struct {
	Records  []model.GISRecord `json:"-"`
	Warnings []string          `json:"warnings,omitempty"`
}

// ValidateGISRecords is the range-validation pre-pass run before
// coordinate conversion: latitude must be in [-90, 90], longitude in
// [-180, 180], and elevation finite. Offending records are dropped
// with a warning. Thin-data advisories (a single point, a tiny
// coordinate spread) do not drop anything. The pre-pass fails only
// when no record survives.
func ValidateGISRecords(records []model.GISRecord) (*ValidationResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("validate GIS records: %w: no records", ErrInvalidInputData)
	}

	res := &ValidationResult{Records: make([]model.GISRecord, 0, len(records))}
	for i, r := range records {
		switch {
		case r.Lat < -90 || r.Lat > 90:
			res.Warnings = append(res.Warnings, fmt.Sprintf("record %d dropped: latitude %.6f out of range [-90, 90]", i, r.Lat))
		case r.Lng < -180 || r.Lng > 180:
			res.Warnings = append(res.Warnings, fmt.Sprintf("record %d dropped: longitude %.6f out of range [-180, 180]", i, r.Lng))
		case math.IsNaN(r.Elevation) || math.IsInf(r.Elevation, 0):
			res.Warnings = append(res.Warnings, fmt.Sprintf("record %d dropped: elevation is not finite", i))
		default:
			res.Records = append(res.Records, r)
		}
	}

	if len(res.Records) == 0 {
		return nil, fmt.Errorf("validate GIS records: %w: no records within valid ranges", ErrInvalidInputData)
	}

	if len(res.Records) == 1 {
		res.Warnings = append(res.Warnings, "only one valid record: the derived surface will be flat around it")
	} else {
		minLat, maxLat := res.Records[0].Lat, res.Records[0].Lat
		minLng, maxLng := res.Records[0].Lng, res.Records[0].Lng
		for _, r := range res.Records[1:] {
			minLat = math.Min(minLat, r.Lat)
			maxLat = math.Max(maxLat, r.Lat)
			minLng = math.Min(minLng, r.Lng)
			maxLng = math.Max(maxLng, r.Lng)
		}
		if maxLat-minLat < thinSpreadDegrees && maxLng-minLng < thinSpreadDegrees {
			res.Warnings = append(res.Warnings, "coordinate spread is near zero: scene footprint will collapse to a point")
		}
	}

	return res, nil
}

// ValidateProfile surfaces advisory warnings for thin survey profiles.
// It never fails for a non-empty profile.
func ValidateProfile(profile *ElevationProfile) []string {
	if profile == nil || len(profile.Points) == 0 {
		return []string{"empty profile"}
	}

	var warnings []string
	if len(profile.Points) == 1 {
		warnings = append(warnings, "only one profile point: terrain will be flat")
	}
	if profile.Stats.DistanceSpan == 0 && len(profile.Points) > 1 {
		warnings = append(warnings, "all profile points share one distance: row order decides interpolation")
	}
	for i, p := range profile.Points {
		if math.IsNaN(p.Elevation) || math.IsInf(p.Elevation, 0) {
			warnings = append(warnings, fmt.Sprintf("point %d has a non-finite elevation", i))
		}
	}
	return warnings
}
