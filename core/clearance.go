package core

import (
	"math"

	"github.com/danmaps/GridScaper/model"
)

// ClearanceStatus is a per-group safety verdict.
type ClearanceStatus string

const (
	ClearanceOK        ClearanceStatus = "ok"
	ClearanceViolation ClearanceStatus = "violation"
)

// SpanGroup collects the parallel conductor curves hanging between one
// pole pair.
type SpanGroup struct {
	SpanID string
	Curves [][]model.CurvePoint
}

// ClearanceReport is the verdict for one span group. Point and
// GroundElevation identify the sampled location of minimum clearance,
// which on sloped terrain is not necessarily the sag apex.
type ClearanceReport struct {
	SpanID          string          `json:"spanId"`
	Status          ClearanceStatus `json:"status"`
	MinClearance    float64         `json:"minClearance"`
	Point           model.CurvePoint `json:"point"`
	GroundElevation float64         `json:"groundElevation"`
}

// CheckClearances measures every sampled point of every conductor in
// each group against the ground surface and flags groups whose minimum
// clearance falls below the threshold. Groups with no curve points
// report an infinite clearance and pass.
func CheckClearances(groups []SpanGroup, ground ElevationFunc, threshold float64) []ClearanceReport {
	reports := make([]ClearanceReport, 0, len(groups))
	for _, g := range groups {
		reports = append(reports, checkGroup(g, ground, threshold))
	}
	return reports
}

func checkGroup(g SpanGroup, ground ElevationFunc, threshold float64) ClearanceReport {
	report := ClearanceReport{
		SpanID:       g.SpanID,
		Status:       ClearanceOK,
		MinClearance: math.Inf(1),
	}

	// The true minimum is found by scanning all samples, not by
	// probing the geometric midpoint: terrain slope can move it
	// anywhere along the span.
	for _, curve := range g.Curves {
		for _, pt := range curve {
			elev := ground(pt.X, pt.Z)
			clearance := pt.Y - elev
			if clearance < report.MinClearance {
				report.MinClearance = clearance
				report.Point = pt
				report.GroundElevation = elev
			}
		}
	}

	if report.MinClearance < threshold {
		report.Status = ClearanceViolation
	}
	return report
}
