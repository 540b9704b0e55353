package core

import "math"

// Sag model constants. The hanging-cable shape is a true hyperbolic
// catenary; base sag grows with span length and is divided by the
// span's tension factor.
const (
	// MinSag is the smallest sag the solver will be asked for.
	MinSag = 0.1

	// BaseSagFactor scales horizontal span length into untensioned sag.
	BaseSagFactor = 0.05

	// catenaryTolerance stops Newton iteration once the parameter
	// update falls below it.
	catenaryTolerance = 0.001

	// defaultIterationCap bounds the Newton refinement.
	defaultIterationCap = 20

	// minSpanLength clamps degenerate spans (coincident poles) so the
	// solver never sees a zero-length span.
	minSpanLength = 0.001
)

// SolveCatenaryParameter finds the catenary parameter a such that
//
//	a * (cosh(L/2a) - 1) ≈ sag
//
// for a span of horizontal length L. It seeds with the parabolic
// approximation L²/(8s) and refines with Newton-Raphson. The function
// never fails: if the iteration cap is reached before the update falls
// below tolerance, the last estimate is returned. In realistic ranges
// the estimate is within solver tolerance of the true parameter.
func SolveCatenaryParameter(span, sag float64) float64 {
	return solveCatenary(span, sag, defaultIterationCap)
}

func solveCatenary(span, sag float64, iterationCap int) float64 {
	if span < minSpanLength {
		span = minSpanLength
	}
	if sag < MinSag {
		sag = MinSag
	}

	// Parabolic seed.
	a := span * span / (8 * sag)

	for i := 0; i < iterationCap; i++ {
		x := span / (2 * a)
		f := a*(math.Cosh(x)-1) - sag
		fp := math.Cosh(x) - 1 - x*math.Sinh(x)
		if fp == 0 {
			break
		}

		delta := f / fp
		next := a - delta
		if !(next > 0) || math.IsNaN(next) {
			// A wild Newton step left the valid domain; keep the
			// current estimate rather than diverge.
			break
		}
		a = next

		if math.Abs(delta) < catenaryTolerance {
			break
		}
	}

	return a
}
