package core

import (
	"math"
	"testing"
)

func TestSolveCatenaryParameter_ResidualWithinTolerance(t *testing.T) {
	spans := []float64{5, 10, 30, 50, 100, 200}
	sags := []float64{0.1, 0.5, 1, 2.5, 5, 10}

	for _, span := range spans {
		for _, sag := range sags {
			a := SolveCatenaryParameter(span, sag)
			if !(a > 0) {
				t.Fatalf("SolveCatenaryParameter(%v, %v) = %v, want positive", span, sag, a)
			}

			residual := a*(math.Cosh(span/(2*a))-1) - sag
			if math.Abs(residual) > 1e-3 {
				t.Errorf("SolveCatenaryParameter(%v, %v): residual %v exceeds 1e-3", span, sag, residual)
			}
		}
	}
}

func TestSolveCatenaryParameter_ClampsDegenerateInputs(t *testing.T) {
	// Zero-length span and zero sag must still produce a finite,
	// positive parameter instead of NaN.
	a := SolveCatenaryParameter(0, 0)
	if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 {
		t.Fatalf("degenerate inputs produced %v, want finite positive", a)
	}
}

func TestSolveCatenaryParameter_IterationCapReturnsEstimate(t *testing.T) {
	// With a cap of one iteration the solver cannot converge; it must
	// still return its running estimate rather than fail.
	a := solveCatenary(100, 5, 1)
	if math.IsNaN(a) || a <= 0 {
		t.Fatalf("capped solve produced %v, want finite positive estimate", a)
	}

	// More iterations never move the result away from the true root.
	refined := solveCatenary(100, 5, 20)
	roughResidual := math.Abs(a*(math.Cosh(100/(2*a))-1) - 5)
	fineResidual := math.Abs(refined*(math.Cosh(100/(2*refined))-1) - 5)
	if fineResidual > roughResidual {
		t.Errorf("refined residual %v worse than capped residual %v", fineResidual, roughResidual)
	}
}

func TestSolveCatenaryParameter_ParabolicSeedIsClose(t *testing.T) {
	// For shallow sags the parabolic seed is already near the catenary
	// parameter; the solved value should stay within a few percent.
	span, sag := 30.0, 1.5
	seed := span * span / (8 * sag)
	a := SolveCatenaryParameter(span, sag)
	if math.Abs(a-seed)/seed > 0.05 {
		t.Errorf("solved parameter %v drifted more than 5%% from seed %v", a, seed)
	}
}
