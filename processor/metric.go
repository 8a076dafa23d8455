package processor

import (
	"math"

	"sdrflow/models"
)

// ComputeMetric calculates the structure metric in basis points from
// tenor-sorted rates: spread is the long rate minus the short rate,
// butterfly is twice the belly minus both wings. A structure kind with no
// metric, or a leg list too short to compute one, yields nil rather than
// zero so downstream rendering can tell "no metric" from "flat".
func ComputeMetric(structure models.Structure, rates []float64) *float64 {
	switch structure {
	case models.StructureSpread:
		if len(rates) < 2 {
			return nil
		}
		v := roundBps(100 * (rates[1] - rates[0]))
		return &v
	case models.StructureButterfly:
		if len(rates) < 3 {
			return nil
		}
		v := roundBps(100 * (2*rates[1] - rates[0] - rates[2]))
		return &v
	}
	return nil
}

func roundBps(v float64) float64 {
	return math.Round(v*10) / 10
}
