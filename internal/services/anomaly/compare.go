package anomaly

import "RetScan/internal/domain/models"

// Compare computes per-detector counts and rates plus the overlap between two
// label sets over the same series length. Pure reporting helper; not part of
// either detection algorithm.
func Compare(sliding, robust models.LabelSet, n int) models.ComparisonReport {
	overlap := sliding.Intersect(robust)
	return models.ComparisonReport{
		N:            n,
		Sliding:      models.DetectorSummary{Count: sliding.Count(), Rate: sliding.Rate(n)},
		Robust:       models.DetectorSummary{Count: robust.Count(), Rate: robust.Rate(n)},
		OverlapCount: overlap.Count(),
		OverlapRate:  overlap.Rate(n),
	}
}
