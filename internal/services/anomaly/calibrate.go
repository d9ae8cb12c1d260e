package anomaly

import (
	"fmt"
	"math"

	"RetScan/internal/domain/models"
)

const (
	// acceptBand is the relative acceptance band around the target rate:
	// a candidate with rate in [0.8*target, 1.2*target] ends the search.
	acceptBand = 0.2
	// defaultCloseTolerance is the absolute fallback band: for small targets
	// the relative band becomes very narrow, so a candidate within this
	// absolute distance of the target also ends the search.
	defaultCloseTolerance = 0.005
)

// CalibrationConfig configures the threshold search.
type CalibrationConfig struct {
	TargetRate     float64 // desired anomaly rate, in (0, 1)
	CloseTolerance float64 // absolute closeness early-exit; defaulted when 0
	WithTrace      bool    // record every trial in the result
}

func (c CalibrationConfig) validate() error {
	if c.TargetRate <= 0 || c.TargetRate >= 1 {
		return fmt.Errorf("%w: target rate %v, must be in (0, 1)", ErrConfig, c.TargetRate)
	}
	return nil
}

// candidateThresholds builds the fixed descending list explored by the
// search: 3.5 down to 2.0 in steps of 0.1, then 2.0 down to 1.5 in steps of
// 0.05. Finer near the floor because detector behavior changes fastest there.
// Independent of data; built once per calibration run.
func candidateThresholds() []float64 {
	out := make([]float64, 0, 26)
	for t := 3.5; t >= 2.0-1e-9; t -= 0.1 {
		out = append(out, math.Round(t*100)/100)
	}
	// The coarse loop already emitted 2.0, so the fine loop starts below it.
	for t := 1.95; t >= 1.5-1e-9; t -= 0.05 {
		out = append(out, math.Round(t*100)/100)
	}
	return out
}

// Calibrate searches the candidate list for a robust-detector threshold whose
// anomaly rate is close to the target. Rules, evaluated in list order:
//
//   - first candidate whose rate lands in the relative acceptance band wins
//     immediately (accepted_in_range), even if a later candidate would have
//     been closer to the target;
//   - otherwise a candidate within CloseTolerance of the target wins
//     (close_to_target);
//   - otherwise, after the list is exhausted, the candidate with the smallest
//     |rate - target| wins (exhausted_search); ties keep the earlier, higher
//     threshold.
//
// The result is assembled as a fold over the candidate list: no state outlives
// the call, and the returned label set is the detector output of the chosen
// candidate. An empty series short-circuits to an empty result.
func Calibrate(series []float64, cfg CalibrationConfig) (models.CalibrationResult, error) {
	if err := cfg.validate(); err != nil {
		return models.CalibrationResult{}, err
	}
	if len(series) == 0 {
		return models.CalibrationResult{
			Labels: models.LabelSet{},
			Reason: models.ExhaustedSearch,
		}, nil
	}

	closeTol := cfg.CloseTolerance
	if closeTol <= 0 {
		closeTol = defaultCloseTolerance
	}

	// Robust statistics do not depend on the threshold; estimate once and
	// re-rank per candidate.
	rs := EstimateRobust(series)
	n := float64(len(series))

	candidates := candidateThresholds()

	var (
		best     models.CalibrationResult
		bestDiff = math.Inf(1)
		trace    []models.CalibrationTrial
	)
	if cfg.WithTrace {
		trace = make([]models.CalibrationTrial, 0, len(candidates))
	}

	for _, t := range candidates {
		labels := detectRobustWith(series, rs, t)
		rate := float64(labels.Count()) / n
		diff := math.Abs(rate - cfg.TargetRate)

		inRange := rate >= (1-acceptBand)*cfg.TargetRate && rate <= (1+acceptBand)*cfg.TargetRate
		closeHit := !inRange && diff <= closeTol

		if cfg.WithTrace {
			trace = append(trace, models.CalibrationTrial{
				Threshold: t,
				Count:     labels.Count(),
				Rate:      rate,
				Accepted:  inRange || closeHit,
			})
		}

		// Acceptance is checked before the best-seen bookkeeping so a later,
		// closer candidate can never overwrite an already-accepted one.
		if inRange || closeHit {
			reason := models.AcceptedInRange
			if closeHit {
				reason = models.CloseToTarget
			}
			return models.CalibrationResult{
				Threshold: t,
				Labels:    labels,
				Rate:      rate,
				Reason:    reason,
				Trace:     trace,
			}, nil
		}

		// Strict < keeps the earlier (higher) threshold on ties.
		if diff < bestDiff {
			bestDiff = diff
			best = models.CalibrationResult{Threshold: t, Labels: labels, Rate: rate}
		}
	}

	best.Reason = models.ExhaustedSearch
	best.Trace = trace
	return best, nil
}
