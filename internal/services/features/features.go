package features

import (
	"math"

	"RetScan/internal/domain/models"
)

const (
	// DefaultVolatilityWindow is the rolling window for return volatility.
	DefaultVolatilityWindow = 10
	// DefaultVolumeWindow is the rolling window for the volume z-score.
	DefaultVolumeWindow = 20
)

// ComputeReturns computes daily pct-change returns r_t = C_t/C_{t-1} - 1 over
// one ticker's bars, in date order. Returns a slice of length len(bars)-1, or
// nil if insufficient data.
func ComputeReturns(bars []models.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		cur := bars[i].Close
		if prev <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, cur/prev-1)
	}
	return out
}

// BuildRows derives the full feature set for one ticker: daily return,
// rolling return volatility, and rolling volume z-score. Rows whose windows
// are not yet complete are dropped, so the result starts once every feature
// is defined.
func BuildRows(bars []models.Bar, volWindow, volumeWindow int) []models.FeatureRow {
	if volWindow < 2 {
		volWindow = DefaultVolatilityWindow
	}
	if volumeWindow < 2 {
		volumeWindow = DefaultVolumeWindow
	}
	if len(bars) < 2 {
		return nil
	}

	n := len(bars)
	returns := make([]float64, n)
	returns[0] = math.NaN()
	for i := 1; i < n; i++ {
		if prev := bars[i-1].Close; prev > 0 {
			returns[i] = bars[i].Close/prev - 1
		} else {
			returns[i] = 0
		}
	}

	volumes := make([]float64, n)
	for i, b := range bars {
		volumes[i] = b.Volume
	}

	vol := rollingStd(returns, volWindow)
	volZ := rollingZScore(volumes, volumeWindow)

	rows := make([]models.FeatureRow, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(returns[i]) || math.IsNaN(vol[i]) || math.IsNaN(volZ[i]) {
			continue
		}
		rows = append(rows, models.FeatureRow{
			Date:       bars[i].Date,
			Ticker:     bars[i].Ticker,
			Close:      bars[i].Close,
			Return:     returns[i],
			Volatility: vol[i],
			VolumeZ:    volZ[i],
		})
	}
	return rows
}

// Returns extracts the plain return series from feature rows, preserving
// index order.
func Returns(rows []models.FeatureRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Return
	}
	return out
}

// rollingStd computes the trailing sample standard deviation over a window.
// Positions without a complete window of defined values are NaN.
func rollingStd(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
		if i < window-1 {
			continue
		}
		m, ok := windowMean(xs[i-window+1 : i+1])
		if !ok {
			continue
		}
		sq := 0.0
		for _, v := range xs[i-window+1 : i+1] {
			d := v - m
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(window-1))
	}
	return out
}

// rollingZScore computes (x - rolling mean) / rolling sample stddev.
// Positions with an incomplete window or zero dispersion are NaN.
func rollingZScore(xs []float64, window int) []float64 {
	std := rollingStd(xs, window)
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
		if math.IsNaN(std[i]) || std[i] == 0 {
			continue
		}
		m, _ := windowMean(xs[i-window+1 : i+1])
		out[i] = (xs[i] - m) / std[i]
	}
	return out
}

func windowMean(win []float64) (float64, bool) {
	sum := 0.0
	for _, v := range win {
		if math.IsNaN(v) {
			return 0, false
		}
		sum += v
	}
	return sum / float64(len(win)), true
}
