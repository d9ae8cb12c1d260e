package models

import "time"

// Bar is one daily OHLCV observation for a ticker.
type Bar struct {
	Date     time.Time
	Ticker   string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// FeatureRow is one engineered observation: the raw close plus the derived
// features the detectors and the clustering pipeline consume.
type FeatureRow struct {
	Date       time.Time `json:"date"`
	Ticker     string    `json:"ticker"`
	Close      float64   `json:"close"`
	Return     float64   `json:"return"`     // daily pct-change return
	Volatility float64   `json:"volatility"` // rolling stddev of returns
	VolumeZ    float64   `json:"volume_z"`   // rolling z-score of volume
}

// Vector returns the feature coordinates used by the clustering pipeline.
func (r FeatureRow) Vector() []float64 {
	return []float64{r.Return, r.Volatility, r.VolumeZ}
}
