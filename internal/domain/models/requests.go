package models

// Requests for detection HTTP endpoints. Defined in domain for consistency and reuse.

type ScanRequest struct {
	Ticker     string    `query:"ticker" json:"ticker" validate:"required_without=Series"`
	Series     []float64 `json:"series,omitempty" validate:"omitempty,min=1"`
	Lookback   int       `query:"lookback" json:"lookback" default:"250" validate:"gte=2,lte=10000"`
	Window     int       `query:"window" json:"window" default:"30" validate:"gte=1,lte=500"`
	Threshold  float64   `query:"threshold" json:"threshold" default:"2.5" validate:"gt=0"`
	TargetRate float64   `query:"target_rate" json:"target_rate" default:"0.035" validate:"gt=0,lt=1"`
}

type CalibrateRequest struct {
	Ticker     string    `query:"ticker" json:"ticker" validate:"required_without=Series"`
	Series     []float64 `json:"series,omitempty" validate:"omitempty,min=1"`
	TargetRate float64   `query:"target_rate" json:"target_rate" default:"0.035" validate:"gt=0,lt=1"`
	WithTrace  bool      `query:"trace" json:"trace" default:"true"`
}

type CompareRequest struct {
	N    int   `json:"n" validate:"required,gte=1"`
	SetA []int `json:"set_a" validate:"required,dive,gte=0"`
	SetB []int `json:"set_b" validate:"required,dive,gte=0"`
}

type AnomaliesRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type IngestRequest struct {
	Tickers []string `json:"tickers" validate:"omitempty,min=1,dive,required"`
	From    string   `json:"from"`
	To      string   `json:"to"`
}

type ClusterRequest struct {
	Ticker   string  `query:"ticker" json:"ticker" validate:"required"`
	Method   string  `query:"method" json:"method" default:"kmeans" validate:"oneof=kmeans dbscan"`
	K        int     `query:"k" json:"k" default:"3" validate:"gte=1,lte=50"`
	MaxIters int     `query:"max_iters" json:"max_iters" default:"100" validate:"gte=1,lte=10000"`
	Eps      float64 `query:"eps" json:"eps" default:"0.5" validate:"gt=0"`
	MinPts   int     `query:"min_pts" json:"min_pts" default:"5" validate:"gte=1"`
}
