package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"RetScan/internal/domain/models"
	drepo "RetScan/internal/domain/repository"
	xhttp "RetScan/pkg/http"
)

// Client fetches daily OHLCV candles from a Finnhub-compatible REST API.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
}

// New creates a daily-bar source against the given API base URL.
func New(baseURL, apiKey string, timeout time.Duration) drepo.BarSource {
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type candleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

// FetchDailyBars returns daily bars for ticker in [from, to], oldest first.
// A provider "no_data" status yields an empty slice, not an error.
func (c *Client) FetchDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error) {
	var resp candleResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {ticker},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
			"token":      {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", ticker, err)
	}

	switch resp.Status {
	case "ok":
	case "no_data":
		return []models.Bar{}, nil
	default:
		return nil, fmt.Errorf("fetch candles %s: provider status %q", ticker, resp.Status)
	}

	n := len(resp.Times)
	if len(resp.Opens) != n || len(resp.Highs) != n || len(resp.Lows) != n ||
		len(resp.Closes) != n || len(resp.Volumes) != n {
		return nil, fmt.Errorf("fetch candles %s: ragged response arrays", ticker)
	}

	bars := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, models.Bar{
			Date:     time.Unix(resp.Times[i], 0).UTC().Truncate(24 * time.Hour),
			Ticker:   ticker,
			Open:     resp.Opens[i],
			High:     resp.Highs[i],
			Low:      resp.Lows[i],
			Close:    resp.Closes[i],
			AdjClose: resp.Closes[i],
			Volume:   resp.Volumes[i],
		})
	}
	return bars, nil
}
