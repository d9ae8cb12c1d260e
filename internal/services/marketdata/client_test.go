package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/candle" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "AAPL" || q.Get("resolution") != "D" || q.Get("token") != "k" {
			t.Fatalf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"s": "ok",
			"t": [1709251200, 1709510400],
			"o": [179.5, 181.0],
			"h": [181.2, 182.4],
			"l": [178.9, 180.1],
			"c": [180.5, 175.25],
			"v": [100000, 250000]
		}`))
	}))
	defer srv.Close()

	src := New(srv.URL, "k", 5*time.Second)
	bars, err := src.FetchDailyBars(context.Background(), "AAPL",
		time.Unix(1709251200, 0), time.Unix(1709510400, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Ticker != "AAPL" || bars[0].Close != 180.5 || bars[1].Volume != 250000 {
		t.Fatalf("unexpected bars: %+v", bars)
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Fatalf("bars not in date order: %v, %v", bars[0].Date, bars[1].Date)
	}
}

func TestFetchDailyBarsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s": "no_data"}`))
	}))
	defer srv.Close()

	bars, err := New(srv.URL, "k", time.Second).FetchDailyBars(
		context.Background(), "ZZZZ", time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("no_data should not error: %v", err)
	}
	if len(bars) != 0 {
		t.Fatalf("expected empty result, got %d bars", len(bars))
	}
}

func TestFetchDailyBarsRaggedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"ok","t":[1],"o":[1,2],"h":[1],"l":[1],"c":[1],"v":[1]}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "k", time.Second).FetchDailyBars(
		context.Background(), "AAPL", time.Unix(0, 0), time.Now()); err == nil {
		t.Fatal("expected error for ragged arrays")
	}
}

func TestFetchDailyBarsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "k", time.Second).FetchDailyBars(
		context.Background(), "AAPL", time.Unix(0, 0), time.Now()); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}
