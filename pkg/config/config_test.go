package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
environment: test
server:
  port: 8080
marketdata:
  tickers: [AAPL, MSFT]
detector:
  window: 30
  threshold: 2.5
  target_rate: 0.035
kafka:
  brokers: [localhost:9092]
  anomaly_topic: retscan.anomalies
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "test" || cfg.Server.Port != 8080 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.MarketData.Tickers) != 2 {
		t.Fatalf("expected 2 tickers, got %v", cfg.MarketData.Tickers)
	}
}

func TestValidateRejectsBadDetector(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Detector.TargetRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for target rate >= 1")
	}
	cfg.Detector.TargetRate = 0.035
	cfg.Kafka.Consumer.Enabled = true
	cfg.Kafka.RequestsTopic = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for consumer without requests topic")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("MARKETDATA_API_KEY", "k123")
	t.Setenv("TICKERS", "TSLA,NVDA,AMD")
	cfg, err := LoadWithEnv(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MarketData.APIKey != "k123" {
		t.Fatalf("api key override not applied: %q", cfg.MarketData.APIKey)
	}
	if len(cfg.MarketData.Tickers) != 3 {
		t.Fatalf("tickers override not applied: %v", cfg.MarketData.Tickers)
	}
}

func TestApplyDetectorDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDetectorDefaults()
	if cfg.Detector.Lookback != 250 || cfg.Detector.Window != 30 {
		t.Fatalf("unexpected defaults: %+v", cfg.Detector)
	}
	if cfg.Detector.Threshold != 2.5 || cfg.Detector.TargetRate != 0.035 {
		t.Fatalf("unexpected defaults: %+v", cfg.Detector)
	}
}
