package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
binance:
  base_url: https://api.binance.com
  symbols: [BTCUSDT, ETHUSDT]
  max_per_call: 1000
  request_timeout: 10s
redis:
  addr: localhost:6379
  cache_ttl: 15s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "test" {
		t.Fatalf("unexpected environment %q", c.Environment)
	}
	if c.Analysis.MinStrength != 55 || c.Analysis.MinConfluence != 8 {
		t.Fatalf("analysis defaults not applied: %+v", c.Analysis)
	}
	if c.Backtest.WindowSize != 50 || c.Backtest.RiskPolicy != "fixed" {
		t.Fatalf("backtest defaults not applied: %+v", c.Backtest)
	}
	if c.Analysis.Weights.BreakerBlock != 5 {
		t.Fatalf("weight table defaults not applied: %+v", c.Analysis.Weights)
	}
	if c.Redis.CacheTTL != 15*time.Second {
		t.Fatalf("redis ttl not parsed: %v", c.Redis.CacheTTL)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	body := minimalYAML + `
analysis:
  min_strength: 70
backtest:
  risk_policy: percent
  risk_percent: 0.05
`
	c, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Analysis.MinStrength != 70 {
		t.Fatalf("expected override 70, got %v", c.Analysis.MinStrength)
	}
	// Untouched siblings keep their defaults.
	if c.Analysis.MinConfluence != 8 {
		t.Fatalf("sibling default lost: %+v", c.Analysis)
	}
	if c.Backtest.RiskPolicy != "percent" || c.Backtest.RiskPercent != 0.05 {
		t.Fatalf("backtest override lost: %+v", c.Backtest)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error on missing file")
	}
}

func TestValidateMissingEnvironment(t *testing.T) {
	body := strings.Replace(minimalYAML, "environment: test\n", "", 1)
	if _, err := Load(writeConfig(t, body)); err == nil || !strings.Contains(err.Error(), "environment") {
		t.Fatalf("expected environment validation error, got %v", err)
	}
}

func TestValidateBadRiskPolicy(t *testing.T) {
	body := minimalYAML + `
backtest:
  risk_policy: martingale
`
	if _, err := Load(writeConfig(t, body)); err == nil || !strings.Contains(err.Error(), "risk_policy") {
		t.Fatalf("expected risk policy validation error, got %v", err)
	}
}

func TestValidateZeroLookahead(t *testing.T) {
	body := minimalYAML + `
backtest:
  lookahead: 0
`
	if _, err := Load(writeConfig(t, body)); err == nil || !strings.Contains(err.Error(), "lookahead") {
		t.Fatalf("expected lookahead validation error, got %v", err)
	}
}

func TestValidateTargetTableMismatch(t *testing.T) {
	body := minimalYAML + `
analysis:
  target_atr_multiples: [2.5, 4.5]
`
	if _, err := Load(writeConfig(t, body)); err == nil || !strings.Contains(err.Error(), "target_atr_multiples") {
		t.Fatalf("expected target table validation error, got %v", err)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "SOLUSDT,BNBUSDT")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("SERVER_PORT", "9191")
	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Binance.Symbols) != 2 || c.Binance.Symbols[0] != "SOLUSDT" {
		t.Fatalf("symbols env override lost: %v", c.Binance.Symbols)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("kafka env override lost: %v", c.Kafka.Brokers)
	}
	if c.Server.Port != 9191 {
		t.Fatalf("server port env override lost: %d", c.Server.Port)
	}
}
