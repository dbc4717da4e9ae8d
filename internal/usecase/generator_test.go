package usecase

import (
	"math"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/indicators"
	"TradePulse/internal/services/smartmoney"
	"TradePulse/pkg/config"
)

// permissiveAnalysis keeps the default policy but removes the admission
// thresholds so structural properties of the emitted signal can be
// asserted on synthetic series.
func permissiveAnalysis() config.AnalysisConfig {
	cfg := config.DefaultAnalysis()
	cfg.MinStrength = 0
	cfg.MinConfluence = 0
	cfg.MinRiskReward = 0
	return cfg
}

// trendingCandles builds a rising triangle wave with a small drift so the
// window has real range, swings and a positive ATR.
func trendingCandles(n int, drift float64) []models.Candle {
	tri := []float64{0, 1, 2, 3, 2, 1, 0, -1}
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		v := 100 + drift*float64(i) + tri[i%len(tri)]
		candles[i] = models.Candle{
			Time: int64(i+1) * 60_000,
			Open: v - 0.1, High: v + 0.3, Low: v - 0.3, Close: v,
			Volume: 100 + float64(i%5),
		}
	}
	return candles
}

func buyPrediction(conf float64) *models.Prediction {
	return &models.Prediction{Signal: models.SideBuy, Confidence: conf, Source: "test"}
}

func TestGenerateInsufficientCandles(t *testing.T) {
	gen := NewGenerator(permissiveAnalysis())
	if sig := gen.Generate("BTCUSDT", "15m", trendingCandles(19, 0.2), buyPrediction(80), nil); sig != nil {
		t.Fatalf("expected nil below 20 candles, got %+v", sig)
	}
}

func TestGenerateNeutralPrediction(t *testing.T) {
	gen := NewGenerator(permissiveAnalysis())
	candles := trendingCandles(60, 0.2)
	if sig := gen.Generate("BTCUSDT", "15m", candles, nil, nil); sig != nil {
		t.Fatalf("expected nil on nil prediction")
	}
	neutral := &models.Prediction{Signal: models.SideNeutral, Confidence: 90}
	if sig := gen.Generate("BTCUSDT", "15m", candles, neutral, nil); sig != nil {
		t.Fatalf("expected nil on neutral prediction")
	}
}

func TestGenerateHigherTimeframeVeto(t *testing.T) {
	gen := NewGenerator(config.DefaultAnalysis())
	candles := trendingCandles(60, 0.2)
	htf := &models.TrendFilter{Bullish: false, Confidence: 0.8}
	if sig := gen.Generate("BTCUSDT", "15m", candles, buyPrediction(90), htf); sig != nil {
		t.Fatalf("expected counter-trend veto, got %+v", sig)
	}
}

func TestGenerateHigherTimeframeBoost(t *testing.T) {
	gen := NewGenerator(permissiveAnalysis())
	candles := trendingCandles(60, 0.2)
	htf := &models.TrendFilter{Bullish: true, Confidence: 0.7}
	sig := gen.Generate("BTCUSDT", "15m", candles, buyPrediction(60), htf)
	if sig == nil {
		t.Fatalf("expected a signal")
	}
	if sig.Strength != 75 {
		t.Fatalf("expected boosted strength 75, got %d", sig.Strength)
	}
}

func TestGenerateBuySignalShape(t *testing.T) {
	gen := NewGenerator(permissiveAnalysis())
	candles := trendingCandles(60, 0.2)
	sig := gen.Generate("BTCUSDT", "15m", candles, buyPrediction(80), nil)
	if sig == nil {
		t.Fatalf("expected a signal")
	}
	if sig.Type != models.SideBuy {
		t.Fatalf("expected BUY, got %v", sig.Type)
	}
	if sig.Symbol != "BTCUSDT" || sig.Timeframe != "15m" {
		t.Fatalf("identity fields wrong: %+v", sig)
	}
	wantTS := time.UnixMilli(candles[len(candles)-1].Time)
	if !sig.Timestamp.Equal(wantTS) {
		t.Fatalf("expected timestamp of last candle, got %v", sig.Timestamp)
	}
	if sig.StopLoss >= sig.Entry {
		t.Fatalf("BUY stop must sit below entry: stop=%v entry=%v", sig.StopLoss, sig.Entry)
	}
	if len(sig.Targets) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(sig.Targets))
	}
	prev := sig.Entry
	for i, tgt := range sig.Targets {
		if tgt.Price <= prev {
			t.Fatalf("BUY targets must ascend from entry, target %d = %v", i, tgt.Price)
		}
		prev = tgt.Price
	}
	wantAlloc := []float64{40, 30, 30}
	for i, tgt := range sig.Targets {
		if tgt.AllocationPercent != wantAlloc[i] {
			t.Fatalf("allocation %d = %v, want %v", i, tgt.AllocationPercent, wantAlloc[i])
		}
	}
	if sig.Targets[0].RiskReward >= sig.Targets[1].RiskReward ||
		sig.Targets[1].RiskReward >= sig.Targets[2].RiskReward {
		t.Fatalf("risk-reward must rise with targets: %+v", sig.Targets)
	}
	if math.Abs(sig.BestRR-sig.Targets[2].RiskReward) > 1e-9 {
		t.Fatalf("best RR should be the furthest target, got %v", sig.BestRR)
	}
	if sig.RiskAmount <= 0 || sig.RiskPercent <= 0 {
		t.Fatalf("expected positive risk, got %+v", sig)
	}
	if sig.ATR <= 0 {
		t.Fatalf("expected positive ATR")
	}
	if sig.Support >= sig.Resistance {
		t.Fatalf("pivot support %v must sit below resistance %v", sig.Support, sig.Resistance)
	}
}

func TestGenerateSellSignalShape(t *testing.T) {
	gen := NewGenerator(permissiveAnalysis())
	up := trendingCandles(60, 0.2)
	candles := make([]models.Candle, len(up))
	for i, c := range up {
		v := 400 - c.Close
		candles[i] = models.Candle{
			Time: c.Time,
			Open: v + 0.1, High: v + 0.3, Low: v - 0.3, Close: v,
			Volume: c.Volume,
		}
	}
	pred := &models.Prediction{Signal: models.SideSell, Confidence: 80, Source: "test"}
	sig := gen.Generate("ETHUSDT", "1h", candles, pred, nil)
	if sig == nil {
		t.Fatalf("expected a signal")
	}
	if sig.Type != models.SideSell {
		t.Fatalf("expected SELL, got %v", sig.Type)
	}
	if sig.StopLoss <= sig.Entry {
		t.Fatalf("SELL stop must sit above entry: stop=%v entry=%v", sig.StopLoss, sig.Entry)
	}
	prev := sig.Entry
	for i, tgt := range sig.Targets {
		if tgt.Price >= prev {
			t.Fatalf("SELL targets must descend from entry, target %d = %v", i, tgt.Price)
		}
		prev = tgt.Price
	}
}

func TestConfluenceBreakdownTotal(t *testing.T) {
	b := ConfluenceBreakdown{
		Delta:            3,
		OrderBlock:       4,
		BreakerBlock:     5,
		FairValueGap:     3,
		LiquiditySweep:   4,
		Displacement:     3,
		PO3Distribution:  4,
		AMDDistribution:  3,
		BreakOfStructure: 2,
		KeyLevelRetest:   3,
	}
	if got := b.Total(); got != 34 {
		t.Fatalf("expected 34, got %d", got)
	}
	if (ConfluenceBreakdown{}).Total() != 0 {
		t.Fatalf("empty breakdown must total 0")
	}
}

// flatBullishCandles are identical bars closing at the high: a pure buy
// volume footprint with no gaps, sweeps, displacement or structure breaks,
// so only the detectors hand-fed below can contribute.
func flatBullishCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = models.Candle{
			Time: int64(i+1) * 60_000,
			Open: 100, High: 101, Low: 100, Close: 101,
			Volume: 10,
		}
	}
	return candles
}

func TestScoreConfluenceArithmetic(t *testing.T) {
	cfg := config.DefaultAnalysis()
	gen := NewGenerator(cfg)
	w := cfg.Weights

	candles := flatBullishCandles(20)
	// A bullish block spanning the current price and a pivot support within
	// half an ATR of the close.
	obs := smartmoney.OrderBlocks{
		Bullish: []smartmoney.OrderBlock{{Index: 5, Low: 100, High: 101, Strength: 2}},
	}
	pivots := indicators.PivotLevels{Support: [3]float64{100.8, 99, 98}}

	b := gen.Score(candles, obs, pivots, 2.0, true)

	// Every candle's volume lands on the buy side, so the 10-candle delta
	// strength is exactly 1.
	if b.Delta != w.DeltaStrong {
		t.Fatalf("expected delta %d, got %d", w.DeltaStrong, b.Delta)
	}
	if b.OrderBlock != w.OrderBlock {
		t.Fatalf("expected order block %d, got %d", w.OrderBlock, b.OrderBlock)
	}
	if b.KeyLevelRetest != w.KeyLevelRetest {
		t.Fatalf("expected key level retest %d, got %d", w.KeyLevelRetest, b.KeyLevelRetest)
	}
	if b.BreakerBlock != 0 || b.FairValueGap != 0 || b.LiquiditySweep != 0 ||
		b.Displacement != 0 || b.PO3Distribution != 0 || b.AMDDistribution != 0 ||
		b.BreakOfStructure != 0 {
		t.Fatalf("flat series fired an unexpected detector: %+v", b)
	}
	want := w.DeltaStrong + w.OrderBlock + w.KeyLevelRetest
	if b.Total() != want {
		t.Fatalf("expected total %d, got %d", want, b.Total())
	}

	// The same fixture scored against the wrong side keeps the directional
	// contributions at zero.
	bear := gen.Score(candles, obs, pivots, 2.0, false)
	if bear.Delta != 0 || bear.OrderBlock != 0 {
		t.Fatalf("bearish scoring of a bullish footprint must be zero: %+v", bear)
	}
}

func TestGenerateRejectsLowConfluence(t *testing.T) {
	cfg := permissiveAnalysis()
	candles := trendingCandles(60, 0.2)

	cfg.MinConfluence = 0
	if sig := NewGenerator(cfg).Generate("BTCUSDT", "15m", candles, buyPrediction(80), nil); sig == nil {
		t.Fatalf("expected a signal with the gate open")
	}

	// The weight table caps out well below this, so any setup must be
	// rejected by the confluence gate alone.
	cfg.MinConfluence = 50
	if sig := NewGenerator(cfg).Generate("BTCUSDT", "15m", candles, buyPrediction(80), nil); sig != nil {
		t.Fatalf("expected confluence gate to reject, got %+v", sig)
	}
}

func TestGenerateRejectsLowStrength(t *testing.T) {
	cfg := permissiveAnalysis()
	cfg.MinStrength = 55
	gen := NewGenerator(cfg)
	candles := trendingCandles(60, 0.2)
	if sig := gen.Generate("BTCUSDT", "15m", candles, buyPrediction(40), nil); sig != nil {
		t.Fatalf("expected strength gate to reject, got %+v", sig)
	}
}
