package structure

import (
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

func TestParamsForTimeframe(t *testing.T) {
	p := ParamsForTimeframe(repository.TF1m)
	if p.Lookback != 30 || p.SwingWindow != 2 || p.MomentumPeriod != 5 {
		t.Fatalf("unexpected 1m params %+v", p)
	}
	p = ParamsForTimeframe(repository.Timeframe("2h"))
	if p.Lookback != 50 || p.SwingWindow != 4 || p.MomentumPeriod != 12 {
		t.Fatalf("unexpected default params %+v", p)
	}
}

func TestSwingsSinglePeak(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 14, 15, 14, 13, 12, 11, 10}
	candles := make([]models.Candle, len(highs))
	for i, h := range highs {
		candles[i] = models.Candle{
			Time: int64(i+1) * 60_000,
			Open: h - 0.5, High: h, Low: h - 1, Close: h - 0.2,
			Volume: 100,
		}
	}
	swingHighs, swingLows := Swings(candles, 2)
	if len(swingHighs) != 1 {
		t.Fatalf("expected one swing high, got %d", len(swingHighs))
	}
	if swingHighs[0].Index != 5 || swingHighs[0].Price != 15 {
		t.Fatalf("unexpected swing high %+v", swingHighs[0])
	}
	if len(swingLows) != 0 {
		t.Fatalf("expected no swing lows, got %d", len(swingLows))
	}
}

// zigzag builds a rising triangle wave so swing highs and lows both step
// upward, a textbook uptrend structure.
func zigzag(n int, drift float64) []models.Candle {
	tri := []float64{0, 1, 2, 3, 2, 1, 0, -1}
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		v := 100 + drift*float64(i) + tri[i%len(tri)]
		candles[i] = models.Candle{
			Time: int64(i+1) * 60_000,
			Open: v - 0.1, High: v + 0.3, Low: v - 0.3, Close: v,
			Volume: 100,
		}
	}
	return candles
}

func TestAnalyzeInsufficientData(t *testing.T) {
	if got := Analyze(zigzag(29, 0.2), ParamsForTimeframe(repository.TF15m)); got != nil {
		t.Fatalf("expected nil below 30 candles, got %+v", got)
	}
}

func TestAnalyzeUptrend(t *testing.T) {
	candles := zigzag(60, 0.2)
	ms := Analyze(candles, Params{Lookback: 60, SwingWindow: 2, MomentumPeriod: 10})
	if ms == nil {
		t.Fatalf("expected structure")
	}
	if ms.Phase != models.PhaseUptrend {
		t.Fatalf("expected uptrend, got %v", ms.Phase)
	}
	if ms.SwingHighCount < 2 || ms.SwingLowCount < 2 {
		t.Fatalf("expected multiple swings, got %d/%d", ms.SwingHighCount, ms.SwingLowCount)
	}
	if ms.Momentum <= 0 {
		t.Fatalf("expected positive momentum, got %v", ms.Momentum)
	}
	if ms.TrendStrength <= 0 {
		t.Fatalf("expected positive trend strength, got %v", ms.TrendStrength)
	}
	// Price closed beyond the last swing high, so the position ratio
	// exceeds 1 and classifies as resistance.
	if ms.PricePosition <= 0.9 {
		t.Fatalf("expected price near the top of the range, got %v", ms.PricePosition)
	}
	if ms.KeyLevel != models.LevelResistance {
		t.Fatalf("expected resistance key level, got %v", ms.KeyLevel)
	}
}

func TestAnalyzeDowntrend(t *testing.T) {
	up := zigzag(60, 0.2)
	candles := make([]models.Candle, len(up))
	for i, c := range up {
		mirrored := 400 - c.Close
		candles[i] = models.Candle{
			Time: c.Time,
			Open: mirrored + 0.1, High: mirrored + 0.3, Low: mirrored - 0.3, Close: mirrored,
			Volume: 100,
		}
	}
	ms := Analyze(candles, Params{Lookback: 60, SwingWindow: 2, MomentumPeriod: 10})
	if ms == nil {
		t.Fatalf("expected structure")
	}
	if ms.Phase != models.PhaseDowntrend {
		t.Fatalf("expected downtrend, got %v", ms.Phase)
	}
	if ms.Momentum >= 0 {
		t.Fatalf("expected negative momentum, got %v", ms.Momentum)
	}
}

func TestAnalyzeRangingFlat(t *testing.T) {
	candles := zigzag(60, 0)
	ms := Analyze(candles, Params{Lookback: 60, SwingWindow: 2, MomentumPeriod: 10})
	if ms == nil {
		t.Fatalf("expected structure")
	}
	if ms.Phase != models.PhaseRanging {
		t.Fatalf("expected ranging on flat zigzag, got %v", ms.Phase)
	}
}
