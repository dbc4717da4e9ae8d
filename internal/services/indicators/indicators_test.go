package indicators

import (
	"math"
	"testing"

	"TradePulse/internal/domain/models"
)

func closesToCandles(closes []float64) []models.Candle {
	candles := make([]models.Candle, 0, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		high := math.Max(open, c) + 0.5
		low := math.Min(open, c) - 0.5
		candles = append(candles, models.Candle{
			Time:   int64(i+1) * 60_000,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  c,
			Volume: 100,
		})
	}
	return candles
}

func TestRSIInsufficientData(t *testing.T) {
	candles := closesToCandles([]float64{1, 2, 3})
	if got := RSI(candles, 14); got != 50 {
		t.Fatalf("expected neutral 50, got %v", got)
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if got := RSI(closesToCandles(closes), 14); got != 100 {
		t.Fatalf("expected 100 with zero losses, got %v", got)
	}
}

func TestRSIMixedBounded(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i%3)
	}
	got := RSI(closesToCandles(closes), 14)
	if got <= 0 || got >= 100 {
		t.Fatalf("expected RSI in (0,100), got %v", got)
	}
}

func TestSMADegenerate(t *testing.T) {
	if got := SMA(nil, 20); got != 0 {
		t.Fatalf("expected 0 on empty input, got %v", got)
	}
	candles := closesToCandles([]float64{10, 11, 12})
	if got := SMA(candles, 20); got != 12 {
		t.Fatalf("expected last close fallback, got %v", got)
	}
}

func TestSMAMean(t *testing.T) {
	candles := closesToCandles([]float64{1, 2, 3, 4, 10, 20, 30})
	if got := SMA(candles, 3); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}
}

func TestATRInsufficientData(t *testing.T) {
	candles := closesToCandles(make([]float64, 14))
	if _, ok := ATR(candles, 14); ok {
		t.Fatalf("expected ok=false with %d candles", len(candles))
	}
}

func TestATRConstantRange(t *testing.T) {
	candles := make([]models.Candle, 20)
	for i := range candles {
		candles[i] = models.Candle{
			Time: int64(i+1) * 60_000,
			Open: 10, High: 11, Low: 9, Close: 10,
			Volume: 100,
		}
	}
	atr, ok := ATR(candles, 14)
	if !ok {
		t.Fatalf("expected ok")
	}
	if math.Abs(atr-2) > 1e-9 {
		t.Fatalf("expected ATR 2, got %v", atr)
	}
}

func TestPivotsInsufficientData(t *testing.T) {
	candles := closesToCandles([]float64{1, 2, 3})
	if _, ok := Pivots(candles); ok {
		t.Fatalf("expected ok=false")
	}
}

func TestPivotsOrdering(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + 3*math.Sin(float64(i)/4)
	}
	p, ok := Pivots(closesToCandles(closes))
	if !ok {
		t.Fatalf("expected ok")
	}
	levels := []float64{
		p.Support[2], p.Support[1], p.Support[0],
		p.Pivot,
		p.Resistance[0], p.Resistance[1], p.Resistance[2],
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] <= levels[i-1] {
			t.Fatalf("levels not ascending at %d: %v", i, levels)
		}
	}
}

func TestFibonacciLevels(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i%10)
	}
	candles := closesToCandles(closes)
	fib, ok := Fibonacci(candles)
	if !ok {
		t.Fatalf("expected ok")
	}
	if fib.Level0 <= fib.Level100 {
		t.Fatalf("expected Level0 above Level100: %v vs %v", fib.Level0, fib.Level100)
	}
	levels := []float64{fib.Level0, fib.Level236, fib.Level382, fib.Level500, fib.Level618, fib.Level786, fib.Level100}
	for i := 1; i < len(levels); i++ {
		if levels[i] >= levels[i-1] {
			t.Fatalf("retracement levels not descending at %d: %v", i, levels)
		}
	}
	mid := (fib.Level0 + fib.Level100) / 2
	if math.Abs(fib.Level500-mid) > 1e-9 {
		t.Fatalf("Level500 should sit midway, got %v want %v", fib.Level500, mid)
	}
}
