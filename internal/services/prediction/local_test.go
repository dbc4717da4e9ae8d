package prediction

import (
	"context"
	"testing"

	"TradePulse/internal/domain/models"
)

func seriesFromCloses(closes []float64) []models.Candle {
	candles := make([]models.Candle, 0, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		high, low := open, c
		if c > open {
			high, low = c, open
		}
		candles = append(candles, models.Candle{
			Time:   int64(i+1) * 60_000,
			Open:   open,
			High:   high + 0.2,
			Low:    low - 0.2,
			Close:  c,
			Volume: 100,
		})
	}
	return candles
}

func rampCloses(n int, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + step*float64(i)
	}
	return closes
}

func TestLocalTechnicalAnalysisInsufficientData(t *testing.T) {
	pred := LocalTechnicalAnalysis(seriesFromCloses(rampCloses(10, 1)))
	if pred.Signal != models.SideNeutral || pred.Confidence != 50 {
		t.Fatalf("expected neutral at 50, got %+v", pred)
	}
	if pred.Source != "local" {
		t.Fatalf("expected local source tag, got %q", pred.Source)
	}
}

func TestLocalTechnicalAnalysisUptrend(t *testing.T) {
	// Price above SMA20 and SMA20 above SMA50 outvote the overbought RSI.
	pred := LocalTechnicalAnalysis(seriesFromCloses(rampCloses(60, 1)))
	if pred.Signal != models.SideBuy {
		t.Fatalf("expected BUY on a steady uptrend, got %+v", pred)
	}
	if pred.Confidence <= 50 {
		t.Fatalf("expected confidence above 50, got %v", pred.Confidence)
	}
}

func TestLocalTechnicalAnalysisDowntrend(t *testing.T) {
	pred := LocalTechnicalAnalysis(seriesFromCloses(rampCloses(60, -1)))
	if pred.Signal != models.SideSell {
		t.Fatalf("expected SELL on a steady downtrend, got %+v", pred)
	}
}

func TestLocalSourcePredict(t *testing.T) {
	src := NewLocalSource()
	pred, err := src.Predict(context.Background(), "BTCUSDT", seriesFromCloses(rampCloses(60, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Signal != models.SideBuy {
		t.Fatalf("expected BUY, got %+v", pred)
	}
}

func TestWindowPredictionInsufficientData(t *testing.T) {
	pred, filter := WindowPrediction(seriesFromCloses(rampCloses(19, 1)))
	if pred.Signal != models.SideNeutral || pred.Confidence != 50 {
		t.Fatalf("expected neutral at 50, got %+v", pred)
	}
	if filter.Bullish || filter.Confidence != 0 {
		t.Fatalf("expected zero trend filter, got %+v", filter)
	}
}

func TestWindowPredictionUptrend(t *testing.T) {
	pred, filter := WindowPrediction(seriesFromCloses(rampCloses(40, 1)))
	if pred.Signal != models.SideBuy {
		t.Fatalf("expected BUY, got %+v", pred)
	}
	if pred.Source != "window" {
		t.Fatalf("expected window source tag, got %q", pred.Source)
	}
	if pred.Confidence < 45 || pred.Confidence > 90 {
		t.Fatalf("confidence out of [45,90]: %v", pred.Confidence)
	}
	if !filter.Bullish {
		t.Fatalf("expected bullish filter, got %+v", filter)
	}
	if filter.Confidence != 1 {
		t.Fatalf("expected full confidence on all-up candles, got %v", filter.Confidence)
	}
}

func TestWindowPredictionDowntrend(t *testing.T) {
	pred, filter := WindowPrediction(seriesFromCloses(rampCloses(40, -1)))
	if pred.Signal != models.SideSell {
		t.Fatalf("expected SELL, got %+v", pred)
	}
	if filter.Bullish {
		t.Fatalf("expected bearish filter, got %+v", filter)
	}
}
