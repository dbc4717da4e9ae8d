package indicators

import (
	"math"
	"testing"

	"TradePulse/internal/domain/models"
)

func TestVolumeDeltaBullishCloseAtHigh(t *testing.T) {
	c := models.Candle{Open: 10, High: 12, Low: 10, Close: 12, Volume: 100}
	buy, sell := VolumeDelta(c)
	if math.Abs(buy-100) > 1e-9 || math.Abs(sell) > 1e-9 {
		t.Fatalf("expected all buy volume, got buy=%v sell=%v", buy, sell)
	}
}

func TestVolumeDeltaBearishCloseAtLow(t *testing.T) {
	c := models.Candle{Open: 12, High: 12, Low: 10, Close: 10, Volume: 100}
	buy, sell := VolumeDelta(c)
	if math.Abs(sell-100) > 1e-9 || math.Abs(buy) > 1e-9 {
		t.Fatalf("expected all sell volume, got buy=%v sell=%v", buy, sell)
	}
}

func TestVolumeDeltaConserved(t *testing.T) {
	c := models.Candle{Open: 10, High: 13, Low: 9, Close: 11, Volume: 250}
	buy, sell := VolumeDelta(c)
	if math.Abs(buy+sell-250) > 1e-9 {
		t.Fatalf("buy+sell must equal volume: %v", buy+sell)
	}
}

func TestCumulativeDeltaStrengthBounds(t *testing.T) {
	candles := make([]models.Candle, 10)
	for i := range candles {
		candles[i] = models.Candle{
			Time: int64(i+1) * 60_000,
			Open: 10, High: 12, Low: 10, Close: 12,
			Volume: 50,
		}
	}
	info := CumulativeDelta(candles, 10)
	if info.Delta <= 0 {
		t.Fatalf("expected positive delta on pure buying, got %v", info.Delta)
	}
	if info.Strength < 0 || info.Strength > 1 {
		t.Fatalf("strength out of [0,1]: %v", info.Strength)
	}
	if math.Abs(info.Strength-1) > 1e-9 {
		t.Fatalf("expected strength 1 on one-sided flow, got %v", info.Strength)
	}
}

func TestCumulativeDeltaNoVolume(t *testing.T) {
	candles := []models.Candle{{Time: 1, Open: 10, High: 10, Low: 10, Close: 10}}
	info := CumulativeDelta(candles, 10)
	if info.Delta != 0 || info.Strength != 0 {
		t.Fatalf("expected zero info, got %+v", info)
	}
}

func TestProfileEmpty(t *testing.T) {
	p := Profile(nil)
	if p != (models.VolumeProfile{}) {
		t.Fatalf("expected zero profile, got %+v", p)
	}
}

func TestProfileVolatilityBuckets(t *testing.T) {
	candles := make([]models.Candle, 31)
	for i := range candles {
		candles[i] = models.Candle{
			Time: int64(i+1) * 60_000,
			Open: 100, High: 101, Low: 99, Close: 100.5,
			Volume: 100,
		}
	}
	candles[len(candles)-1].Volume = 300
	p := Profile(candles)
	if p.VolatilityLevel != models.VolatilityHigh {
		t.Fatalf("expected high volatility, got %v", p.VolatilityLevel)
	}
	if p.VolumeRatio <= 1.5 {
		t.Fatalf("expected ratio above 1.5, got %v", p.VolumeRatio)
	}
	if p.AvgHeight <= 0 || p.ATR <= 0 {
		t.Fatalf("expected positive geometry, got %+v", p)
	}
}
