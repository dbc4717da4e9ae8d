package prediction

import (
	"context"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/services/indicators"
)

// LocalSource is the offline fallback: an RSI / moving-average vote that
// needs nothing but the window itself. Used whenever no external
// prediction service is configured or reachable.
type LocalSource struct{}

func NewLocalSource() *LocalSource { return &LocalSource{} }

func (s *LocalSource) Predict(_ context.Context, _ string, candles []models.Candle) (models.Prediction, error) {
	return LocalTechnicalAnalysis(candles), nil
}

// LocalTechnicalAnalysis votes three indicators: RSI extremes, the
// SMA20/SMA50 crossover, and price versus SMA20. Fewer than 14 candles is
// insufficient evidence and yields NEUTRAL at confidence 50.
func LocalTechnicalAnalysis(candles []models.Candle) models.Prediction {
	if len(candles) < 14 {
		return models.Prediction{Signal: models.SideNeutral, Confidence: 50, Source: "local"}
	}

	rsi := indicators.RSI(candles, indicators.DefaultRSIPeriod)
	sma20 := indicators.SMA(candles, 20)
	sma50 := indicators.SMA(candles, 50)
	currentPrice := candles[len(candles)-1].Close

	buySignals, sellSignals := 0, 0

	if rsi < 30 {
		buySignals++
	} else if rsi > 70 {
		sellSignals++
	}

	if sma20 > sma50 {
		buySignals++
	} else {
		sellSignals++
	}

	if currentPrice > sma20 {
		buySignals++
	} else {
		sellSignals++
	}

	buyRatio := float64(buySignals) / 3

	switch {
	case buyRatio > 0.6:
		return models.Prediction{Signal: models.SideBuy, Confidence: buyRatio * 100, Source: "local"}
	case buyRatio < 0.4:
		return models.Prediction{Signal: models.SideSell, Confidence: (1 - buyRatio) * 100, Source: "local"}
	default:
		return models.Prediction{Signal: models.SideNeutral, Confidence: 50, Source: "local"}
	}
}

var _ domsvc.PredictionSource = (*LocalSource)(nil)
