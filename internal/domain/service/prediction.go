package service

import (
	"context"

	"TradePulse/internal/domain/models"
)

// PredictionSource produces a directional call for a candle window. The
// core consumes any implementation satisfying this shape; it is not
// responsible for how the call is computed.
type PredictionSource interface {
	Predict(ctx context.Context, symbol string, candles []models.Candle) (models.Prediction, error)
}
