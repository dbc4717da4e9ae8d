package prediction

import (
	"context"
	"math"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
)

// WeightedSource is a prediction source with its vote weight in the
// ensemble.
type WeightedSource struct {
	Source domsvc.PredictionSource
	Weight float64
}

// Ensemble combines several prediction sources by confidence-weighted
// voting. A failing source is skipped, not fatal; when every source fails
// the local fallback answers.
type Ensemble struct {
	sources  []WeightedSource
	fallback *LocalSource
}

func NewEnsemble(sources ...WeightedSource) *Ensemble {
	return &Ensemble{sources: sources, fallback: NewLocalSource()}
}

func (e *Ensemble) Predict(ctx context.Context, symbol string, candles []models.Candle) (models.Prediction, error) {
	type vote struct {
		pred   models.Prediction
		weight float64
	}
	votes := make([]vote, 0, len(e.sources))
	for _, ws := range e.sources {
		p, err := ws.Source.Predict(ctx, symbol, candles)
		if err != nil {
			continue
		}
		w := ws.Weight
		if w <= 0 {
			w = 1.0
		}
		votes = append(votes, vote{pred: p, weight: w})
	}
	if len(votes) == 0 {
		return e.fallback.Predict(ctx, symbol, candles)
	}

	var buyScore, sellScore, totalWeight float64
	for _, v := range votes {
		conf := v.pred.Confidence / 100
		switch v.pred.Signal {
		case models.SideBuy:
			buyScore += conf * v.weight
		case models.SideSell:
			sellScore += conf * v.weight
		}
		totalWeight += v.weight
	}
	buyScore /= totalWeight
	sellScore /= totalWeight

	switch {
	case buyScore > sellScore && buyScore > 0.5:
		return models.Prediction{Signal: models.SideBuy, Confidence: math.Round(buyScore * 100), Source: "ensemble"}, nil
	case sellScore > buyScore && sellScore > 0.5:
		return models.Prediction{Signal: models.SideSell, Confidence: math.Round(sellScore * 100), Source: "ensemble"}, nil
	default:
		conf := 50 + math.Round(math.Abs(buyScore-sellScore)*50)
		return models.Prediction{Signal: models.SideNeutral, Confidence: conf, Source: "ensemble"}, nil
	}
}

var _ domsvc.PredictionSource = (*Ensemble)(nil)
