package prediction

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/pkg/config"
)

// HTTPSource queries an external prediction service over HTTP. It is one
// of several sources the ensemble can weigh; the engine never depends on
// it being available.
type HTTPSource struct {
	base *HTTPServiceBase
}

func NewHTTPSource(cfg *config.Config) *HTTPSource {
	return &HTTPSource{base: NewHTTPServiceBase(cfg)}
}

type predictReq struct {
	Symbol  string       `json:"symbol"`
	Candles []candleJSON `json:"candles"`
}

type candleJSON struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type predictResp struct {
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
}

func (s *HTTPSource) Predict(ctx context.Context, symbol string, candles []models.Candle) (models.Prediction, error) {
	req := predictReq{Symbol: symbol, Candles: make([]candleJSON, 0, len(candles))}
	for _, c := range candles {
		req.Candles = append(req.Candles, candleJSON{
			Time: c.Time, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume,
		})
	}
	var pr predictResp
	if err := s.base.PostJSONWithRetry(ctx, "/predict", req, &pr, 3); err != nil {
		return models.Prediction{}, fmt.Errorf("post predict: %w", err)
	}
	side := models.Side(pr.Signal)
	switch side {
	case models.SideBuy, models.SideSell, models.SideNeutral:
	default:
		return models.Prediction{}, fmt.Errorf("predict: unknown signal %q", pr.Signal)
	}
	return models.Prediction{Signal: side, Confidence: pr.Confidence, Source: "http"}, nil
}

var _ domsvc.PredictionSource = (*HTTPSource)(nil)
