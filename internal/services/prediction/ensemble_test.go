package prediction

import (
	"context"
	"errors"
	"testing"

	"TradePulse/internal/domain/models"
)

type stubSource struct {
	pred models.Prediction
	err  error
}

func (s stubSource) Predict(context.Context, string, []models.Candle) (models.Prediction, error) {
	return s.pred, s.err
}

func fixed(side models.Side, conf float64) stubSource {
	return stubSource{pred: models.Prediction{Signal: side, Confidence: conf, Source: "stub"}}
}

func TestEnsembleWeightedMajority(t *testing.T) {
	e := NewEnsemble(
		WeightedSource{Source: fixed(models.SideBuy, 80), Weight: 2},
		WeightedSource{Source: fixed(models.SideSell, 90), Weight: 1},
	)
	pred, err := e.Predict(context.Background(), "BTCUSDT", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// buy = 0.8*2/3 = 0.533, sell = 0.9*1/3 = 0.3
	if pred.Signal != models.SideBuy {
		t.Fatalf("expected BUY majority, got %+v", pred)
	}
	if pred.Confidence != 53 {
		t.Fatalf("expected rounded confidence 53, got %v", pred.Confidence)
	}
	if pred.Source != "ensemble" {
		t.Fatalf("expected ensemble source tag, got %q", pred.Source)
	}
}

func TestEnsembleLowConvictionIsNeutral(t *testing.T) {
	e := NewEnsemble(
		WeightedSource{Source: fixed(models.SideBuy, 55), Weight: 1},
		WeightedSource{Source: fixed(models.SideSell, 55), Weight: 1},
	)
	pred, err := e.Predict(context.Background(), "BTCUSDT", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Signal != models.SideNeutral {
		t.Fatalf("expected neutral on a split vote, got %+v", pred)
	}
}

func TestEnsembleSkipsFailingSource(t *testing.T) {
	failing := stubSource{err: errors.New("service down")}
	e := NewEnsemble(
		WeightedSource{Source: failing, Weight: 5},
		WeightedSource{Source: fixed(models.SideSell, 90), Weight: 1},
	)
	pred, err := e.Predict(context.Background(), "BTCUSDT", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Signal != models.SideSell {
		t.Fatalf("expected surviving source to win, got %+v", pred)
	}
}

func TestEnsembleAllFailedFallsBackToLocal(t *testing.T) {
	failing := stubSource{err: errors.New("service down")}
	e := NewEnsemble(WeightedSource{Source: failing, Weight: 1})
	pred, err := e.Predict(context.Background(), "BTCUSDT", seriesFromCloses(rampCloses(60, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Source != "local" {
		t.Fatalf("expected local fallback, got %+v", pred)
	}
	if pred.Signal != models.SideBuy {
		t.Fatalf("expected BUY from the local vote, got %+v", pred)
	}
}
