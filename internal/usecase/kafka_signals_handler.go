package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaSignalsHandler consumes published signal alerts and archives them
// in the signal store. Runs as a separate consumer group so alerting and
// archiving stay decoupled.
type KafkaSignalsHandler struct {
	topic   string
	store   domrepo.SignalStore
	metrics domrepo.Metrics
}

func NewKafkaSignalsHandler(topic string, store domrepo.SignalStore, metrics domrepo.Metrics) *KafkaSignalsHandler {
	return &KafkaSignalsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

// Handle decodes one alert payload. Schema matches the Kafka alert sink.
func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol     string  `json:"symbol"`
		Timeframe  string  `json:"timeframe"`
		TS         int64   `json:"ts"` // ms
		Side       string  `json:"side"`
		Strength   int     `json:"strength"`
		Confluence int     `json:"confluence"`
		Entry      float64 `json:"entry"`
		StopLoss   float64 `json:"stop_loss"`
		Targets    []struct {
			Price      float64 `json:"price"`
			RR         float64 `json:"rr"`
			Allocation float64 `json:"allocation"`
		} `json:"targets"`
		BestRR float64 `json:"best_rr"`
		ATR    float64 `json:"atr"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	h.metrics.RecordLatency("alert_e2e_seconds", time.Since(time.UnixMilli(m.TS)).Seconds())

	sig := &models.Signal{
		Symbol:     m.Symbol,
		Timeframe:  m.Timeframe,
		Timestamp:  time.UnixMilli(m.TS),
		Type:       models.Side(m.Side),
		Strength:   m.Strength,
		Confluence: m.Confluence,
		Entry:      m.Entry,
		StopLoss:   m.StopLoss,
		BestRR:     m.BestRR,
		ATR:        m.ATR,
	}
	for _, t := range m.Targets {
		sig.Targets = append(sig.Targets, models.Target{
			Price:             t.Price,
			RiskReward:        t.RR,
			AllocationPercent: t.Allocation,
		})
	}

	start := time.Now()
	if err := h.store.StoreSignal(ctx, sig); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("archive_insert_seconds", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
