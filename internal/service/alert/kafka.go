package alert

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaSink publishes finalized signals to a Kafka topic, keyed by symbol
// so per-symbol ordering is preserved.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSink(producer *pkgkafka.Producer, topic string) drepo.AlertSink {
	return &KafkaSink{producer: producer, topic: topic}
}

var _ drepo.AlertSink = (*KafkaSink)(nil)

func (s *KafkaSink) Notify(ctx context.Context, sig *models.Signal) error {
	if sig == nil {
		return fmt.Errorf("alert: nil signal")
	}
	targets := make([]map[string]interface{}, 0, len(sig.Targets))
	for _, t := range sig.Targets {
		targets = append(targets, map[string]interface{}{
			"price":      t.Price,
			"rr":         t.RiskReward,
			"allocation": t.AllocationPercent,
		})
	}
	payload := map[string]interface{}{
		"symbol":     sig.Symbol,
		"timeframe":  sig.Timeframe,
		"ts":         sig.Timestamp.UnixMilli(),
		"side":       string(sig.Type),
		"strength":   sig.Strength,
		"confluence": sig.Confluence,
		"entry":      sig.Entry,
		"stop_loss":  sig.StopLoss,
		"targets":    targets,
		"best_rr":    sig.BestRR,
		"atr":        sig.ATR,
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(sig.Symbol), payload); err != nil {
		return fmt.Errorf("alert publish: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
