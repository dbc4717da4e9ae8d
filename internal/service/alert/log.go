package alert

import (
	"context"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	applogger "TradePulse/pkg/logger"
)

// LogSink writes signals to the structured log. Used when Kafka is
// disabled and as a local development sink.
type LogSink struct {
	l *applogger.Logger
}

func NewLogSink(l *applogger.Logger) drepo.AlertSink {
	return &LogSink{l: l}
}

func (s *LogSink) Notify(_ context.Context, sig *models.Signal) error {
	if sig == nil {
		return nil
	}
	s.l.Info("signal",
		applogger.String("symbol", sig.Symbol),
		applogger.String("tf", sig.Timeframe),
		applogger.String("side", string(sig.Type)),
		applogger.Int("strength", sig.Strength),
		applogger.Int("confluence", sig.Confluence),
		applogger.Any("entry", sig.Entry),
		applogger.Any("stop_loss", sig.StopLoss),
		applogger.Any("best_rr", sig.BestRR),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }

// Fanout delivers every signal to all child sinks. Delivery errors are
// counted per sink but never propagated past the first failure report.
type Fanout struct {
	sinks []drepo.AlertSink
}

func NewFanout(sinks ...drepo.AlertSink) drepo.AlertSink {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Notify(ctx context.Context, sig *models.Signal) error {
	var first error
	for _, s := range f.sinks {
		if err := s.Notify(ctx, sig); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *Fanout) Close() error {
	var first error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
