package repository

import (
	"context"

	"TradePulse/internal/domain/models"
)

// CandleSource supplies ordered historical candles for a symbol and
// timeframe. Implementations may need several paginated upstream calls for
// long ranges and must honor the exchange rate limit between them.
type CandleSource interface {
	// Candles returns up to count bars ordered ascending by time, the most
	// recent bar last.
	Candles(ctx context.Context, symbol string, tf Timeframe, count int) ([]models.Candle, error)
	// MaxPerCall is the upstream per-request candle limit.
	MaxPerCall() int
}

// CandleStream delivers closed live candles for a symbol/timeframe.
type CandleStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.Candle, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// AlertSink receives finalized signals for delivery. Fire-and-forget: it
// must not block signal generation and its failure never invalidates the
// signal.
type AlertSink interface {
	Notify(ctx context.Context, s *models.Signal) error
	Close() error
}

// SignalStore persists signals and simulated trades for analytics. The
// core never reads back from it.
type SignalStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreSignal(ctx context.Context, s *models.Signal) error
	StoreTrades(ctx context.Context, symbol string, tf Timeframe, trades []models.Trade) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational counters for the engine.
type Metrics interface {
	RecordSignal(symbol, side string)
	RecordTrade(symbol, exitReason string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
