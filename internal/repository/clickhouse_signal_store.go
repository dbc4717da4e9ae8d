package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgch "TradePulse/pkg/clickhouse"
	applogger "TradePulse/pkg/logger"
)

// CHSignalStore persists generated signals and simulated trades in
// ClickHouse. Write-only from the engine's point of view; the tables feed
// offline analytics.
type CHSignalStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client) *CHSignalStore {
	return &CHSignalStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.SignalStore = (*CHSignalStore)(nil)

var schemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS tradepulse`,
	`CREATE TABLE IF NOT EXISTS tradepulse.signals (
        ts          DateTime64(3),
        symbol      LowCardinality(String),
        timeframe   LowCardinality(String),
        side        LowCardinality(String),
        strength    UInt8,
        confluence  UInt16,
        entry       Float64,
        stop_loss   Float64,
        tp1         Float64,
        tp2         Float64,
        tp3         Float64,
        best_rr     Float64,
        risk        Float64,
        atr         Float64,
        support     Float64,
        resistance  Float64
    ) ENGINE = MergeTree
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, timeframe, ts)`,
	`CREATE TABLE IF NOT EXISTS tradepulse.backtest_trades (
        ts             DateTime64(3),
        symbol         LowCardinality(String),
        timeframe      LowCardinality(String),
        side           LowCardinality(String),
        entry          Float64,
        exit           Float64,
        stop_loss      Float64,
        exit_reason    LowCardinality(String),
        profit         Float64,
        profit_percent Float64,
        candles_held   UInt32,
        realized_rr    Float64,
        entry_index    UInt32
    ) ENGINE = MergeTree
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, timeframe, ts)`,
}

// Init ensures the database and tables exist. Idempotent.
func (s *CHSignalStore) Init(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("signal store schema: %w", err)
		}
	}
	return nil
}

func (s *CHSignalStore) StoreSignal(ctx context.Context, sig *models.Signal) error {
	if sig == nil {
		return fmt.Errorf("store signal: nil signal")
	}
	start := time.Now()
	tps := make([]float64, 3)
	for i := 0; i < len(sig.Targets) && i < 3; i++ {
		tps[i] = sig.Targets[i].Price
	}
	const q = `INSERT INTO tradepulse.signals
        (ts, symbol, timeframe, side, strength, confluence, entry, stop_loss,
         tp1, tp2, tp3, best_rr, risk, atr, support, resistance)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		sig.Timestamp,
		sig.Symbol,
		sig.Timeframe,
		string(sig.Type),
		uint8(sig.Strength),
		uint16(sig.Confluence),
		sig.Entry,
		sig.StopLoss,
		tps[0], tps[1], tps[2],
		sig.BestRR,
		sig.RiskAmount,
		sig.ATR,
		sig.Support,
		sig.Resistance,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_signal error",
				applogger.String("symbol", sig.Symbol),
				applogger.String("tf", sig.Timeframe),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store signal: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse store_signal ok",
			applogger.String("symbol", sig.Symbol),
			applogger.String("tf", sig.Timeframe),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHSignalStore) StoreTrades(ctx context.Context, symbol string, tf domrepo.Timeframe, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	start := time.Now()
	// Multi-row VALUES to keep round-trips down; a full backtest ledger
	// fits well inside one chunk.
	const chunkSize = 2000
	now := time.Now()
	for lo := 0; lo < len(trades); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(trades) {
			hi = len(trades)
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*13)
		for _, t := range trades[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				now,
				symbol,
				string(tf),
				string(t.Type),
				t.Entry,
				t.Exit,
				t.StopLoss,
				string(t.ExitReason),
				t.Profit,
				t.ProfitPercent,
				uint32(t.CandlesHeld),
				t.RealizedRR,
				uint32(t.EntryIndex),
			)
		}
		q := "INSERT INTO tradepulse.backtest_trades (ts, symbol, timeframe, side, entry, exit, stop_loss, exit_reason, profit, profit_percent, candles_held, realized_rr, entry_index) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_trades error",
					applogger.String("symbol", symbol),
					applogger.String("tf", string(tf)),
					applogger.Int("rows", hi-lo),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store trades: %w", err)
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse store_trades ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(trades)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSignalStore) Close() error {
	return nil // pool owned by pkg/clickhouse client
}
