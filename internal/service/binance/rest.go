package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/service/ratelimit"
	xhttp "TradePulse/pkg/http"
)

// RestSource fetches historical klines from the Binance spot REST API.
// Requests above the per-call limit are paginated backwards by endTime,
// with a token-bucket limiter between calls.
type RestSource struct {
	baseURL    string
	maxPerCall int
	delay      time.Duration
	client     *xhttp.Client
	limiter    *ratelimit.Limiter
}

// NewRestSource creates a Binance candle source.
func NewRestSource(baseURL string, maxPerCall int, rateLimitDelay, requestTimeout time.Duration) drepo.CandleSource {
	if maxPerCall <= 0 {
		maxPerCall = 1000
	}
	return &RestSource{
		baseURL:    baseURL,
		maxPerCall: maxPerCall,
		delay:      rateLimitDelay,
		client:     xhttp.NewClient(xhttp.WithTimeout(requestTimeout)),
		limiter:    ratelimit.New(),
	}
}

// MaxPerCall is the upstream per-request kline limit.
func (s *RestSource) MaxPerCall() int { return s.maxPerCall }

// Candles returns up to count closed klines ordered ascending by open time.
func (s *RestSource) Candles(ctx context.Context, symbol string, tf drepo.Timeframe, count int) ([]models.Candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("binance: symbol required")
	}
	if !drepo.IsValidTimeframe(tf) {
		return nil, fmt.Errorf("binance: invalid timeframe %q", tf)
	}
	if count <= 0 {
		return nil, fmt.Errorf("binance: count must be positive")
	}

	out := make([]models.Candle, 0, count)
	var endTime int64 // 0 means "now" on the first page

	for len(out) < count {
		limit := count - len(out)
		if limit > s.maxPerCall {
			limit = s.maxPerCall
		}
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		page, err := s.fetchPage(ctx, symbol, tf, limit, endTime)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break // history exhausted
		}
		out = append(page, out...)
		endTime = page[0].Time - 1
		if len(page) < limit {
			break
		}
	}

	if err := models.ValidateSeries(out); err != nil {
		return nil, fmt.Errorf("binance: upstream series: %w", err)
	}
	return out, nil
}

func (s *RestSource) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	refill := 1.0 / s.delay.Seconds()
	for !s.limiter.Allow("klines", 2, refill) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay / 4):
		}
	}
	return nil
}

func (s *RestSource) fetchPage(ctx context.Context, symbol string, tf drepo.Timeframe, limit int, endTime int64) ([]models.Candle, error) {
	params := map[string][]string{
		"symbol":   {symbol},
		"interval": {string(tf)},
		"limit":    {strconv.Itoa(limit)},
	}
	if endTime > 0 {
		params["endTime"] = []string{strconv.FormatInt(endTime, 10)}
	}

	var rows [][]json.RawMessage
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         s.baseURL + "/api/v3/klines",
		QueryParams: params,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", symbol, tf, err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		c, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// parseKline decodes one Binance kline row. The upstream format is a
// positional array: open time, then OHLCV as decimal strings.
func parseKline(row []json.RawMessage) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("kline row too short: %d fields", len(row))
	}
	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return models.Candle{}, fmt.Errorf("open time: %w", err)
	}
	vals := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(row[i], &s); err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i-1] = f
	}
	return models.Candle{
		Time:   openTime,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
