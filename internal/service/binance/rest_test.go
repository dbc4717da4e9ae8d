package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	drepo "TradePulse/internal/domain/repository"
)

func klineRow(openTime int64) []interface{} {
	return []interface{}{openTime, "1.0", "2.0", "0.5", "1.5", "42.0"}
}

// klinesServer serves a fixed ascending series the way the upstream does:
// the last `limit` rows at or before endTime.
type klinesServer struct {
	times    []int64
	mu       sync.Mutex
	requests []pageReq
}

type pageReq struct {
	limit   int
	endTime int64
}

func (s *klinesServer) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	var endTime int64
	if v := q.Get("endTime"); v != "" {
		endTime, _ = strconv.ParseInt(v, 10, 64)
	}
	s.mu.Lock()
	s.requests = append(s.requests, pageReq{limit: limit, endTime: endTime})
	s.mu.Unlock()

	var eligible []int64
	for _, ts := range s.times {
		if endTime == 0 || ts <= endTime {
			eligible = append(eligible, ts)
		}
	}
	if len(eligible) > limit {
		eligible = eligible[len(eligible)-limit:]
	}
	rows := make([][]interface{}, 0, len(eligible))
	for _, ts := range eligible {
		rows = append(rows, klineRow(ts))
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		panic(err)
	}
}

func TestCandlesSinglePage(t *testing.T) {
	srv := &klinesServer{times: []int64{1000, 2000, 3000, 4000, 5000}}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer ts.Close()

	src := NewRestSource(ts.URL, 1000, 0, time.Second)
	candles, err := src.Candles(context.Background(), "BTCUSDT", drepo.TF15m, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	if candles[0].Time != 3000 || candles[2].Time != 5000 {
		t.Fatalf("expected the most recent candles in order, got %+v", candles)
	}
	if candles[0].Open != 1 || candles[0].High != 2 || candles[0].Low != 0.5 || candles[0].Close != 1.5 || candles[0].Volume != 42 {
		t.Fatalf("kline fields wrong: %+v", candles[0])
	}
}

func TestCandlesPaginatesBackwards(t *testing.T) {
	srv := &klinesServer{times: []int64{1000, 2000, 3000, 4000, 5000}}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer ts.Close()

	src := NewRestSource(ts.URL, 3, 0, time.Second)
	candles, err := src.Candles(context.Background(), "BTCUSDT", drepo.TF15m, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 5 {
		t.Fatalf("expected 5 candles, got %d", len(candles))
	}
	for i, want := range []int64{1000, 2000, 3000, 4000, 5000} {
		if candles[i].Time != want {
			t.Fatalf("candle %d time %d, want %d", i, candles[i].Time, want)
		}
	}
	if len(srv.requests) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(srv.requests))
	}
	// Second page must end just before the first page's oldest candle.
	if srv.requests[1].endTime != 2999 {
		t.Fatalf("expected endTime 2999, got %d", srv.requests[1].endTime)
	}
}

func TestCandlesHistoryExhausted(t *testing.T) {
	srv := &klinesServer{times: []int64{1000, 2000}}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer ts.Close()

	src := NewRestSource(ts.URL, 1000, 0, time.Second)
	candles, err := src.Candles(context.Background(), "BTCUSDT", drepo.TF15m, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected all available candles, got %d", len(candles))
	}
}

func TestCandlesRejectsBadArguments(t *testing.T) {
	src := NewRestSource("http://localhost:0", 1000, 0, time.Second)
	if _, err := src.Candles(context.Background(), "", drepo.TF15m, 10); err == nil {
		t.Fatalf("expected error on empty symbol")
	}
	if _, err := src.Candles(context.Background(), "BTCUSDT", drepo.Timeframe("7m"), 10); err == nil || !strings.Contains(err.Error(), "timeframe") {
		t.Fatalf("expected invalid timeframe error, got %v", err)
	}
	if _, err := src.Candles(context.Background(), "BTCUSDT", drepo.TF15m, 0); err == nil {
		t.Fatalf("expected error on non-positive count")
	}
}

func TestCandlesUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	src := NewRestSource(ts.URL, 1000, 0, time.Second)
	if _, err := src.Candles(context.Background(), "NOPEUSDT", drepo.TF15m, 10); err == nil {
		t.Fatalf("expected upstream error")
	}
}

func TestParseKline(t *testing.T) {
	raw, err := json.Marshal(klineRow(1700000000000))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var row []json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	c, err := parseKline(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Time != 1700000000000 || c.Open != 1 || c.Close != 1.5 {
		t.Fatalf("unexpected candle %+v", c)
	}
}

func TestParseKlineShortRow(t *testing.T) {
	row := []json.RawMessage{json.RawMessage("1000")}
	if _, err := parseKline(row); err == nil {
		t.Fatalf("expected error on short row")
	}
}

func TestParseKlineBadDecimal(t *testing.T) {
	raw, _ := json.Marshal([]interface{}{int64(1000), "1.0", "oops", "0.5", "1.5", "42.0"})
	var row []json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := parseKline(row); err == nil {
		t.Fatalf("expected error on malformed decimal")
	}
}
