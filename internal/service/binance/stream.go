package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a CandleStream backed by the Binance kline WebSocket.
// Only closed candles are forwarded; the in-progress bar is dropped.
type Stream struct {
	websocketURL   string
	symbol         string
	tf             drepo.Timeframe
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// NewStream creates a kline stream for one symbol/timeframe pair.
func NewStream(websocketURL, symbol string, tf drepo.Timeframe, reconnectDelay time.Duration) drepo.CandleStream {
	return &Stream{
		websocketURL:   websocketURL,
		symbol:         symbol,
		tf:             tf,
		reconnectDelay: reconnectDelay,
		pingInterval:   3 * time.Minute,
	}
}

// Connect dials the combined-stream endpoint for the kline channel.
func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s/ws/%s@kline_%s", s.websocketURL, strings.ToLower(s.symbol), s.tf)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("binance stream connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	return nil
}

type wsKline struct {
	StartTime int64  `json:"t"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

type wsMessage struct {
	EventType string  `json:"e"`
	Kline     wsKline `json:"k"`
}

// Read streams closed candles and errors. Channels close when the read
// loop exits; callers Reconnect and Read again.
func (s *Stream) Read(ctx context.Context) (<-chan models.Candle, <-chan error) {
	candles := make(chan models.Candle, 64)
	errs := make(chan error, 1)
	done := make(chan struct{}) // closed when the read loop exits

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PongMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(done)
		defer close(candles)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("binance stream conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance stream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					continue // ignore non-kline frames
				}
				if m.EventType != "kline" || !m.Kline.Closed {
					continue
				}
				c, err := m.Kline.toCandle()
				if err != nil {
					continue
				}
				select {
				case candles <- c:
				default:
					// drop on backpressure; history refetch recovers gaps
				}
			}
		}
	}()

	return candles, errs
}

func (k wsKline) toCandle() (models.Candle, error) {
	var (
		c   models.Candle
		err error
	)
	c.Time = k.StartTime
	if c.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return c, err
	}
	if c.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return c, err
	}
	if c.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return c, err
	}
	if c.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return c, err
	}
	c.Volume, err = strconv.ParseFloat(k.Volume, 64)
	return c, err
}

// Reconnect closes and re-dials after the configured delay.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	return s.Connect(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
