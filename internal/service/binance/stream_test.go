package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	drepo "TradePulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// klineServer upgrades one connection, writes the given frames, then
// closes the socket.
func klineServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				break
			}
		}
		conn.Close()
	}))
}

func TestStreamDeliversOnlyClosedKlines(t *testing.T) {
	open := `{"e":"kline","k":{"t":60000,"o":"1.0","h":"2.0","l":"0.5","c":"1.5","v":"42.0","x":false}}`
	closed := `{"e":"kline","k":{"t":120000,"o":"1.5","h":"2.5","l":"1.0","c":"2.0","v":"10.0","x":true}}`
	srv := klineServer(t, []string{open, closed})
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1)
	s := NewStream(wsURL, "BTCUSDT", drepo.TF1m, 10*time.Millisecond).(*Stream)
	// Dial the test endpoint directly; the production path appends the
	// combined-stream suffix which httptest does not route.
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	s.conn = conn
	s.connected = true

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	candles, errs := s.Read(ctx)

	c, ok := <-candles
	if !ok {
		t.Fatalf("candle channel closed before delivering")
	}
	if c.Time != 120000 || c.Open != 1.5 || c.High != 2.5 || c.Low != 1.0 || c.Close != 2.0 || c.Volume != 10.0 {
		t.Fatalf("unexpected candle %+v", c)
	}

	// Server closed the socket: the read loop must surface the error and
	// close both channels, taking the pinger down with it.
	select {
	case <-errs:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected read error after server close")
	}
	select {
	case _, ok := <-candles:
		if ok {
			t.Fatalf("expected candle channel to close")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("candle channel did not close")
	}
}

func TestKlineToCandle(t *testing.T) {
	k := wsKline{StartTime: 60000, Open: "1.0", High: "2.0", Low: "0.5", Close: "1.5", Volume: "42.0"}
	c, err := k.toCandle()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Time != 60000 || c.Open != 1.0 || c.Volume != 42.0 {
		t.Fatalf("unexpected candle %+v", c)
	}
	k.Close = "not-a-number"
	if _, err := k.toCandle(); err == nil {
		t.Fatalf("expected parse error")
	}
}
