package repository

import "testing"

func TestNormalizeTimeframe(t *testing.T) {
	if got := NormalizeTimeframe(""); got != TF15m {
		t.Fatalf("expected default 15m on empty input, got %v", got)
	}
	if got := NormalizeTimeframe("7m"); got != TF15m {
		t.Fatalf("expected default 15m on unknown input, got %v", got)
	}
	if got := NormalizeTimeframe("1h"); got != TF1h {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestIsValidTimeframe(t *testing.T) {
	for _, tf := range []Timeframe{TF1m, TF3m, TF5m, TF15m, TF30m, TF1h, TF4h} {
		if !IsValidTimeframe(tf) {
			t.Fatalf("%v should be valid", tf)
		}
	}
	if IsValidTimeframe(Timeframe("1d")) {
		t.Fatalf("1d is not supported")
	}
}

func TestCandlesPerDay(t *testing.T) {
	cases := map[Timeframe]int{
		TF1m: 1440, TF3m: 480, TF5m: 288,
		TF15m: 96, TF30m: 48, TF1h: 24, TF4h: 6,
	}
	for tf, want := range cases {
		if got := CandlesPerDay(tf); got != want {
			t.Fatalf("%v: got %d, want %d", tf, got, want)
		}
	}
}

func TestHigherTimeframe(t *testing.T) {
	cases := map[Timeframe]Timeframe{
		TF1m: TF5m, TF3m: TF15m, TF5m: TF15m,
		TF15m: TF1h, TF30m: TF4h, TF1h: TF4h, TF4h: TF4h,
	}
	for tf, want := range cases {
		if got := HigherTimeframe(tf); got != want {
			t.Fatalf("%v: got %v, want %v", tf, got, want)
		}
	}
}
