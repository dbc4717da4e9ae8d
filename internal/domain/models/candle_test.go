package models

import (
	"math"
	"testing"
)

func TestCandleGeometry(t *testing.T) {
	c := Candle{Open: 10, High: 13, Low: 9, Close: 12}
	if !c.IsBullish() {
		t.Fatalf("expected bullish")
	}
	if c.Body() != 2 {
		t.Fatalf("expected body 2, got %v", c.Body())
	}
	if c.Range() != 4 {
		t.Fatalf("expected range 4, got %v", c.Range())
	}

	doji := Candle{Open: 10, High: 11, Low: 9, Close: 10}
	if doji.IsBullish() {
		t.Fatalf("flat close must not count as bullish")
	}
}

func validSeries() []Candle {
	return []Candle{
		{Time: 1000, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Time: 2000, Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 120},
		{Time: 3000, Open: 11.5, High: 12, Low: 11, Close: 11.8, Volume: 90},
	}
}

func TestValidateSeriesOK(t *testing.T) {
	if err := ValidateSeries(validSeries()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateSeries(nil); err != nil {
		t.Fatalf("empty series must be valid, got %v", err)
	}
}

func TestValidateSeriesNonFinite(t *testing.T) {
	s := validSeries()
	s[1].Close = math.NaN()
	if err := ValidateSeries(s); err == nil {
		t.Fatalf("expected error on NaN close")
	}
	s = validSeries()
	s[0].Volume = math.Inf(1)
	if err := ValidateSeries(s); err == nil {
		t.Fatalf("expected error on infinite volume")
	}
}

func TestValidateSeriesBounds(t *testing.T) {
	s := validSeries()
	s[1].Low = 10.8 // above the open
	if err := ValidateSeries(s); err == nil {
		t.Fatalf("expected error on low above body")
	}
	s = validSeries()
	s[2].High = 11.4 // below the close
	if err := ValidateSeries(s); err == nil {
		t.Fatalf("expected error on high below body")
	}
}

func TestValidateSeriesMonotonicTime(t *testing.T) {
	s := validSeries()
	s[2].Time = s[1].Time
	if err := ValidateSeries(s); err == nil {
		t.Fatalf("expected error on duplicate timestamp")
	}
	s = validSeries()
	s[2].Time = 500
	if err := ValidateSeries(s); err == nil {
		t.Fatalf("expected error on backwards timestamp")
	}
}
