package usecase

import (
	"testing"

	"TradePulse/internal/domain/models"
)

func debounceSignal(side models.Side, entry float64) *models.Signal {
	return &models.Signal{Type: side, Entry: entry}
}

func TestDebouncerNilCandidateKeepsPrevious(t *testing.T) {
	d := NewDebouncer(0.005)
	prev := debounceSignal(models.SideBuy, 100)
	if got := d.Keep(prev, nil); got != prev {
		t.Fatalf("expected previous kept, got %+v", got)
	}
}

func TestDebouncerNoPreviousAcceptsCandidate(t *testing.T) {
	d := NewDebouncer(0.005)
	cand := debounceSignal(models.SideBuy, 100)
	if got := d.Keep(nil, cand); got != cand {
		t.Fatalf("expected candidate accepted, got %+v", got)
	}
}

func TestDebouncerSideFlipReplaces(t *testing.T) {
	d := NewDebouncer(0.005)
	prev := debounceSignal(models.SideBuy, 100)
	cand := debounceSignal(models.SideSell, 100)
	if got := d.Keep(prev, cand); got != cand {
		t.Fatalf("expected side flip to replace, got %+v", got)
	}
}

func TestDebouncerSmallDriftLocked(t *testing.T) {
	d := NewDebouncer(0.005)
	prev := debounceSignal(models.SideBuy, 100)
	cand := debounceSignal(models.SideBuy, 100.4) // 0.4% drift, inside tolerance
	if got := d.Keep(prev, cand); got != prev {
		t.Fatalf("expected previous locked on small drift, got %+v", got)
	}
}

func TestDebouncerMaterialDriftReplaces(t *testing.T) {
	d := NewDebouncer(0.005)
	prev := debounceSignal(models.SideBuy, 100)
	cand := debounceSignal(models.SideBuy, 101) // 1% drift
	if got := d.Keep(prev, cand); got != cand {
		t.Fatalf("expected material drift to replace, got %+v", got)
	}
}
