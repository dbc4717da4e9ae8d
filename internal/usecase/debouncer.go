package usecase

import (
	"math"

	"TradePulse/internal/domain/models"
)

// Debouncer decides whether a candidate signal supersedes the previously
// emitted one. It replaces the ambient "current open signal" a live caller
// would otherwise hold: a pure previous/candidate comparison, so the
// no-flapping policy is testable on its own.
type Debouncer struct {
	entryDrift float64 // fractional entry move that counts as material
}

func NewDebouncer(entryDrift float64) *Debouncer {
	return &Debouncer{entryDrift: entryDrift}
}

// Keep returns the signal the caller should hold. The candidate wins when
// there is no previous signal, the side flipped, or the entry drifted
// materially; otherwise the previous signal stays locked.
func (d *Debouncer) Keep(previous, candidate *models.Signal) *models.Signal {
	if candidate == nil {
		return previous
	}
	if previous == nil {
		return candidate
	}
	if candidate.Type != previous.Type {
		return candidate
	}
	if previous.Entry != 0 {
		drift := math.Abs(candidate.Entry-previous.Entry) / previous.Entry
		if drift > d.entryDrift {
			return candidate
		}
	}
	return previous
}
