package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestAlignMilli(t *testing.T) {
	step := 15 * time.Minute
	stepMs := step.Milliseconds()
	aligned := 3 * stepMs
	if got := AlignMilli(aligned+42, step); got != aligned {
		t.Fatalf("expected %d, got %d", aligned, got)
	}
	if got := AlignMilli(aligned, step); got != aligned {
		t.Fatalf("aligned input must be unchanged, got %d", got)
	}
	if got := AlignMilli(12345, 0); got != 12345 {
		t.Fatalf("zero step must pass through, got %d", got)
	}
}

func TestIsAlignedMilli(t *testing.T) {
	step := time.Minute
	if !IsAlignedMilli(3*time.Minute.Milliseconds(), step) {
		t.Fatalf("expected aligned")
	}
	if IsAlignedMilli(3*time.Minute.Milliseconds()+1, step) {
		t.Fatalf("expected misaligned")
	}
	if !IsAlignedMilli(777, 0) {
		t.Fatalf("zero step must always be aligned")
	}
}
