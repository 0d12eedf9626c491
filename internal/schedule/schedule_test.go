package schedule

import (
	"testing"

	"incentives/internal/decimal"
)

func TestNextEpochStartOnBoundary(t *testing.T) {
	if got := NextEpochStart(EpochsStart); got != EpochsStart {
		t.Fatalf("expected %d, got %d", EpochsStart, got)
	}
	boundary := EpochsStart + 3*EpochLength
	if got := NextEpochStart(boundary); got != boundary {
		t.Fatalf("expected %d, got %d", boundary, got)
	}
}

func TestNextEpochStartMidEpoch(t *testing.T) {
	mid := EpochsStart + EpochLength/2
	want := EpochsStart + EpochLength
	if got := NextEpochStart(mid); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestFromInputRejectsOutOfRangeDuration(t *testing.T) {
	if _, err := FromInput(EpochsStart, 0, decimal.AmountFromUint64(1_000_000)); err == nil {
		t.Fatalf("expected error for zero duration")
	}
	if _, err := FromInput(EpochsStart, MaxPeriods+1, decimal.AmountFromUint64(1_000_000)); err == nil {
		t.Fatalf("expected error for duration above MaxPeriods")
	}
}

func TestFromInputRejectsRpsTooLow(t *testing.T) {
	if _, err := FromInput(EpochsStart, 1, decimal.AmountFromUint64(1)); err == nil {
		t.Fatalf("expected RpsTooLow error")
	}
}

func TestFromInputOneEpoch(t *testing.T) {
	s, err := FromInput(EpochsStart, 1, decimal.AmountFromUint64(1_000_000))
	if err != nil {
		t.Fatalf("FromInput: %v", err)
	}
	if s.StartTS != EpochsStart {
		t.Fatalf("expected start %d, got %d", EpochsStart, s.StartTS)
	}
	if s.EndTS != EpochsStart+EpochLength {
		t.Fatalf("expected end %d, got %d", EpochsStart+EpochLength, s.EndTS)
	}
}

func TestFromInputMidEpochPartial(t *testing.T) {
	now := EpochsStart + EpochLength/2
	s, err := FromInput(now, 1, decimal.AmountFromUint64(1_000_000))
	if err != nil {
		t.Fatalf("FromInput: %v", err)
	}
	wantEnd := EpochsStart + 2*EpochLength
	if s.EndTS != wantEnd {
		t.Fatalf("expected end %d, got %d", wantEnd, s.EndTS)
	}
	if s.StartTS != EpochsStart+EpochLength {
		t.Fatalf("expected start %d, got %d", EpochsStart+EpochLength, s.StartTS)
	}
}
