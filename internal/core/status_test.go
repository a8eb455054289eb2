package core

import "testing"

func TestStatusFatal(t *testing.T) {
	cases := []struct {
		s     Status
		fatal bool
	}{
		{OK, false},
		{Retry, false},
		{NotReady, false},
		{ErrInvalidRequest, true},
		{ErrUnknown, true},
	}
	for _, c := range cases {
		if got := c.s.Fatal(); got != c.fatal {
			t.Errorf("%v.Fatal() = %v, want %v", c.s, got, c.fatal)
		}
	}
}

func TestStatusSucceeded(t *testing.T) {
	if !OK.Succeeded() {
		t.Error("OK should have succeeded")
	}
	if Retry.Succeeded() {
		t.Error("Retry should not count as succeeded")
	}
}

func TestWorstFatalBeatsNonFatal(t *testing.T) {
	if got := Worst(OK, ErrInvalidValue); got != ErrInvalidValue {
		t.Errorf("Worst(OK, fatal) = %v, want the fatal code", got)
	}
	if got := Worst(ErrInvalidValue, OK); got != ErrInvalidValue {
		t.Errorf("Worst(fatal, OK) = %v, want the fatal code", got)
	}
}

func TestWorstNonFatalPicksLower(t *testing.T) {
	if got := Worst(Retry, NotReady); got != Retry {
		t.Errorf("Worst(Retry, NotReady) = %v, want Retry (lower numeric value)", got)
	}
	if got := Worst(OK, Retry); got != OK {
		t.Errorf("Worst(OK, Retry) = %v, want OK", got)
	}
}

func TestWorstBetweenTwoFatalsPicksMoreNegative(t *testing.T) {
	if got := Worst(ErrInvalidRequest, ErrUnknown); got != ErrUnknown {
		t.Errorf("Worst(-1, -7) = %v, want -7 (more severe)", got)
	}
}
