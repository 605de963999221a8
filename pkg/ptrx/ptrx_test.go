package ptrx

import (
	"testing"
	"time"
)

func TestCloneDetaches(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := Time(at)
	cp := Clone(orig)

	*orig = at.Add(time.Hour)
	if !cp.Equal(at) {
		t.Errorf("clone followed the original: %v", *cp)
	}
	if Clone[time.Time](nil) != nil {
		t.Error("Clone(nil) != nil")
	}
}

func TestValueOr(t *testing.T) {
	if got := ValueOr(nil, "fallback"); got != "fallback" {
		t.Errorf("ValueOr(nil) = %q", got)
	}
	if got := ValueOr(String("set"), "fallback"); got != "set" {
		t.Errorf("ValueOr(set) = %q", got)
	}
	if Value[bool](nil) || !Value(Bool(true)) {
		t.Error("Value")
	}
	if *To(3) != 3 {
		t.Error("To")
	}
}
