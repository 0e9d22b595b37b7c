package common

import (
	"strings"
	"testing"
	"time"
)

func TestTimerStop(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	d := timer.Stop()
	if d <= 0 {
		t.Errorf("expected positive duration, got %v", d)
	}
	if timer.Duration() != d {
		t.Errorf("Duration() = %v, want %v", timer.Duration(), d)
	}
}

func TestNamedTimerString(t *testing.T) {
	timer := NewNamedTimer("detect")
	timer.Stop()
	if timer.Name() != "detect" {
		t.Errorf("Name() = %q, want %q", timer.Name(), "detect")
	}
	if !strings.HasPrefix(timer.String(), "detect: ") {
		t.Errorf("String() = %q, want prefix %q", timer.String(), "detect: ")
	}
}
