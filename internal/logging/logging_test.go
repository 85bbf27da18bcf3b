package logging

import "testing"

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		l, err := New(level, false)
		if err != nil {
			t.Fatalf("New(%q): %v", level, err)
		}
		_ = l.Sync()
	}
}

func TestNewDebugEnabled(t *testing.T) {
	l, err := New("debug", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !l.Core().Enabled(-1) {
		t.Error("debug level not enabled")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty", false); err == nil {
		t.Error("expected error for unknown level")
	}
}
