package logging

import "testing"

func TestNewRespectsLevel(t *testing.T) {
	logger, err := New("warn", "console")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer logger.Sync()
	if logger.Core().Enabled(-1) {
		t.Fatalf("expected debug disabled at warn level")
	}
	if !logger.Core().Enabled(1) {
		t.Fatalf("expected warn enabled")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
