package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		expectError bool
	}{
		{name: "Debug level", level: "debug", expectError: false},
		{name: "Info level", level: "info", expectError: false},
		{name: "Error level", level: "error", expectError: false},
		{name: "Invalid level", level: "bogus", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(Options{Level: tt.level})
			if tt.expectError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestLogging(t *testing.T) {
	if err := Init(Options{Level: "debug"}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)

	Debug("debug message", map[string]interface{}{"key": "value"})
	Info("info message")
	Warn("warn message")
	Error("error message", errors.New("boom"))

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message", "key=value", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
