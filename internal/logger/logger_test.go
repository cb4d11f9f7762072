package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "test message",
			fields:  Fields{"key": "value"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false, // won't log (below INFO)
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "error occurred",
			err:     errors.New("test error"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > before
			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_JSONShape(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelDebug, &buf)

	logger.Error("lookup failed", Fields{"organizer": "Acme"}, errors.New("status 500"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}

	want := map[string]string{
		"message":   "lookup failed",
		"level":     "error",
		"organizer": "Acme",
		"error":     "status 500",
	}
	for k, v := range want {
		if got, _ := entry[k].(string); got != v {
			t.Errorf("entry[%q] = %q, want %q", k, got, v)
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("entry is missing timestamp")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf).With(Fields{"run_id": "abc"})

	logger.Info("started", Fields{"url": "https://10times.com/events"})

	out := buf.String()
	if !strings.Contains(out, `"run_id":"abc"`) {
		t.Errorf("expected run_id field in %q", out)
	}
	if !strings.Contains(out, `"url":"https://10times.com/events"`) {
		t.Errorf("expected url field in %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"trace", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	SetDefault(New(LevelDebug, io.Discard))

	// Test that package-level functions don't panic
	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.minLevel, &buf)

			logger.log(tt.logLevel, "test", nil, nil)

			logged := buf.Len() > 0
			if logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}
