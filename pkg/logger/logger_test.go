package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"followsync/pkg/config"
)

func newBufferLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: level}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	return log, &buf
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level json", &config.LoggingConfig{Level: "debug", JSON: true}, false},
		{"invalid log level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "sync.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(t, "warn")

	log.Info("hidden message")
	log.Warn("visible message")

	output := buf.String()
	if strings.Contains(output, "hidden message") {
		t.Error("Info message should be filtered at warn level")
	}
	if !strings.Contains(output, "visible message") {
		t.Error("Warn message not found in output")
	}
	if !strings.Contains(output, `"app":"followsync"`) {
		t.Error("App field not found in output")
	}
}

func TestFieldChaining(t *testing.T) {
	log, buf := newBufferLogger(t, "debug")

	log.
		WithField("account", "alice").
		WithFields(map[string]interface{}{"page": 2, "partial": true}).
		WithError(errors.New("cursor repeated")).
		Info("chained fields")

	output := buf.String()
	for _, want := range []string{`"account":"alice"`, `"page":2`, `"partial":true`, `"error":"cursor repeated"`, "chained fields"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output: %s", want, output)
		}
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	log, buf := newBufferLogger(t, "info")

	_ = log.WithField("account", "alice")
	log.Info("parent message")

	if strings.Contains(buf.String(), "alice") {
		t.Error("Child fields leaked into parent logger")
	}
}

func TestWithErrorNil(t *testing.T) {
	log, _ := newBufferLogger(t, "info")
	if log.WithError(nil) != log {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestStructuredLogging(t *testing.T) {
	log, buf := newBufferLogger(t, "info")

	log.InfoWithFields("target synced", map[string]interface{}{
		"account": "alice",
		"added":   3,
		"tabs":    []string{"alice"},
	})

	output := buf.String()
	for _, want := range []string{"target synced", `"account":"alice"`, `"added":3`, `"tabs":["alice"]`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output: %s", want, output)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	if err := Initialize(&config.LoggingConfig{Level: "disabled"}); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil")
	}

	// Convenience functions must not panic
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
	WithField("key", "value").Info("with field")
	WithError(errors.New("test")).Error("with error")
}

func TestLogTargetResult(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		added   int
		err     error
		level   string
		message string
	}{
		{"added rows", "succeeded", 3, nil, "INFO", "Synced 3 new followers"},
		{"nothing new", "succeeded", 0, nil, "INFO", "No new followers to sync"},
		{"skipped", "skipped", 0, errors.New("invalid sheet URL"), "WARN", "Target skipped"},
		{"failed", "failed", 0, errors.New("append failed"), "ERROR", "Target failed"},
		{"partial", "partial", 2, errors.New("pagination stopped"), "WARN", "Synced 2 new followers from a partial fetch"},
		{"canceled", "canceled", 0, nil, "WARN", "Target canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := NewTestLogger()
			LogTargetResult(log, "alice", tt.status, tt.added, tt.err)

			msgs := log.GetMessagesByLevel(tt.level)
			if len(msgs) != 1 {
				t.Fatalf("Expected one %s message, got %d", tt.level, len(msgs))
			}
			if msgs[0].Message != tt.message {
				t.Errorf("Expected %q, got %q", tt.message, msgs[0].Message)
			}
			if msgs[0].Fields["account"] != "alice" {
				t.Errorf("Expected account field, got %v", msgs[0].Fields)
			}
			if msgs[0].Error != tt.err {
				t.Errorf("Expected error %v, got %v", tt.err, msgs[0].Error)
			}
		})
	}
}

func TestTestLoggerSharesSink(t *testing.T) {
	log := NewTestLogger()
	child := log.WithField("account", "bob")
	child.Warn("child warning")
	log.Info("parent info")

	if len(log.GetMessages()) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(log.GetMessages()))
	}
	if !log.HasMessage("child warning") || log.HasError() {
		t.Error("Unexpected captured messages")
	}

	log.Clear()
	if len(log.GetMessages()) != 0 {
		t.Error("Expected messages to be cleared")
	}
}
