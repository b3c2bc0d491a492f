package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestInitLogger(t *testing.T) {
	InitLogger(false)
	if Logger == nil {
		t.Error("Logger should not be nil after development initialization")
	}

	InitLogger(true)
	if Logger == nil {
		t.Error("Logger should not be nil after production initialization")
	}
}

func TestInitLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithWriter(&buf, true, slog.LevelWarn)

	Info("hidden message")
	Warn("visible message", "ticker", "AAPL")

	output := buf.String()
	if strings.Contains(output, "hidden message") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(output, `"msg":"visible message"`) {
		t.Errorf("expected JSON warn output, got %q", output)
	}
	if !strings.Contains(output, `"ticker":"AAPL"`) {
		t.Error("expected ticker attribute in JSON output")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer
	Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cases := []struct {
		name  string
		log   func(string, ...any)
		level string
	}{
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
		{"Debug", Debug, "DEBUG"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf.Reset()
			c.log("test message", "key", "value")
			out := buf.String()
			if !strings.Contains(out, "test message") {
				t.Errorf("%s should log the message", c.name)
			}
			if !strings.Contains(out, "key=value") {
				t.Errorf("%s should log the key-value pair", c.name)
			}
			if !strings.Contains(out, c.level) {
				t.Errorf("%s should log at %s level", c.name, c.level)
			}
		})
	}
}

func TestWithTicker(t *testing.T) {
	var buf bytes.Buffer
	Logger = slog.New(slog.NewTextHandler(&buf, nil))

	WithTicker("TSLA").Info("test message")

	if !strings.Contains(buf.String(), "ticker=TSLA") {
		t.Error("WithTicker should add ticker field to logger")
	}
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	Logger = slog.New(slog.NewTextHandler(&buf, nil))

	WithOperation("fetch_dashboard").Info("test message")

	if !strings.Contains(buf.String(), "operation=fetch_dashboard") {
		t.Error("WithOperation should add operation field to logger")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	Logger = slog.New(slog.NewTextHandler(&buf, nil))

	WithError(errors.New("boom")).Info("test message")

	if !strings.Contains(buf.String(), "error=boom") {
		t.Error("WithError should add error field to logger")
	}
}

func TestLoggingWithNilLogger(t *testing.T) {
	Logger = nil
	Info("test message")

	Logger = nil
	Warn("test message")

	Logger = nil
	_ = WithTicker("AAPL")

	Logger = nil
	_ = WithError(errors.New("test"))

	if Logger == nil {
		t.Error("logging helpers should lazily initialize Logger")
	}
}
