package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e), "line %q", line)
		entries = append(entries, e)
	}
	return entries
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"DEBUG":   DebugLevel,
		"debug":   DebugLevel,
		" Info ":  InfoLevel,
		"warn":    WarnLevel,
		"Warning": WarnLevel,
		"ERROR":   ErrorLevel,
		"":        InfoLevel,
		"invalid": InfoLevel,
	}
	for in, want := range tests {
		assert.Equalf(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "source", Value: uint64(7)}, SourceNode(7))
	assert.Equal(t, Field{Key: "destination", Value: uint64(9)}, DestinationNode(9))
	assert.Equal(t, Field{Key: "threshold_km", Value: 1500.0}, Threshold(1500))
	assert.Equal(t, Field{Key: "stage", Value: "PARTITIONED"}, Stage("PARTITIONED"))
	assert.Equal(t, Field{Key: "line", Value: 12}, Line(12))
	assert.Equal(t, Field{Key: "offset", Value: int64(4096)}, Int64("offset", 4096))
	assert.Equal(t, Field{Key: "timeout", Value: "5s"}, Duration("timeout", 5*time.Second))
	assert.Equal(t, Field{Key: "error", Value: "test error"}, Error(errors.New("test error")))
	assert.Equal(t, Field{Key: "error", Value: nil}, Error(nil))
}

func TestJSONLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("records parsed", Count(3), Path("simon.txt"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "records parsed", e.Message)
	assert.Equal(t, float64(3), e.Fields["count"])
	assert.Equal(t, "simon.txt", e.Fields["path"])
	assert.NotEmpty(t, e.Time)
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "ERROR", entries[1].Level)
}

func TestJSONLogger_WithSharesLevelAndWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("parser"), RunID("run-1"))

	child.Info("line skipped", Line(4))
	logger.SetLevel(ErrorLevel)
	child.Info("suppressed")
	assert.Equal(t, ErrorLevel, child.GetLevel())

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "parser", entries[0].Fields["component"])
	assert.Equal(t, "run-1", entries[0].Fields["run_id"])
	assert.Equal(t, float64(4), entries[0].Fields["line"])
}

func TestJSONLogger_WithDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	_ = logger.With(String("child", "only"))

	logger.Info("parent")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Fields)
}

func TestJSONLogger_ConcurrentChildren(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			child := logger.With(Int("worker", id))
			for j := 0; j < 25; j++ {
				child.Info("tick")
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, decodeLines(t, &buf), 200)
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	op := StartTimer(logger, "batch analyzed", RunID("r"))
	op.End(Count(2))
	op.EndError(errors.New("sink failed"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, float64(2), entries[0].Fields["count"])
	assert.Contains(t, entries[0].Fields, "latency")
	assert.Equal(t, "ERROR", entries[1].Level)
	assert.Equal(t, "sink failed", entries[1].Fields["error"])
	assert.NotContains(t, entries[1].Fields, "count")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored")
	assert.Equal(t, InfoLevel, logger.With(Count(1)).GetLevel())
}
