package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextWithLogger(t *testing.T) {
	testLogger := &Logger{}
	ctx := ContextWithLogger(context.Background(), testLogger)
	require.Same(t, testLogger, ctx.Value(loggerContextKey{}))
}

func TestLoggerFromContext(t *testing.T) {
	// Without a logger in the context we get the global one.
	logger := LoggerFromContext(context.Background())
	require.NotNil(t, logger)
	require.Same(t, globalLogger, logger)

	testLogger := &Logger{}
	ctx := context.WithValue(context.Background(), loggerContextKey{}, testLogger)
	require.Same(t, testLogger, LoggerFromContext(ctx))
}

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name       string
		level      Level
		format     Format
		assertions func(*testing.T, *Logger, error)
	}{
		{
			name:   "console",
			level:  DebugLevel,
			format: ConsoleFormat,
			assertions: func(t *testing.T, logger *Logger, err error) {
				require.NoError(t, err)
				require.NotNil(t, logger)
			},
		},
		{
			name:   "json",
			level:  InfoLevel,
			format: JSONFormat,
			assertions: func(t *testing.T, logger *Logger, err error) {
				require.NoError(t, err)
				require.NotNil(t, logger)
			},
		},
		{
			name:   "discard ignores format",
			level:  DiscardLevel,
			format: "bogus",
			assertions: func(t *testing.T, logger *Logger, err error) {
				require.NoError(t, err)
				require.NotNil(t, logger)
			},
		},
		{
			name:   "invalid format",
			level:  InfoLevel,
			format: "invalid-format",
			assertions: func(t *testing.T, _ *Logger, err error) {
				require.ErrorContains(t, err, "invalid log format")
			},
		},
		{
			name:   "level out of range",
			level:  TraceLevel - 1,
			format: ConsoleFormat,
			assertions: func(t *testing.T, _ *Logger, err error) {
				require.ErrorContains(t, err, "invalid log level")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			logger, err := NewLogger(testCase.level, testCase.format)
			testCase.assertions(t, logger, err)
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewLoggerWithWriter(TraceLevel, JSONFormat, buf)
	require.NoError(t, err)

	logger.WithValues("run", "abc").Info("hello", "step", 1)
	logger.Trace("deep")
	logger.Error(errors.New("boom"), "something failed")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, "hello", entry["msg"])
	require.Equal(t, "abc", entry["run"])
	require.Equal(t, float64(1), entry["step"])

	entry = map[string]any{}
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	require.Equal(t, "TRACE", entry["level"])

	entry = map[string]any{}
	require.NoError(t, json.Unmarshal(lines[2], &entry))
	require.Equal(t, "ERROR", entry["level"])
	require.Equal(t, "something failed: boom", entry["msg"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewLoggerWithWriter(ErrorLevel, ConsoleFormat, buf)
	require.NoError(t, err)
	logger.Info("not shown")
	logger.Debug("not shown either")
	require.Empty(t, buf.String())
}
