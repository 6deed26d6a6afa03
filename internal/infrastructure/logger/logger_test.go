package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestPresetConfigs(t *testing.T) {
	t.Run("default is console", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "console", cfg.Format)
		assert.Equal(t, "stdout", cfg.Output)
		assert.NotEmpty(t, cfg.TimeFormat)
	})

	t.Run("production is json", func(t *testing.T) {
		cfg := ProductionConfig()
		assert.Equal(t, "info", cfg.Level)
		assert.Equal(t, "json", cfg.Format)
		assert.Equal(t, "stdout", cfg.Output)
		assert.NotEmpty(t, cfg.TimeFormat)
	})
}

func TestNew(t *testing.T) {
	configs := map[string]*Config{
		"default":    DefaultConfig(),
		"production": ProductionConfig(),
		"debug console": {
			Level:      "debug",
			Format:     "console",
			Output:     "stdout",
			TimeFormat: "2006-01-02T15:04:05Z07:00",
		},
		"info json": {
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			TimeFormat: "2006-01-02T15:04:05Z07:00",
		},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			logger, err := New(cfg)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production", "staging"} {
		t.Run(env, func(t *testing.T) {
			logger, err := NewForEnvironment(env)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestBuildWriter(t *testing.T) {
	t.Run("standard streams", func(t *testing.T) {
		for _, output := range []string{"stdout", "stderr", "STDOUT"} {
			assert.NotNil(t, buildWriter(output))
		}
	})

	t.Run("file path", func(t *testing.T) {
		tmpFile, err := os.CreateTemp(t.TempDir(), "test-log-*.log")
		require.NoError(t, err)
		tmpFile.Close()

		assert.NotNil(t, buildWriter(tmpFile.Name()))
	})
}

func TestBuildEncoder(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		t.Run(format, func(t *testing.T) {
			encoder := buildEncoder(&Config{
				Level:      "info",
				Format:     format,
				Output:     "stdout",
				TimeFormat: "2006-01-02T15:04:05Z07:00",
			})
			assert.NotNil(t, encoder)
		})
	}
}

// newBufferLogger builds a JSON logger writing into buf at the given level.
func newBufferLogger(buf *bytes.Buffer, level zapcore.Level) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		LevelKey:    "level",
		MessageKey:  "msg",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(buf), level)
	return zap.New(core)
}

func TestLogOutputIsStructured(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, zapcore.InfoLevel)

	logger.Info("test message", zap.String("key", "value"))

	var output map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "test message", output["msg"])
	assert.Equal(t, "info", output["level"])
	assert.Equal(t, "value", output["key"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	debugLogger := newBufferLogger(&buf, zapcore.DebugLevel)
	debugLogger.Debug("debug message")
	assert.Contains(t, buf.String(), "debug message")

	buf.Reset()

	infoLogger := newBufferLogger(&buf, zapcore.InfoLevel)
	infoLogger.Debug("debug message")
	assert.NotContains(t, buf.String(), "debug message")

	infoLogger.Info("info message")
	assert.Contains(t, buf.String(), "info message")
}
