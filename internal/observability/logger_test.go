package observability

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/lodestar/internal/config"
)

// syncBuffer is a concurrency-safe WriteSyncer for capturing log output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Sync() error { return nil }

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInitializeAndGetLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	out := &syncBuffer{}
	Initialize(config.LoggerConfig{
		Level:       "debug",
		Format:      "json",
		ServiceName: "lodestar-test",
	}, zapcore.AddSync(out))

	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("hello from the test")
	require.NoError(t, logger.Sync())

	output := out.String()
	assert.Contains(t, output, `"msg":"hello from the test"`)
	assert.Contains(t, output, "lodestar-test")
}

func TestInitializeRunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &syncBuffer{}
	second := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "a"}, zapcore.AddSync(first))
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "b"}, zapcore.AddSync(second))

	GetLogger().Info("only once")
	_ = GetLogger().Sync()

	assert.Contains(t, first.String(), "only once")
	assert.Empty(t, second.String())
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	out := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "shouty", Format: "json", ServiceName: "t"}, zapcore.AddSync(out))

	logger := GetLogger()
	logger.Debug("should be filtered")
	logger.Info("should appear")
	_ = logger.Sync()

	output := out.String()
	assert.NotContains(t, output, "should be filtered")
	assert.Contains(t, output, "should appear")
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	assert.True(t, strings.Contains(logger.Name(), "fallback"))
}
