package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTimeLogsRequestIDAndError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ctx := WithRequestID(context.Background(), "abc123")

	func() (err error) {
		defer Time(ctx, "clients.List")(&err)
		return errors.New("boom")
	}()
	func() (err error) {
		defer Time(ctx, "clients.Get")(&err)
		return nil
	}()

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "abc123", entries[0].ContextMap()["req_id"])
	assert.Equal(t, "clients.List", entries[0].ContextMap()["op"])
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "clients.Get", entries[1].ContextMap()["op"])
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("chatty", "json")
	assert.Error(t, err)

	l, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}
