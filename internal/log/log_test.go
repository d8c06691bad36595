package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitReplacesNopLogger(t *testing.T) {
	before := GetZapLogger()
	require.NotNil(t, before)

	require.NoError(t, Init(true))
	t.Cleanup(func() {
		baseLogger = zap.NewNop()
		log = baseLogger.Sugar()
	})

	after := GetZapLogger()
	assert.NotSame(t, before, after)
	assert.True(t, after.Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init(false))
	assert.False(t, GetZapLogger().Core().Enabled(zap.DebugLevel))
}
