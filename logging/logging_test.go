package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(zapcore.DebugLevel, ParseLevel('V'))
	assert.Equal(zapcore.DebugLevel, ParseLevel('D'))
	assert.Equal(zapcore.WarnLevel, ParseLevel('W'))
	assert.Equal(zapcore.ErrorLevel, ParseLevel('E'))
	assert.Equal(zapcore.DPanicLevel, ParseLevel('F'))
	assert.Equal(zapcore.InfoLevel, ParseLevel(0))
	assert.Equal(zapcore.InfoLevel, ParseLevel('x'))
}

func TestGetLevel(t *testing.T) {
	assert := assert.New(t)

	t.Setenv(EnvPrefix, "WARN")
	assert.Equal('W', GetLevel("Foo"))

	t.Setenv(EnvPrefix+"_Foo", "debug")
	assert.Equal('d', GetLevel("Foo"))
	assert.Equal('W', GetLevel("Bar"))

	t.Setenv(EnvPrefix+"_Foo", "")
	assert.Equal(rune(0), GetLevel("Foo"))

	logger := New("Bar")
	assert.False(logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(logger.Core().Enabled(zapcore.WarnLevel))
}

func TestRedirect(t *testing.T) {
	var buf bytes.Buffer
	restore := Redirect(zapcore.AddSync(&buf))

	t.Setenv(EnvPrefix, "I")
	New("Redirect").Info("hello", zap.Int("n", 3))
	restore()

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"logger":"Redirect"`)
	assert.Contains(t, buf.String(), `"n":3`)

	New("Redirect").Warn("not captured")
	assert.NotContains(t, buf.String(), "not captured")
}
