package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, "warn", LevelWarn.String())
}

func TestSetLevelPropagatesToDerivedLoggers(t *testing.T) {
	l := NewNop()
	child := l.With(String("component", "test"))

	l.SetLevel(LevelError)
	assert.Equal(t, LevelError, child.GetLevel())
}

func TestToZapFields(t *testing.T) {
	fields := toZapFields(
		String("s", "v"),
		Int("i", 1),
		Int64("i64", 2),
		Error(errors.New("boom")),
		Error(nil),
		Any("a", struct{}{}),
	)
	assert.Len(t, fields, 6)
	assert.Equal(t, "s", fields[0].Key)
	assert.Equal(t, "error", fields[3].Key)
	assert.Equal(t, zap.Skip().Type, fields[4].Type)
}
