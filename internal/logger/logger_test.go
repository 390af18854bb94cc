package logger_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/chinesetutor/internal/logger"
)

func newBuffered(level logger.Level) (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(level),
		logger.WithColors(false),
		logger.WithCaller(false),
	)
	return l, &buf
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	l, buf := newBuffered(logger.WARN)

	l.Info("hidden")
	l.Warn("shown %d", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN  shown 1")
}

func TestLogger_PrefixAndSortedFields(t *testing.T) {
	l, buf := newBuffered(logger.DEBUG)

	l.WithPrefix("anki").WithFields(map[string]any{"word": "你好", "deck": "Chinese"}).Debug("found")

	assert.Contains(t, buf.String(), "[anki] found deck=Chinese word=你好")
}

func TestLogger_DerivedLoggersShareOutput(t *testing.T) {
	l, buf := newBuffered(logger.INFO)

	child := l.WithField("k", "v")
	l.Info("parent")
	child.Info("child")

	assert.Contains(t, buf.String(), "parent")
	assert.Contains(t, buf.String(), "child k=v")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.DEBUG, logger.ParseLevel("debug"))
	assert.Equal(t, logger.WARN, logger.ParseLevel("WARNING"))
	assert.Equal(t, logger.INFO, logger.ParseLevel("nonsense"))
	assert.True(t, logger.ValidLevel("error"))
	assert.False(t, logger.ValidLevel(""))
}

func TestFromContext(t *testing.T) {
	l, buf := newBuffered(logger.INFO)
	ctx := logger.NewContext(context.Background(), l.WithPrefix("ctx"))

	logger.FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "[ctx] hello")
	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))
}
