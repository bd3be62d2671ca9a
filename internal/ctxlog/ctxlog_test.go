package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	t.Run("returns the embedded logger", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		ctx := WithLogger(context.Background(), logger)
		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("falls back to the default logger", func(t *testing.T) {
		assert.Same(t, slog.Default(), FromContext(context.Background()))
	})
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := With(WithLogger(context.Background(), logger), "package", "forall.http")

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "package=forall.http")
}

func TestEnsure(t *testing.T) {
	first := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	second := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := Ensure(context.Background(), first)
	assert.Same(t, first, FromContext(ctx))
	assert.Same(t, first, FromContext(Ensure(ctx, second)), "an existing logger is kept")
}
