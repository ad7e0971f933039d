package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"littlelemon/internal/logging"
)

func TestFromContextRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logging.IntoContext(context.Background(), l)
	logging.FromContext(ctx).Info("hello")

	require.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestFromContextDefaultsWhenUnset(t *testing.T) {
	require.NotNil(t, logging.FromContext(context.Background()))
}
