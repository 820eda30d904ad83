package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn").With("service", "storefront")

	ctx := IntoContext(context.Background(), l)
	got := FromContext(ctx)
	got.Info("dropped")
	got.Warn("login_failed", "status", 401)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "login_failed", line["msg"])
	require.Equal(t, "storefront", line["service"])
	require.EqualValues(t, 401, line["status"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	require.Same(t, slog.Default(), FromContext(context.Background()))
}
