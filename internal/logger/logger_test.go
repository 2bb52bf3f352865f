package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	testCases := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{name: "debug", level: "debug", wantLevel: zerolog.DebugLevel},
		{name: "upper case", level: "WARN", wantLevel: zerolog.WarnLevel},
		{name: "unknown falls back to info", level: "verbose", wantLevel: zerolog.InfoLevel},
		{name: "empty falls back to info", level: "", wantLevel: zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewWithWriter(&bytes.Buffer{}, "devstore", tc.level, FormatJSON)
			require.Equal(t, tc.wantLevel, l.GetLevel())
		})
	}
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "devstore", "info", FormatJSON)
	l.Info().Str("cart_id", "cart-1").Msg("cart checked out")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "devstore", entry["service"])
	require.Equal(t, "cart-1", entry["cart_id"])
	require.Equal(t, "info", entry["level"])
	require.Contains(t, entry, "time")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "devstore", "info", "console")
	l.Info().Msg("hello")
	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "devstore")
}
