package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", Format: "json", Service: "api"}, &buf)

	l.Debug().Msg("hidden")
	l.Info().Str("table", "rules").Msg("stored")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "rules", entry["table"])
	assert.Equal(t, "stored", entry["message"])
}

func TestGooseLogger_Printf(t *testing.T) {
	var buf bytes.Buffer
	g := GooseLogger{Log: NewWithWriter(Config{}, &buf)}

	g.Printf("OK   %s (%d ms)\n", "00001_documents.sql", 3)

	assert.Contains(t, buf.String(), "00001_documents.sql (3 ms)")
}
