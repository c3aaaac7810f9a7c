package diagnostics

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogUsesSeverityLevel(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	Diagnostic{
		Severity: Warn,
		Code:     "LED.OPEN",
		Summary:  "LED strip unavailable",
		Evidence: map[string]any{"port": "SPI0.0"},
	}.Log(l)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "LED.OPEN", got["code"])
	assert.Equal(t, "SPI0.0", got["port"])
	assert.Equal(t, "LED strip unavailable", got["message"])
}
