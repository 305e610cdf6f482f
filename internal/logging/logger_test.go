package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-stack/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewWriter_JSONComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}).Component("intr")
	log.Info("irq registered", "irq", 35)
	log.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "irq registered", rec["msg"])
	assert.Equal(t, "intr", rec["component"])
	assert.EqualValues(t, 35, rec["irq"])
}

func TestDump_OnlyAtDebug(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, config.LoggingConfig{Level: "info"}).Dump("frame", []byte{0x45})
	assert.Empty(t, buf.String())

	NewWriter(&buf, config.LoggingConfig{Level: "debug"}).Dump("frame", []byte{0x45, 0x00})
	assert.Contains(t, buf.String(), "45 00")
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("dropped")
	assert.NotNil(t, log.Component("x"))
}
