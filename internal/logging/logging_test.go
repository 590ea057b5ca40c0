package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := New("prod", "api-server")
	log = log.Output(&buf)

	log.Info().Msg("ready")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api-server", entry["service"])
	assert.Equal(t, "ready", entry["message"])
	assert.Contains(t, entry, "time")
}
