package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDsFormatter_Format_Listing(t *testing.T) {
	formatter := &IDsFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleDocument())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"game_mode_enable",
		"system_responsiveness",
		"disable_nagle",
		"clear_shader_cache",
	}, lines)
}

func TestIDsFormatter_Format_Batch(t *testing.T) {
	formatter := &IDsFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleBatchDocument())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "game_mode_enable", lines[0])
}

func TestIDsFormatter_Format_EmptyDocument(t *testing.T) {
	formatter := &IDsFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, &Document{})
	require.NoError(t, err)

	assert.Empty(t, buf.String())
}

func TestIDsFormatter_Registration(t *testing.T) {
	formatter, err := Get("ids")
	require.NoError(t, err)
	assert.IsType(t, &IDsFormatter{}, formatter)
}

func TestNullFormatter_Format_Listing(t *testing.T) {
	formatter := &NullFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleDocument())
	require.NoError(t, err)

	parts := strings.Split(strings.TrimSuffix(buf.String(), "\x00"), "\x00")
	assert.Len(t, parts, 4)
	assert.Equal(t, "game_mode_enable", parts[0])
	assert.NotContains(t, buf.String(), "\n")
}

func TestNullFormatter_Format_Batch(t *testing.T) {
	formatter := &NullFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleBatchDocument())
	require.NoError(t, err)

	parts := strings.Split(strings.TrimSuffix(buf.String(), "\x00"), "\x00")
	assert.Len(t, parts, 3)
}

func TestNullFormatter_Registration(t *testing.T) {
	formatter, err := Get("null")
	require.NoError(t, err)
	assert.IsType(t, &NullFormatter{}, formatter)
}
