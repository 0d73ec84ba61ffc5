package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainFormatter_Format_Listing(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleDocument())
	require.NoError(t, err)

	output := buf.String()
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	// Header plus one row per tweak
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[0], "CATEGORY")
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[0], "NAME")

	// Applied tweak shows "applied", one-way tweak shows "one-way"
	assert.Contains(t, lines[1], "game_mode_enable")
	assert.Contains(t, lines[1], "applied")
	assert.Contains(t, lines[4], "clear_shader_cache")
	assert.Contains(t, lines[4], "one-way")

	// No ANSI escape codes
	assert.NotContains(t, output, "\x1b[")
}

func TestPlainFormatter_Format_Batch(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleBatchDocument())
	require.NoError(t, err)

	output := buf.String()
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "OUTCOME")
	assert.Contains(t, lines[1], "applied")
	assert.Contains(t, lines[2], "skipped")
	assert.Contains(t, lines[3], "failed")
	assert.Contains(t, lines[3], "access denied")
}

func TestPlainFormatter_Format_AlignedColumns(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleDocument())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	// tabwriter aligns the CATEGORY column across all rows
	idx := strings.Index(lines[0], "CATEGORY")
	require.Greater(t, idx, 0)
	assert.Equal(t, "System", lines[1][idx:idx+len("System")])
}

func TestPlainFormatter_Format_EmptyDocument(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, &Document{})
	require.NoError(t, err)

	// Header only
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 1)
}

func TestPlainFormatter_Registration(t *testing.T) {
	formatter, err := Get("plain")
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, formatter)
}
