package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepviz/internal/ir"
)

func TestExportCSV(t *testing.T) {
	out, _, err := execute(NewExportCommand(&RootOptions{Format: "text"}), scriptPath("swap.cue"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, "header plus three objects")
	header := strings.Split(lines[0], ",")
	assert.Equal(t, []string{"id", "kind", "alpha"}, header[:3])
	assert.Contains(t, out, "done")
}

func TestExportJSON(t *testing.T) {
	out, _, err := execute(NewExportCommand(&RootOptions{Format: "json"}), scriptPath("move.cue"))
	require.NoError(t, err)

	var objects []ir.Object
	decodeData(t, out, &objects)
	require.Len(t, objects, 1)
	assert.Equal(t, 200, objects[0].X)
	assert.Equal(t, "A", objects[0].Text)
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.csv")

	out, errOut, err := execute(NewExportCommand(&RootOptions{Format: "text"}),
		"--action", "push:X", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "✓ wrote")
	assert.Contains(t, errOut, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,kind,alpha"))
	assert.Contains(t, string(data), "X")
}

func TestExportMissingScript(t *testing.T) {
	_, _, err := execute(NewExportCommand(&RootOptions{Format: "text"}), scriptPath("nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
