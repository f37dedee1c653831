package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const (
	scriptsDir   = "../../testdata/scripts"
	scenariosDir = "../../testdata/scenarios"
)

func scriptPath(name string) string {
	return filepath.Join(scriptsDir, name)
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeData unmarshals a CLIResponse and re-decodes its data into v.
func decodeData(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	if v != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, v))
	}
	return resp
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// journalRun runs the stack with actions, journaling to dbPath as session.
func journalRun(t *testing.T, dbPath, session string, actions ...string) {
	t.Helper()
	args := []string{"run", "--db", dbPath, "--session", session}
	for _, a := range actions {
		args = append(args, "--action", a)
	}
	_, _, err := execute(NewRootCommand(), args...)
	require.NoError(t, err)
}
