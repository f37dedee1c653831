package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "stepviz", cmd.Use)
	assert.Contains(t, cmd.Long, "animation player")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"play", "run", "render", "export", "trace", "replay", "validate", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestSourceFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"play", "run", "render", "export"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			algorithm := sub.Flags().Lookup("algorithm")
			require.NotNil(t, algorithm)
			assert.Equal(t, "a", algorithm.Shorthand)
			require.NotNil(t, sub.Flags().Lookup("action"))
		})
	}
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	dbFlag := runCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	// --db is optional for run; the config journal is the fallback
	assert.Equal(t, "", dbFlag.DefValue)

	require.NotNil(t, runCmd.Flags().Lookup("session"))
	realtime := runCmd.Flags().Lookup("realtime")
	require.NotNil(t, realtime)
	assert.Equal(t, "false", realtime.DefValue)
}

func TestJournalCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"trace", "replay"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub.Flags().Lookup("db"))
			require.NotNil(t, sub.Flags().Lookup("session"))
		})
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	_, _, err := execute(cmd, "--format", "invalid", "validate", scriptsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canvas: {width: 40, height: 12, scale_x: 8, scale_y: 16}\n"), 0644))

	cmd := NewRootCommand()
	out, _, err := execute(cmd, "--config", path, "--format", "json", "render", scriptPath("move.cue"))
	require.NoError(t, err)

	var result RenderResult
	decodeData(t, out, &result)
	assert.Equal(t, 40, result.Width)
	assert.Equal(t, 12, result.Height)
}

func TestConfigFileErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		cmd := NewRootCommand()
		_, _, err := execute(cmd, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "run", "--action", "push:X")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stepviz.yaml")
		require.NoError(t, os.WriteFile(path, []byte("speed: 10\n"), 0644))

		cmd := NewRootCommand()
		_, _, err := execute(cmd, "--config", path, "run", "--action", "push:X")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), "failed to load config")
	})
}
