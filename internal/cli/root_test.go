package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "agora-results", cmd.Use)
	assert.Contains(t, cmd.Long, "temporary directory")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"run", "validate", "units", "runs", "join-by-name"}

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
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	configFlag := runCmd.Flags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	outputFlag := runCmd.Flags().Lookup("output-format")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
	assert.Equal(t, "pretty", outputFlag.DefValue)

	for _, name := range []string{"no-output", "workdir", "ledger"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestRunsCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runsCmd, _, err := cmd.Find([]string{"runs"})
	require.NoError(t, err)

	ledgerFlag := runsCmd.Flags().Lookup("ledger")
	require.NotNil(t, ledgerFlag)
	// --ledger is required, so default is empty
	assert.Equal(t, "", ledgerFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	stderr := &bytes.Buffer{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(stderr)
	cmd.SetArgs([]string{"units", "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr.String(), `invalid format "xml"`)
}

func TestExecute_ExitCodes(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		want       int
		wantStderr string
	}{
		{name: "success", args: []string{"units"}, want: ExitSuccess},
		{name: "unknown flag", args: []string{"units", "--nope"}, want: ExitCommandError, wantStderr: "Error: unknown flag: --nope"},
		{name: "missing argument", args: []string{"validate"}, want: ExitCommandError, wantStderr: "Error: "},
		{name: "invalid format", args: []string{"units", "--format", "xml"}, want: ExitCommandError, wantStderr: "invalid format"},
		{name: "missing archive", args: []string{"run", "--no-output", "--workdir", "WORKDIR", "MISSING"}, want: ExitFailure, wantStderr: "Error [E020]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
			cmd := NewRootCommand()
			cmd.SetOut(stdout)
			cmd.SetErr(stderr)
			dir := t.TempDir()
			args := make([]string, len(tt.args))
			for i, a := range tt.args {
				switch a {
				case "WORKDIR":
					a = dir
				case "MISSING":
					a = filepath.Join(dir, "missing.tar.gz")
				}
				args[i] = a
			}
			cmd.SetArgs(args)

			got := execute(cmd, stderr)
			assert.Equal(t, tt.want, got)
			if tt.wantStderr != "" {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}
