//go:build unix

package cli

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/pipes"
)

func TestRun_InterruptedBySignal(t *testing.T) {
	workdir := t.TempDir()

	reg := pipes.NewRegistry()
	reg.MustRegister("test.sigint", engine.UnitFunc(func(ctx context.Context, _ *engine.DataSet, _ engine.Params) error {
		if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return errors.New("signal was not delivered")
		}
	}))
	config := writeFile(t, "pipeline.json", `[["test.sigint", null], ["agora_results.pipes.results.do_tallies", null]]`)

	out := executeRun(t, nil, &RunOptions{Registry: reg}, "-c", config, "--workdir", workdir, writeTally(t), writeTally(t))
	require.Error(t, out.err)

	assert.Equal(t, ExitInterrupted, GetExitCode(out.err))
	assert.Contains(t, out.stderr, "received signal")
	assert.Contains(t, out.stderr, "removed 2 of 2 temporary directories")
	assertEmptyDir(t, workdir)
}
