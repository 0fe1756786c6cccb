package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villawad/agora-results/internal/testutil"
)

func listBase(t *testing.T, base string) []string {
	t.Helper()
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestAcquire_ExtractsIntoTrackedDir(t *testing.T) {
	base := t.TempDir()
	src := testutil.WriteArchive(t, t.TempDir(), "a.tar.gz", testutil.SimpleTally())

	m := New(WithBaseDir(base), WithRunID("run-1"))
	d, err := m.Acquire(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, src, d.Archive())
	assert.Equal(t, 0, d.Index())
	assert.True(t, strings.HasPrefix(filepath.Base(d.Path()), "agora-results-run-1-0-"))
	assert.FileExists(t, filepath.Join(d.Path(), "questions_json"))
	assert.Equal(t, 1, m.Tracked())

	require.NoError(t, m.ReleaseAll())
	assert.NoDirExists(t, d.Path())
	assert.Empty(t, listBase(t, base))
	assert.Equal(t, 0, m.Tracked())
}

func TestAcquire_UniqueDirectories(t *testing.T) {
	base := t.TempDir()
	src := testutil.WriteArchive(t, t.TempDir(), "a.tar.gz", testutil.SimpleTally())

	m := New(WithBaseDir(base))
	defer m.ReleaseAll()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		d, err := m.Acquire(context.Background(), src)
		require.NoError(t, err)
		assert.False(t, seen[d.Path()])
		seen[d.Path()] = true
		assert.Equal(t, i, d.Index())
	}
	assert.Equal(t, 3, m.Created())
	assert.Len(t, listBase(t, base), 3)
}

func TestAcquire_FailureKeepsDirTrackedForRelease(t *testing.T) {
	base := t.TempDir()
	good := testutil.WriteArchive(t, t.TempDir(), "good.tar.gz", testutil.SimpleTally())
	missing := filepath.Join(t.TempDir(), "missing.tar.gz")

	m := New(WithBaseDir(base))
	_, err := m.Acquire(context.Background(), good)
	require.NoError(t, err)

	_, err = m.Acquire(context.Background(), missing)
	require.Error(t, err)
	assert.True(t, IsExtractionError(err))

	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, missing, ee.Archive)
	assert.Equal(t, 1, ee.Index)
	assert.Contains(t, err.Error(), "EXTRACTION_FAILED")

	assert.Equal(t, 2, m.Tracked())
	require.NoError(t, m.ReleaseAll())
	assert.Empty(t, listBase(t, base))
}

func TestAcquire_CancelledContext(t *testing.T) {
	base := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(WithBaseDir(base))
	_, err := m.Acquire(ctx, "whatever.tar.gz")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsExtractionError(err))
	assert.Equal(t, 0, m.Created())
}

func TestAcquire_CancelledDuringExtraction(t *testing.T) {
	base := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	m := New(WithBaseDir(base))
	m.extract = func(ctx context.Context, src, dest string) (int, error) {
		cancel()
		return 0, ctx.Err()
	}

	_, err := m.Acquire(ctx, "a.tar.gz")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, m.Tracked())

	require.NoError(t, m.ReleaseAll())
	assert.Empty(t, listBase(t, base))
}

func TestRelease_Idempotent(t *testing.T) {
	src := testutil.WriteArchive(t, t.TempDir(), "a.tar.gz", testutil.SimpleTally())
	m := New(WithBaseDir(t.TempDir()))

	d, err := m.Acquire(context.Background(), src)
	require.NoError(t, err)

	require.NoError(t, m.Release(d))
	require.NoError(t, m.Release(d))
	require.NoError(t, m.Release(nil))
	require.NoError(t, m.ReleaseAll())
	require.NoError(t, m.ReleaseAll())
	assert.NoDirExists(t, d.Path())
}

func TestDirRelease_Idempotent(t *testing.T) {
	src := testutil.WriteArchive(t, t.TempDir(), "a.tar.gz", testutil.SimpleTally())
	m := New(WithBaseDir(t.TempDir()))

	d, err := m.Acquire(context.Background(), src)
	require.NoError(t, err)

	require.NoError(t, d.Release())
	require.NoError(t, d.Release())
	assert.NoDirExists(t, d.Path())
	assert.Equal(t, 0, m.Tracked())
	assert.Equal(t, 1, m.Created())

	var nilDir *Dir
	assert.NoError(t, nilDir.Release())
}

func TestRelease_AlreadyRemovedFromDisk(t *testing.T) {
	src := testutil.WriteArchive(t, t.TempDir(), "a.tar.gz", testutil.SimpleTally())
	m := New(WithBaseDir(t.TempDir()))

	d, err := m.Acquire(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(d.Path()))

	require.NoError(t, m.ReleaseAll())
	assert.Equal(t, 0, m.Tracked())
}

func TestReleaseAll_BestEffort(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	base := t.TempDir()
	src := testutil.WriteArchive(t, t.TempDir(), "a.tar.gz", testutil.SimpleTally())

	m := New(WithBaseDir(base))
	blocked, err := m.Acquire(context.Background(), src)
	require.NoError(t, err)
	free, err := m.Acquire(context.Background(), src)
	require.NoError(t, err)

	// A nested read-only directory makes RemoveAll fail for the first entry.
	nested := filepath.Join(blocked.Path(), "locked")
	require.NoError(t, os.MkdirAll(filepath.Join(nested, "inner"), 0o755))
	require.NoError(t, os.Chmod(nested, 0o500))
	t.Cleanup(func() { os.Chmod(nested, 0o755) })

	err = m.ReleaseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), blocked.Path())
	assert.NoDirExists(t, free.Path())
	assert.Equal(t, 1, m.Tracked())

	require.NoError(t, os.Chmod(nested, 0o755))
	require.NoError(t, m.ReleaseAll())
	assert.Equal(t, 0, m.Tracked())
}
