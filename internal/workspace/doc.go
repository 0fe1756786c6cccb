// Package workspace owns the ephemeral directories that input archives are
// extracted into.
//
// A Manager tracks every directory it creates from the moment the directory
// exists on disk, before extraction starts, so a failed or interrupted
// extraction is still cleaned up. Callers defer ReleaseAll right after
// creating the Manager:
//
//	m := workspace.New(workspace.WithRunID(runID))
//	defer m.ReleaseAll()
//
// Release is idempotent and best-effort: every tracked directory is
// attempted and the first failure is returned after all attempts.
package workspace
