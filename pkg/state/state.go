package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the canonical runtime folder layout under the data dir.
type Paths struct {
	Store     string
	Retention string
	Crash     string
}

// PathsVar is populated by EnsureStateDirs and read by other packages.
var PathsVar Paths

// EnsureStateDirs ensures the runtime folder layout exists under the
// provided data dir. It rejects symlinks and permissive modes, and
// verifies each directory is writable by the process.
func EnsureStateDirs(dataDir string) error {
	storePath := filepath.Join(dataDir, "store")
	statePath := filepath.Join(dataDir, "state")
	retentionPath := filepath.Join(statePath, "retention")
	crashPath := filepath.Join(statePath, "crash")

	paths := []string{storePath, retentionPath, crashPath}

	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return fmt.Errorf("cannot create parent for %s: %w", p, err)
		}

		if fi, err := os.Lstat(p); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink: %s", p)
			}
			if !fi.IsDir() {
				return fmt.Errorf("path exists and is not a directory: %s", p)
			}
			if fi.Mode().Perm()&0o022 != 0 {
				return fmt.Errorf("path has permissive mode (group/other write): %s", p)
			}
		}

		if err := os.MkdirAll(p, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", p, err)
		}

		// writability check: create and remove a temp file
		tmp, err := os.CreateTemp(p, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", p, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	PathsVar = Paths{Store: storePath, Retention: retentionPath, Crash: crashPath}
	return nil
}
