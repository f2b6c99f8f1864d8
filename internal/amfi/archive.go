package amfi

import (
	"fmt"
	"os"
	"path/filepath"
)

// Archive keeps the last successfully fetched feed on disk.
type Archive struct {
	path string
}

// NewArchive creates an archive stored at path.
func NewArchive(path string) *Archive {
	return &Archive{path: path}
}

// Path returns the archive file location.
func (a *Archive) Path() string {
	return a.path
}

// Save replaces the archive atomically: readers see either the old or the new copy.
func (a *Archive) Save(data string) error {
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(a.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp archive: %w", err)
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		return fmt.Errorf("replacing archive: %w", err)
	}
	return nil
}

// Load returns the archived feed. A missing archive yields an error wrapping os.ErrNotExist.
func (a *Archive) Load() (string, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return "", fmt.Errorf("reading archive %s: %w", a.path, err)
	}
	return string(data), nil
}
