package checkpoint

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	perr "indexcrawler/internal/platform/errors"
)

// Dir keeps markers as empty files in a local directory
type Dir struct {
	path string
}

var _ Store = (*Dir)(nil)

// NewDir returns a directory store; the directory is created on first Advance
func NewDir(path string) *Dir { return &Dir{path: filepath.Clean(path)} }

// Location returns the directory path
func (d *Dir) Location() string { return d.path }

// Highest scans the directory. A missing directory is no checkpoint
func (d *Dir) Highest(context.Context) (int64, bool, error) {
	names, err := d.markers()
	if err != nil {
		return 0, false, err
	}
	n, ok := highest(names)
	return n, ok, nil
}

// Advance records next and removes every other marker
func (d *Dir) Advance(_ context.Context, next int64) error {
	if err := checkNext(next); err != nil {
		return err
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: create %s", d.path)
	}

	tmp, err := os.CreateTemp(d.path, ".checkpoint-*")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: temp marker in %s", d.path)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: temp marker in %s", d.path)
	}
	keep := markerName(next)
	if err := os.Rename(tmpName, filepath.Join(d.path, keep)); err != nil {
		_ = os.Remove(tmpName)
		return perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: write %s", keep)
	}

	names, err := d.markers()
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if name == keep {
			continue
		}
		if _, ok := parseMarker(name); !ok {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: remove stale markers in %s", d.path)
	}
	return nil
}

// markers lists regular file names in the directory
func (d *Dir) markers() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: list %s", d.path)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
