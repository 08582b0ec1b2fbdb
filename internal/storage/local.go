package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalDisk stores files under a root directory on the local filesystem.
type LocalDisk struct {
	root string
	url  string
}

// NewLocalDisk returns a disk rooted at root. The directory must exist.
func NewLocalDisk(root, url string) (*LocalDisk, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local disk root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve disk root: %w", err)
	}
	return &LocalDisk{root: abs, url: strings.TrimRight(url, "/")}, nil
}

// Root returns the absolute root directory.
func (d *LocalDisk) Root() string {
	return d.root
}

// Path returns the absolute filesystem path of a storage-relative path.
func (d *LocalDisk) Path(p string) string {
	return filepath.Join(d.root, filepath.FromSlash(Clean(p)))
}

// URL implements Disk.
func (d *LocalDisk) URL() string {
	return d.url
}

// List implements Disk.
func (d *LocalDisk) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := d.Path(dir)
	var files []string
	err := filepath.WalkDir(start, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return ctx.Err()
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", start, err)
	}

	sort.Strings(files)
	return files, nil
}

// Read implements Disk.
func (d *LocalDisk) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleaned, err := cleanFile(p)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.Path(cleaned))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", cleaned, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cleaned, err)
	}
	return data, nil
}

// Write implements Disk. The file is written to a temporary sibling and
// renamed into place, so readers never observe a partial file.
func (d *LocalDisk) Write(ctx context.Context, p string, r io.Reader, opts WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleaned, err := cleanFile(p)
	if err != nil {
		return err
	}

	dest := d.Path(cleaned)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", cleaned, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".write-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", cleaned, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", cleaned, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", cleaned, err)
	}

	mode := os.FileMode(0o600)
	if opts.Visibility == Public {
		mode = 0o644
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", cleaned, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", cleaned, err)
	}
	return nil
}
