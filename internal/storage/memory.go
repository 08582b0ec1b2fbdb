package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryDisk keeps files in memory. It is used by tests and dry runs.
type MemoryDisk struct {
	mu    sync.RWMutex
	files map[string]memoryFile
	url   string
}

type memoryFile struct {
	data []byte
	opts WriteOptions
}

// NewMemoryDisk returns an empty in-memory disk.
func NewMemoryDisk(url string) *MemoryDisk {
	return &MemoryDisk{
		files: make(map[string]memoryFile),
		url:   strings.TrimRight(url, "/"),
	}
}

// URL implements Disk.
func (d *MemoryDisk) URL() string {
	return d.url
}

// List implements Disk.
func (d *MemoryDisk) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := Clean(dir)
	if prefix != "" {
		prefix += "/"
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.files))
	for p := range d.files {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Read implements Disk.
func (d *MemoryDisk) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleaned, err := cleanFile(p)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.files[cleaned]
	if !ok {
		return nil, fmt.Errorf("%s: %w", cleaned, ErrNotFound)
	}
	return append([]byte(nil), f.data...), nil
}

// Write implements Disk.
func (d *MemoryDisk) Write(ctx context.Context, p string, r io.Reader, opts WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleaned, err := cleanFile(p)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content for %s: %w", cleaned, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[cleaned] = memoryFile{data: data, opts: opts}
	return nil
}

// Put stores data at p with private visibility. It is a convenience for
// seeding a disk.
func (d *MemoryDisk) Put(p string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[Clean(p)] = memoryFile{data: append([]byte(nil), data...)}
}

// Options returns the options p was written with.
func (d *MemoryDisk) Options(p string) (WriteOptions, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.files[Clean(p)]
	return f.opts, ok
}
