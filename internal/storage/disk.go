package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ironsheep/image-craft/internal/config"
)

var (
	// ErrNotFound is returned by Read when the path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownDriver is returned by Open for an unsupported driver.
	ErrUnknownDriver = errors.New("unknown disk driver")
)

// Visibility controls who may read a written file.
type Visibility int

const (
	Private Visibility = iota
	Public
)

// WriteOptions carry per-write metadata.
type WriteOptions struct {
	Visibility  Visibility
	ContentType string
}

// Disk is a named storage backend.
type Disk interface {
	// List returns every file under dir, recursively, as sorted paths
	// relative to the disk root.
	List(ctx context.Context, dir string) ([]string, error)

	// Read returns the full content of the file at p.
	Read(ctx context.Context, p string) ([]byte, error)

	// Write stores r at p, creating parent directories as needed and
	// replacing any existing file.
	Write(ctx context.Context, p string, r io.Reader, opts WriteOptions) error

	// URL returns the public base URL of the disk, or "" when none is
	// configured.
	URL() string
}

// Open builds the disk described by d.
func Open(name string, d config.Disk) (Disk, error) {
	switch strings.ToLower(d.Driver) {
	case "local", "":
		return NewLocalDisk(d.Root, d.URL)
	case "s3":
		return NewS3Disk(S3Config{
			Endpoint:  d.Endpoint,
			Region:    d.Region,
			AccessKey: d.AccessKey,
			SecretKey: d.SecretKey,
			Bucket:    d.Bucket,
			UseSSL:    d.UseSSL,
			Prefix:    d.Prefix,
			URL:       d.URL,
		})
	case "memory":
		return NewMemoryDisk(d.URL), nil
	default:
		return nil, fmt.Errorf("%w %q for disk %q", ErrUnknownDriver, d.Driver, name)
	}
}

// OpenNamed looks up name in cfg and opens it.
func OpenNamed(cfg *config.Config, name string) (Disk, error) {
	d, err := cfg.Disk(name)
	if err != nil {
		return nil, err
	}
	return Open(name, d)
}

// Clean normalizes a storage-relative path: forward slashes, no leading or
// trailing slash, no "." or ".." segments. ".." never climbs above the disk
// root.
func Clean(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// cleanFile is Clean for paths that must name a file.
func cleanFile(p string) (string, error) {
	cleaned := Clean(p)
	if cleaned == "" {
		return "", fmt.Errorf("path is required")
	}
	return cleaned, nil
}
