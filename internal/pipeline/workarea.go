package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// workArea is a temporary directory owned by one source for the duration
// of its processing. Encoded derivatives are staged here before upload.
type workArea struct {
	dir string
}

func newWorkArea(parent string) (*workArea, error) {
	dir, err := os.MkdirTemp(parent, "image-craft-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work area: %w", err)
	}
	return &workArea{dir: dir}, nil
}

// stage writes data under name and returns an open handle positioned at
// the start. The caller closes it.
func (w *workArea) stage(name string, data []byte) (*os.File, error) {
	p := filepath.Join(w.dir, filepath.Base(name))
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", name, err)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", name, err)
	}
	return f, nil
}

func (w *workArea) close() error {
	return os.RemoveAll(w.dir)
}
