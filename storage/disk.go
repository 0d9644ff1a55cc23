package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores payloads in a local directory. The directory is served
// statically by the HTTP router under baseURL.
type Disk struct {
	dir     string
	baseURL string
}

// NewDisk creates the directory if needed.
func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Disk{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory payloads are written to.
func (d *Disk) Dir() string { return d.dir }

// Put writes the payload and returns its public URL.
func (d *Disk) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	object := objectName(name)
	if err := os.WriteFile(filepath.Join(d.dir, object), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", object, err)
	}
	return d.baseURL + "/" + object, nil
}
