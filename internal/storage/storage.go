// Package storage hosts uploaded images and hands back retrievable URLs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStore stores raw image bytes under a name and returns a URL the
// stored object can later be fetched from.
type ObjectStore interface {
	Put(name string, data []byte) (string, error)
	Ready() error
}

// Disk stores objects as files under a local directory, served by the HTTP
// layer under a configured base URL.
type Disk struct {
	dir     string
	baseURL string
}

// NewDisk creates the uploads directory if needed.
func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &Disk{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes data under name and returns its URL.
func (d *Disk) Put(name string, data []byte) (string, error) {
	if err := os.WriteFile(filepath.Join(d.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return d.baseURL + "/" + name, nil
}

// Ready reports whether the uploads directory is usable.
func (d *Disk) Ready() error {
	info, err := os.Stat(d.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", d.dir)
	}
	return nil
}

// Dir returns the directory objects are written to.
func (d *Disk) Dir() string { return d.dir }
