// Package storage keeps uploaded files on the local disk and serves them
// back through stable public URLs.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local writes uploads under a single directory. The directory is exposed
// by the HTTP layer as /files, so PublicURL stays valid as long as the
// directory survives.
type Local struct {
	dir     string
	urlHost string
}

func NewLocal(dir, urlHost string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{dir: dir, urlHost: strings.TrimRight(urlHost, "/")}, nil
}

// Dir returns the backing directory, for static file serving.
func (l *Local) Dir() string { return l.dir }

// Upload stores the content under a fresh name that keeps the original
// extension, and returns the stored object name.
func (l *Local) Upload(filename string, content io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	dst, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	return name, nil
}

// PublicURL maps a stored object name to the URL clients fetch it from.
func (l *Local) PublicURL(name string) string {
	return l.urlHost + path.Join("/files", name)
}

// Delete removes a stored object. Deleting a missing object is not an
// error.
func (l *Local) Delete(name string) error {
	err := os.Remove(filepath.Join(l.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
