package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalURLPrefix is the public path the uploads directory is served under.
const LocalURLPrefix = "/uploads/"

// ErrInvalidFilename is returned for names that would escape the uploads directory.
var ErrInvalidFilename = errors.New("invalid filename")

// Local writes screenshots into a directory served at /uploads.
type Local struct {
	Dir string
}

// NewLocal returns a Local rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

// Save writes content as name and returns its public URL.
func (l *Local) Save(name string, content []byte) (string, error) {
	path, err := l.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return LocalURLPrefix + name, nil
}

// Delete removes name from the uploads directory. A missing file is not an error.
func (l *Local) Delete(name string) error {
	path, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// FilenameFromURL extracts the stored file name from a /uploads/ URL.
func FilenameFromURL(url string) (string, bool) {
	name, ok := strings.CutPrefix(url, LocalURLPrefix)
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

func (l *Local) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidFilename
	}
	root, err := filepath.Abs(l.Dir)
	if err != nil {
		return "", fmt.Errorf("resolve upload dir: %w", err)
	}
	path := filepath.Join(root, name)
	if filepath.Dir(path) != root {
		return "", ErrInvalidFilename
	}
	return path, nil
}
