package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is the file access contract the rest of the service works against.
// Paths are vault-relative and use forward slashes, matching how the host
// note-taking apps address files.
type Store interface {
	Exists(path string) bool
	// List returns the files and folders directly under dir, as
	// vault-relative paths including the dir prefix.
	List(dir string) (files []string, folders []string, err error)
	Read(path string) (string, error)
	Write(path string, content string) error
}

// DirStore implements Store on top of a directory on disk.
type DirStore struct {
	base string
}

// NewDirStore creates a store rooted at the given directory.
func NewDirStore(base string) *DirStore {
	return &DirStore{base: base}
}

func (s *DirStore) abs(path string) string {
	return filepath.Join(s.base, filepath.FromSlash(path))
}

// Exists reports whether a file or folder is present in the vault.
func (s *DirStore) Exists(path string) bool {
	_, err := os.Stat(s.abs(path))
	return err == nil
}

// List enumerates dir non-recursively. Entries come back sorted so callers
// iterating months and days see them in calendar order.
func (s *DirStore) List(dir string) ([]string, []string, error) {
	entries, err := os.ReadDir(s.abs(dir))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var files, folders []string
	for _, e := range entries {
		joined := e.Name()
		if dir != "" && dir != "." {
			joined = strings.TrimSuffix(dir, "/") + "/" + e.Name()
		}
		if e.IsDir() {
			folders = append(folders, joined)
		} else {
			files = append(files, joined)
		}
	}
	sort.Strings(files)
	sort.Strings(folders)
	return files, folders, nil
}

// Read returns a file's content as a string.
func (s *DirStore) Read(path string) (string, error) {
	data, err := os.ReadFile(s.abs(path))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Write stores content, creating parent folders as needed.
func (s *DirStore) Write(path string, content string) error {
	target := s.abs(path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create folder for %s: %w", path, err)
	}
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// BasePath returns the on-disk location of the vault root.
func (s *DirStore) BasePath() string {
	return s.base
}
