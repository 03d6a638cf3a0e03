package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Errors returned by the config store and loader.
var (
	ErrConfigNotFound    = errors.New("configuration file not found")
	ErrUnsupportedFormat = errors.New("unsupported configuration file format")
	ErrInvalidDocument   = errors.New("invalid configuration document")
	ErrPathOutsideStore  = errors.New("path escapes the config directory")
)

// ConfigStore reads and writes configuration documents under a base
// directory, typically the checkout of the source-of-truth repository.
// Paths given to its methods are relative to that base.
type ConfigStore struct {
	baseDir string
}

// NewConfigStore returns a store rooted at baseDir, creating the directory
// when missing.
func NewConfigStore(baseDir string) (*ConfigStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	return &ConfigStore{baseDir: baseDir}, nil
}

// BaseDir returns the store's base directory.
func (s *ConfigStore) BaseDir() string {
	return s.baseDir
}

// resolve maps relPath inside the base directory. Documents come from the
// root document's service refs, so a path climbing out of the checkout is
// a malformed or hostile document, not a usable location.
func (s *ConfigStore) resolve(relPath string) (string, error) {
	full := filepath.Join(s.baseDir, relPath)
	rel, err := filepath.Rel(s.baseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideStore, relPath)
	}
	return full, nil
}

// Load reads the document at relPath.
func (s *ConfigStore) Load(relPath string) ([]byte, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, relPath)
		}
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}
	return data, nil
}

// Save writes the document at relPath, creating parent directories. The
// write goes through a temp file in the same directory and a rename, so a
// reader never observes a half-written document.
func (s *ConfigStore) Save(relPath string, content []byte) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", relPath, err)
	}

	temp, err := os.CreateTemp(dir, filepath.Base(full)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(content); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, full); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// List returns the relative paths of every configuration document under the
// base directory, walking subdirectories. Only YAML and JSON files count.
func (s *ConfigStore) List() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml", ".json":
		default:
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	return paths, nil
}
