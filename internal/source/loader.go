package source

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spiralhouse/aureacore/internal/domain/catalog"
)

// RootConfigPath is where the root document lives inside the source
// repository.
const RootConfigPath = "root.yaml"

// Loader parses catalog documents out of a config store.
type Loader struct {
	store *ConfigStore
}

// NewLoader returns a loader over the given store.
func NewLoader(store *ConfigStore) *Loader {
	return &Loader{store: store}
}

// LoadRoot reads and validates the root document at relPath.
func (l *Loader) LoadRoot(relPath string) (*RootConfig, error) {
	data, err := l.store.Load(relPath)
	if err != nil {
		return nil, err
	}
	var root RootConfig
	if err := decode(relPath, data, &root); err != nil {
		return nil, err
	}
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidDocument, relPath, err)
	}
	return &root, nil
}

// SaveRoot marshals the root document to relPath as YAML.
func (l *Loader) SaveRoot(relPath string, root *RootConfig) error {
	data, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("marshal root config: %w", err)
	}
	return l.store.Save(relPath, data)
}

// LoadServiceConfig reads the document referenced by ref. A document without
// a name inherits the ref's; a conflicting name is rejected since the root
// document is the authority on identity.
func (l *Loader) LoadServiceConfig(ref ServiceRef, global GlobalConfig) (catalog.ServiceConfig, error) {
	relPath := filepath.Join(global.ConfigDir, ref.ConfigPath)
	data, err := l.store.Load(relPath)
	if err != nil {
		return catalog.ServiceConfig{}, err
	}

	var cfg catalog.ServiceConfig
	if err := decode(relPath, data, &cfg); err != nil {
		return catalog.ServiceConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = ref.Name
	} else if cfg.Name != ref.Name {
		return catalog.ServiceConfig{}, fmt.Errorf("%w: %s declares name %q, referenced as %q",
			ErrInvalidDocument, relPath, cfg.Name, ref.Name)
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = catalog.CurrentSchemaVersion
	}
	return cfg, nil
}

// decode unmarshals data according to the file extension.
func decode(path string, data []byte, out any) error {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrInvalidDocument, path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrInvalidDocument, path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}
