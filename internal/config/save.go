package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigTemplate is written by WriteDefaultConfig. Kept as literal
// YAML so the generated file carries comments.
const defaultConfigTemplate = `# aureacore configuration
source:
  # Directory holding the root document and service configurations.
  dir: ""
  # Git remote cloned on init. Leave empty to treat dir as a plain directory.
  repo_url: ""
  root_file: root.yaml

registry:
  # How long a snapshot counts as fresh before queries report it stale.
  snapshot_ttl: 5m

archive:
  enabled: true
  # path defaults to ~/.aureacore/archive.db when empty
  path: ""
  keep: 10

watcher:
  enabled: false
  debounce: 500ms

tracing:
  enabled: false
  # exporter: none, file, stdout, otlp
  exporter: file
  file_path: ""
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
  service_name: aureacore

log:
  enabled: false
  # path defaults to ~/.aureacore/debug.log when empty
  path: ""
  level: info
`

// WriteDefaultConfig creates a commented default config file at configPath.
// Refuses to overwrite an existing file. The write is atomic: content lands
// in a temp file first and is renamed into place.
func WriteDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".aureacore.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.WriteString(defaultConfigTemplate); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
