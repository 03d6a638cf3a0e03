package source

import (
	"errors"
	"fmt"
)

// RootConfig is the top-level catalog document naming every managed service
// and where its configuration lives.
type RootConfig struct {
	// Version of the root document schema.
	Version string `yaml:"version" json:"version"`
	// Global settings applied to all services.
	Global GlobalConfig `yaml:"global" json:"global"`
	// Services managed by the catalog.
	Services []ServiceRef `yaml:"services" json:"services"`
}

// GlobalConfig holds settings shared by every service entry.
type GlobalConfig struct {
	// ConfigDir is the directory holding service documents, relative to the
	// repository root.
	ConfigDir string `yaml:"config_dir" json:"config_dir"`
	// DefaultNamespace applies to services without an explicit namespace.
	DefaultNamespace string `yaml:"default_namespace" json:"default_namespace"`
}

// ServiceRef points at one service's configuration document.
type ServiceRef struct {
	Name string `yaml:"name" json:"name"`
	// ConfigPath is relative to Global.ConfigDir.
	ConfigPath string `yaml:"config_path" json:"config_path"`
	// Namespace overrides Global.DefaultNamespace when set.
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}

// Root document validation errors.
var (
	ErrRootMissingVersion = errors.New("root config missing version")
	ErrRootMissingDir     = errors.New("root config missing global.config_dir")
	ErrRefIncomplete      = errors.New("service reference missing name or config_path")
	ErrRefDuplicate       = errors.New("duplicate service reference")
)

// Validate checks the root document for structural completeness.
func (r *RootConfig) Validate() error {
	if r.Version == "" {
		return ErrRootMissingVersion
	}
	if r.Global.ConfigDir == "" {
		return ErrRootMissingDir
	}
	seen := make(map[string]struct{}, len(r.Services))
	for _, ref := range r.Services {
		if ref.Name == "" || ref.ConfigPath == "" {
			return fmt.Errorf("%w: %+v", ErrRefIncomplete, ref)
		}
		id := ref.Qualified(r.Global.DefaultNamespace)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrRefDuplicate, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Qualified returns the ref's catalog id, applying the default namespace.
func (ref ServiceRef) Qualified(defaultNamespace string) string {
	ns := ref.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	if ns == "" {
		return ref.Name
	}
	return ns + "/" + ref.Name
}
