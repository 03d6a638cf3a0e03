package catalog

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CurrentSchemaVersion is the schema version written by this release and
// assumed when a document does not declare one.
const CurrentSchemaVersion = "1.0.0"

// ServiceType classifies how a service is consumed.
type ServiceType string

const (
	TypeRest        ServiceType = "rest"
	TypeGrpc        ServiceType = "grpc"
	TypeGraphQL     ServiceType = "graphql"
	TypeEventDriven ServiceType = "event-driven"
	TypeOther       ServiceType = "other"
)

// Endpoint describes one addressable surface of a service.
type Endpoint struct {
	Name        string `yaml:"name" json:"name"`
	Path        string `yaml:"path" json:"path"`
	Method      string `yaml:"method,omitempty" json:"method,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ServiceConfig is the declared configuration document of a service, as
// parsed from its YAML or JSON file in the source repository.
type ServiceConfig struct {
	Name             string         `yaml:"name" json:"name"`
	Version          string         `yaml:"version" json:"version"`
	SchemaVersion    string         `yaml:"schema_version,omitempty" json:"schema_version,omitempty"`
	Description      string         `yaml:"description,omitempty" json:"description,omitempty"`
	Owner            string         `yaml:"owner,omitempty" json:"owner,omitempty"`
	DocumentationURL string         `yaml:"documentation_url,omitempty" json:"documentation_url,omitempty"`
	ServiceType      ServiceType    `yaml:"service_type" json:"service_type"`
	Endpoints        []Endpoint     `yaml:"endpoints,omitempty" json:"endpoints,omitempty"`
	Dependencies     []Dependency   `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Metadata         map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Document-level validation errors.
var (
	ErrMissingName        = errors.New("service config missing name")
	ErrMissingVersion     = errors.New("service config missing version")
	ErrInvalidVersion     = errors.New("service version is not valid semver")
	ErrInvalidConstraint  = errors.New("dependency version constraint is not valid")
	ErrUnsupportedSchema  = errors.New("unsupported schema version")
	ErrDependencyNoTarget = errors.New("dependency declaration missing service name")
)

// Validate checks the document in isolation: required fields, parseable
// version and constraints, supported schema version. Cross-service checks
// (dangling references, constraint satisfaction, cycles) belong to the
// registry, which can see the whole catalog.
//
// Returns non-fatal findings as warnings alongside a nil error.
func (c ServiceConfig) Validate() ([]string, error) {
	if c.Name == "" {
		return nil, ErrMissingName
	}
	if c.Version == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingVersion, c.Name)
	}
	if _, err := semver.NewVersion(c.Version); err != nil {
		return nil, fmt.Errorf("%w: %s: %q", ErrInvalidVersion, c.Name, c.Version)
	}
	if v := c.SchemaVersion; v != "" && v != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: %s declares %q, supported %q",
			ErrUnsupportedSchema, c.Name, v, CurrentSchemaVersion)
	}

	var warnings []string
	seen := make(map[string]struct{}, len(c.Dependencies))
	for _, dep := range c.Dependencies {
		if dep.Service == "" {
			return nil, fmt.Errorf("%w: in %s", ErrDependencyNoTarget, c.Name)
		}
		if dep.VersionConstraint != "" {
			if _, err := semver.NewConstraint(dep.VersionConstraint); err != nil {
				return nil, fmt.Errorf("%w: %s -> %s: %q",
					ErrInvalidConstraint, c.Name, dep.Service, dep.VersionConstraint)
			}
		}
		ref := dep.Ref("")
		if _, dup := seen[ref]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate dependency on %s", ref))
		}
		seen[ref] = struct{}{}
	}

	switch c.ServiceType {
	case TypeRest, TypeGrpc, TypeGraphQL, TypeEventDriven, TypeOther:
	case "":
		warnings = append(warnings, "service_type not declared")
	default:
		warnings = append(warnings, fmt.Sprintf("unrecognized service_type %q", c.ServiceType))
	}

	return warnings, nil
}
