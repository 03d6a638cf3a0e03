package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() ServiceConfig {
	return ServiceConfig{
		Name:        "auth",
		Version:     "1.2.3",
		ServiceType: TypeRest,
		Endpoints: []Endpoint{
			{Name: "login", Path: "/api/v1/login", Method: "POST"},
		},
		Dependencies: []Dependency{
			{Service: "user", VersionConstraint: ">=1.0.0"},
		},
	}
}

func TestServiceConfig_Validate(t *testing.T) {
	warnings, err := validConfig().Validate()
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestServiceConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServiceConfig)
		want   error
	}{
		{"missing name", func(c *ServiceConfig) { c.Name = "" }, ErrMissingName},
		{"missing version", func(c *ServiceConfig) { c.Version = "" }, ErrMissingVersion},
		{"garbage version", func(c *ServiceConfig) { c.Version = "not-a-version" }, ErrInvalidVersion},
		{"future schema", func(c *ServiceConfig) { c.SchemaVersion = "2.0.0" }, ErrUnsupportedSchema},
		{"unnamed dependency", func(c *ServiceConfig) { c.Dependencies[0].Service = "" }, ErrDependencyNoTarget},
		{"garbage constraint", func(c *ServiceConfig) { c.Dependencies[0].VersionConstraint = ">>nope" }, ErrInvalidConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			_, err := cfg.Validate()
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestServiceConfig_Validate_CurrentSchemaVersionAccepted(t *testing.T) {
	cfg := validConfig()
	cfg.SchemaVersion = CurrentSchemaVersion

	_, err := cfg.Validate()
	require.NoError(t, err)
}

func TestServiceConfig_Validate_Warnings(t *testing.T) {
	cfg := validConfig()
	cfg.ServiceType = ""
	cfg.Dependencies = append(cfg.Dependencies, Dependency{Service: "user"})

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	require.Contains(t, warnings, "service_type not declared")
	require.Contains(t, warnings, "duplicate dependency on user")
}

func TestServiceConfig_Validate_UnrecognizedType(t *testing.T) {
	cfg := validConfig()
	cfg.ServiceType = "soap"

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	require.Contains(t, warnings, `unrecognized service_type "soap"`)
}

func TestServiceConfig_Validate_EmptyConstraintAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Dependencies[0].VersionConstraint = ""

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	require.Empty(t, warnings)
}
