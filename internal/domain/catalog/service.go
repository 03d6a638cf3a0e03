package catalog

import (
	"fmt"
	"time"
)

// ServiceState is the lifecycle state of a catalog entry.
type ServiceState string

const (
	// StatePending marks a service that is registered but not yet validated
	// against the rest of the catalog.
	StatePending ServiceState = "pending"
	// StateConfigured marks a service whose configuration passed validation.
	StateConfigured ServiceState = "configured"
	// StateError marks a service whose configuration failed validation; the
	// status message carries the diagnostic.
	StateError ServiceState = "error"
)

// ServiceStatus carries a service's state together with its diagnostics.
// The zero value is not meaningful; use NewStatus.
type ServiceStatus struct {
	State       ServiceState
	Message     string
	Warnings    []string
	LastChecked time.Time
}

// NewStatus returns a fresh status in the given state, checked now.
func NewStatus(state ServiceState) ServiceStatus {
	return ServiceStatus{State: state, LastChecked: time.Now().UTC()}
}

// WithError moves the status to StateError with a diagnostic message.
func (s ServiceStatus) WithError(message string) ServiceStatus {
	s.State = StateError
	s.Message = message
	s.LastChecked = time.Now().UTC()
	return s
}

// WithWarnings attaches validation warnings without changing the state.
func (s ServiceStatus) WithWarnings(warnings []string) ServiceStatus {
	s.Warnings = warnings
	s.LastChecked = time.Now().UTC()
	return s
}

// WithState moves the status to the given state and clears any message.
func (s ServiceStatus) WithState(state ServiceState) ServiceStatus {
	s.State = state
	s.Message = ""
	s.LastChecked = time.Now().UTC()
	return s
}

// Service is one catalog entry: a named service in a namespace with its
// current configuration document and lifecycle status.
type Service struct {
	Name        string
	Namespace   string
	Config      ServiceConfig
	Status      ServiceStatus
	LastUpdated time.Time
}

// NewService returns a pending entry for the given configuration.
func NewService(name, namespace string, config ServiceConfig) *Service {
	return &Service{
		Name:        name,
		Namespace:   namespace,
		Config:      config,
		Status:      NewStatus(StatePending),
		LastUpdated: time.Now().UTC(),
	}
}

// ID returns the service's qualified name.
func (s *Service) ID() string {
	return QualifiedName(s.Namespace, s.Name)
}

// UpdateConfig replaces the configuration and resets the status to pending.
func (s *Service) UpdateConfig(config ServiceConfig) {
	s.Config = config
	s.Status = NewStatus(StatePending)
	s.LastUpdated = time.Now().UTC()
}

// QualifiedName joins a namespace and name into the catalog-wide id,
// "namespace/name". An empty namespace yields the bare name.
func QualifiedName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return fmt.Sprintf("%s/%s", namespace, name)
}
