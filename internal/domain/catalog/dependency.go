package catalog

// Dependency declares that the owning service depends on another catalog
// service, optionally constrained to a version range.
type Dependency struct {
	// Service is the name of the depended-upon service.
	Service string `yaml:"service" json:"service"`
	// Namespace qualifies Service; empty means the owning service's
	// namespace.
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	// VersionConstraint is a semver range the dependency's current version
	// must satisfy, e.g. ">=1.2.0 <2.0.0". Empty means any version.
	VersionConstraint string `yaml:"version_constraint,omitempty" json:"version_constraint,omitempty"`
	// Optional dependencies are recorded in the graph but do not block the
	// dependent when absent or removed.
	Optional bool `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// Ref returns the qualified id of the dependency target, defaulting to
// fallbackNamespace when the declaration does not name one.
func (d Dependency) Ref(fallbackNamespace string) string {
	ns := d.Namespace
	if ns == "" {
		ns = fallbackNamespace
	}
	return QualifiedName(ns, d.Service)
}
