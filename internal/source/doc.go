// Package source reads the catalog's source of truth: a directory (usually
// a git checkout) holding a root document that names every service and a
// YAML or JSON configuration document per service.
package source
