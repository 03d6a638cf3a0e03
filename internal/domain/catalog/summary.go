package catalog

import "time"

// ValidationSummary aggregates the outcome of validating a batch of
// services, as produced by a full source sync.
type ValidationSummary struct {
	Successful []string
	Failed     []string
	Warnings   map[string][]string
	Timestamp  time.Time
}

// NewValidationSummary returns an empty summary stamped now.
func NewValidationSummary() *ValidationSummary {
	return &ValidationSummary{
		Warnings:  make(map[string][]string),
		Timestamp: time.Now().UTC(),
	}
}

// RecordSuccess marks id validated, keeping any warnings it produced.
func (v *ValidationSummary) RecordSuccess(id string, warnings []string) {
	v.Successful = append(v.Successful, id)
	if len(warnings) > 0 {
		v.Warnings[id] = warnings
	}
}

// RecordFailure marks id failed.
func (v *ValidationSummary) RecordFailure(id string, warnings []string) {
	v.Failed = append(v.Failed, id)
	if len(warnings) > 0 {
		v.Warnings[id] = warnings
	}
}

// IsSuccessful reports whether every service validated cleanly.
func (v *ValidationSummary) IsSuccessful() bool {
	return len(v.Failed) == 0
}

// Total returns the number of services the summary covers.
func (v *ValidationSummary) Total() int {
	return len(v.Successful) + len(v.Failed)
}
