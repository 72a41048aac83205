package synth

import (
	"fmt"
	"strings"
)

// NotFittedError reports a Sample call whose state token does not belong to
// the backend's most recent fit: the backend was never fitted, the token
// came from another instance, or a later Fit superseded it.
type NotFittedError struct {
	Backend string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("synth: %s backend has no matching fit; call Fit and use its state", e.Backend)
}

// SamplingInfeasibleError reports a key column whose value space cannot
// supply the requested number of distinct keys. It is raised before any
// row is produced.
type SamplingInfeasibleError struct {
	Column    string
	Requested int
	Available uint64
}

func (e *SamplingInfeasibleError) Error() string {
	return fmt.Sprintf("synth: column %q cannot supply %d distinct keys, value space holds %d",
		e.Column, e.Requested, e.Available)
}

// UnsupportedBackendError reports a tag with no registered backend factory.
type UnsupportedBackendError struct {
	Tag   string
	Known []string
}

func (e *UnsupportedBackendError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("synth: unknown backend %q, none registered", e.Tag)
	}
	return fmt.Sprintf("synth: unknown backend %q, known backends: %s", e.Tag, strings.Join(e.Known, ", "))
}

// TrainingError wraps a failure during Fit with the tag of the backend
// that raised it.
type TrainingError struct {
	Backend string
	Err     error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("synth: fitting %s backend: %v", e.Backend, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }
