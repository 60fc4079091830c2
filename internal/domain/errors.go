package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDataInWindow is returned when a smoothing window contains no unmasked sea cell.
var ErrNoDataInWindow = errors.New("no unmasked sea cell in averaging window")

// OutOfRangeError reports a query coordinate outside the half-cell-extended grid envelope.
type OutOfRangeError struct {
	Axis  string // "latitude" or "longitude".
	Value float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %g is outside %s range %g - %g", e.Axis, e.Value, e.Axis, e.Min, e.Max)
}

// UnknownVariableError reports a requested variable that the dataset does not declare.
type UnknownVariableError struct {
	Name      string
	Available []string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q (available: '%s')", e.Name, strings.Join(e.Available, "', '"))
}

// DatasetLoadError reports a file that cannot be opened or lacks required structure.
// It is fatal for that file only.
type DatasetLoadError struct {
	Path string
	Err  error
}

func (e *DatasetLoadError) Error() string {
	return fmt.Sprintf("failed to load dataset %s: %v", e.Path, e.Err)
}

func (e *DatasetLoadError) Unwrap() error {
	return e.Err
}
