package store

import (
	"errors"
	"fmt"

	"github.com/nordkredit/wallboard/pkg/benchmark"
)

// ErrWriteNotConfigured is returned when an update is attempted without
// write-capable store credentials. It is a deployment defect, distinct
// from the read path's silent demo mode.
var ErrWriteNotConfigured = errors.New(
	"store write credentials are not configured",
)

// ReadError indicates the store was reachable but the read failed.
// Defaults are never substituted in this case.
type ReadError struct {
	Status int
	Detail string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf(
		"fetching team benchmarks: store returned %d: %s",
		e.Status, e.Detail,
	)
}

// WriteError indicates the store rejected an update, or accepted it
// but matched no row.
type WriteError struct {
	Team   benchmark.Team
	Status int
	Detail string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf(
		"updating benchmark for %q: store returned %d: %s",
		e.Team, e.Status, e.Detail,
	)
}
