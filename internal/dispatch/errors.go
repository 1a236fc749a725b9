// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"errors"
	"fmt"

	"github.com/noldarim/tsbridge/internal/orchestrator/temporal"
)

// ErrNilDescriptor is returned when Execute is called without a descriptor.
var ErrNilDescriptor = errors.New("descriptor is nil")

// ExternalError wraps a failure reported by the workflow engine or the
// transport. Op names the engine operation. Dispatch never retries these.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

// QueryRejectedError is returned when the engine refuses a query because of
// the workflow's state.
type QueryRejectedError struct {
	WorkflowID string
	RunID      string
	Status     temporal.WorkflowStatus
}

func (e *QueryRejectedError) Error() string {
	return fmt.Sprintf("query rejected for workflow %s: workflow is %s", e.WorkflowID, e.Status)
}

// IsExternal reports whether err came from the engine rather than from the
// descriptor itself.
func IsExternal(err error) bool {
	var ext *ExternalError
	return errors.As(err, &ext)
}
