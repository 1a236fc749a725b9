// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package interaction

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

// Validate checks that d carries every field the decoder will require, so that
// Decode(Encode(d)) cannot fail with KeyMissing. It returns nil or a
// ValidationErrors value.
func Validate(d Descriptor) error {
	if d == nil {
		return ValidationErrors{{Field: "descriptor", Message: "is nil"}}
	}

	var errs ValidationErrors
	require := func(k Key, v string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, ValidationError{Field: k.Name(), Message: "is required"})
		}
	}

	require(KeyNamespace, d.GetNamespace())
	require(KeyTaskQueue, d.GetTaskQueue())

	switch v := d.(type) {
	case Execute:
		require(KeyWorkflowID, v.WorkflowID)
		require(KeyWorkflowType, v.WorkflowType)
	case Signal:
		require(KeySignalName, v.SignalName)
	case Query:
		require(KeyQueryType, v.QueryType)
	default:
		errs = append(errs, ValidationError{Field: KeyEventType.Name(), Message: fmt.Sprintf("unsupported descriptor %T", d)})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
