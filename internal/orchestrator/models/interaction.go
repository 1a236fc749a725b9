// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models holds the persisted audit records for dispatched tokens.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// InteractionOutcome is the stored result of one dispatch attempt.
type InteractionOutcome string

const (
	OutcomeStarted  InteractionOutcome = "started"
	OutcomeSignaled InteractionOutcome = "signaled"
	OutcomeQueried  InteractionOutcome = "queried"
	OutcomeRejected InteractionOutcome = "rejected" // token did not decode or validate
	OutcomeFailed   InteractionOutcome = "failed"   // Temporal call failed
)

// InteractionSource identifies where a token arrived from.
type InteractionSource string

const (
	SourceSlack InteractionSource = "slack"
	SourceAPI   InteractionSource = "api"
	SourceCLI   InteractionSource = "cli"
)

// JSONArgs is a list of JSON documents stored as a single JSON array column.
type JSONArgs []json.RawMessage

// Scan implements the sql.Scanner interface
func (a *JSONArgs) Scan(value any) error {
	if value == nil {
		*a = JSONArgs{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("cannot scan JSONArgs from non-string/[]byte value")
	}
}

// Value implements the driver.Valuer interface
func (a JSONArgs) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]json.RawMessage(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// InteractionRecord is one row of the dispatch audit log. Workflow state is
// never stored here, only what was asked of Temporal and what came back.
type InteractionRecord struct {
	ID         string             `gorm:"primaryKey;type:text" json:"id"`
	Token      string             `gorm:"type:text;not null" json:"token"`
	Variant    string             `gorm:"type:text;index" json:"variant,omitempty"`
	Namespace  string             `gorm:"type:text;index:idx_interaction_target" json:"namespace,omitempty"`
	WorkflowID string             `gorm:"type:text;index:idx_interaction_target" json:"workflow_id,omitempty"`
	RunID      string             `gorm:"type:text" json:"run_id,omitempty"`
	Args       JSONArgs           `gorm:"type:text" json:"args,omitempty"`
	Outcome    InteractionOutcome `gorm:"type:text;not null" json:"outcome"`
	Result     JSONArgs           `gorm:"type:text" json:"result,omitempty"`
	Error      string             `gorm:"type:text" json:"error,omitempty"`
	Source     InteractionSource  `gorm:"type:text" json:"source,omitempty"`
	UserID     string             `gorm:"type:text" json:"user_id,omitempty"`
	CreatedAt  time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
}

// Succeeded reports whether the dispatch reached Temporal and was accepted.
func (r *InteractionRecord) Succeeded() bool {
	switch r.Outcome {
	case OutcomeStarted, OutcomeSignaled, OutcomeQueried:
		return true
	default:
		return false
	}
}

// InteractionFilter narrows ListInteractions. Zero fields match everything.
type InteractionFilter struct {
	Namespace  string
	WorkflowID string
	Limit      int
}
