// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"encoding/json"
)

// OutcomeKind names which engine operation produced an Outcome.
type OutcomeKind string

const (
	OutcomeStarted  OutcomeKind = "started"
	OutcomeSignaled OutcomeKind = "signaled"
	OutcomeQueried  OutcomeKind = "queried"
)

// Outcome is the result of a successful dispatch. It is implemented only by
// Started, Signaled and Queried.
type Outcome interface {
	Kind() OutcomeKind
	outcome()
}

// Started carries the run id assigned to a newly started workflow.
type Started struct {
	RunID string
}

// Signaled reports that the engine accepted the signal.
type Signaled struct{}

// Queried carries the decoded query result, one entry per result payload.
type Queried struct {
	Result []json.RawMessage
}

func (Started) Kind() OutcomeKind  { return OutcomeStarted }
func (Signaled) Kind() OutcomeKind { return OutcomeSignaled }
func (Queried) Kind() OutcomeKind  { return OutcomeQueried }

func (Started) outcome()  {}
func (Signaled) outcome() {}
func (Queried) outcome()  {}

// OutcomeView is the JSON form of an Outcome used by the API and events.
type OutcomeView struct {
	Kind   OutcomeKind       `json:"kind"`
	RunID  string            `json:"run_id,omitempty"`
	Result []json.RawMessage `json:"result,omitempty"`
}

// ViewOutcome returns the serializable form of o.
func ViewOutcome(o Outcome) OutcomeView {
	switch v := o.(type) {
	case Started:
		return OutcomeView{Kind: OutcomeStarted, RunID: v.RunID}
	case Signaled:
		return OutcomeView{Kind: OutcomeSignaled}
	case Queried:
		return OutcomeView{Kind: OutcomeQueried, Result: v.Result}
	}
	return OutcomeView{}
}
