// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package interaction

import (
	"encoding/json"
	"fmt"
)

// DescriptorView is the tagged JSON form of a Descriptor, used in API bodies,
// events and descriptor files, e.g.
//
//	{"type":"Execute","namespace":"default","task_queue":"tq","workflow_id":"1",
//	 "workflow_type":"GreetingWorkflow","args":[{"name":"saxon"}]}
type DescriptorView struct {
	Type         Variant           `json:"type"`
	Namespace    string            `json:"namespace"`
	TaskQueue    string            `json:"task_queue"`
	WorkflowID   string            `json:"workflow_id,omitempty"`
	WorkflowType string            `json:"workflow_type,omitempty"`
	RunID        string            `json:"run_id,omitempty"`
	SignalName   string            `json:"signal_name,omitempty"`
	QueryType    string            `json:"query_type,omitempty"`
	Identity     string            `json:"identity,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	Control      string            `json:"control,omitempty"`
	Args         []json.RawMessage `json:"args,omitempty"`
	Input        []json.RawMessage `json:"input,omitempty"`
	QueryArgs    []json.RawMessage `json:"query_args,omitempty"`
}

// MarshalDescriptor renders d in its tagged JSON form.
func MarshalDescriptor(d Descriptor) ([]byte, error) {
	return json.Marshal(View(d))
}

// UnmarshalDescriptor parses the tagged JSON form produced by MarshalDescriptor.
func UnmarshalDescriptor(data []byte) (Descriptor, error) {
	var dj DescriptorView
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	return dj.Descriptor()
}

// Descriptor converts a view back into a Descriptor.
func (dj DescriptorView) Descriptor() (Descriptor, error) {
	switch dj.Type {
	case VariantExecute:
		return Execute{
			Namespace:    dj.Namespace,
			TaskQueue:    dj.TaskQueue,
			WorkflowID:   dj.WorkflowID,
			WorkflowType: dj.WorkflowType,
			Args:         dj.Args,
		}, nil
	case VariantSignal:
		return Signal{
			Namespace:  dj.Namespace,
			TaskQueue:  dj.TaskQueue,
			WorkflowID: dj.WorkflowID,
			RunID:      dj.RunID,
			SignalName: dj.SignalName,
			Input:      dj.Input,
			Identity:   dj.Identity,
			RequestID:  dj.RequestID,
			Control:    dj.Control,
		}, nil
	case VariantQuery:
		return Query{
			Namespace:  dj.Namespace,
			TaskQueue:  dj.TaskQueue,
			WorkflowID: dj.WorkflowID,
			RunID:      dj.RunID,
			QueryType:  dj.QueryType,
			QueryArgs:  dj.QueryArgs,
		}, nil
	default:
		return nil, unknownVariant(string(dj.Type))
	}
}

// View returns the serializable form of d.
func View(d Descriptor) DescriptorView {
	switch v := d.(type) {
	case Execute:
		return DescriptorView{
			Type:         VariantExecute,
			Namespace:    v.Namespace,
			TaskQueue:    v.TaskQueue,
			WorkflowID:   v.WorkflowID,
			WorkflowType: v.WorkflowType,
			Args:         v.Args,
		}
	case Signal:
		return DescriptorView{
			Type:       VariantSignal,
			Namespace:  v.Namespace,
			TaskQueue:  v.TaskQueue,
			WorkflowID: v.WorkflowID,
			RunID:      v.RunID,
			SignalName: v.SignalName,
			Input:      v.Input,
			Identity:   v.Identity,
			RequestID:  v.RequestID,
			Control:    v.Control,
		}
	case Query:
		return DescriptorView{
			Type:       VariantQuery,
			Namespace:  v.Namespace,
			TaskQueue:  v.TaskQueue,
			WorkflowID: v.WorkflowID,
			RunID:      v.RunID,
			QueryType:  v.QueryType,
			QueryArgs:  v.QueryArgs,
		}
	}
	return DescriptorView{}
}
