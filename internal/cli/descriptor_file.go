// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal/utils"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DescriptorFile is a descriptor written by hand. YAML is the native format;
// JSON files parse too since JSON is valid YAML.
type DescriptorFile struct {
	Type         string `yaml:"type"`
	Namespace    string `yaml:"namespace"`
	TaskQueue    string `yaml:"task_queue"`
	WorkflowID   string `yaml:"workflow_id,omitempty"`
	WorkflowType string `yaml:"workflow_type,omitempty"`
	RunID        string `yaml:"run_id,omitempty"`
	SignalName   string `yaml:"signal_name,omitempty"`
	QueryType    string `yaml:"query_type,omitempty"`
	Identity     string `yaml:"identity,omitempty"`
	RequestID    string `yaml:"request_id,omitempty"`
	Control      string `yaml:"control,omitempty"`
	Args         []any  `yaml:"args,omitempty"`
	Input        []any  `yaml:"input,omitempty"`
	QueryArgs    []any  `yaml:"query_args,omitempty"`

	// Prompt settings used by the post command.
	Text  string `yaml:"text,omitempty"`
	Label string `yaml:"label,omitempty"`
	Value string `yaml:"value,omitempty"`
	Style string `yaml:"style,omitempty"`
}

// LoadDescriptorFile reads and validates a descriptor file. An Execute
// descriptor without a workflow_id gets a generated one.
func LoadDescriptorFile(path string) (*DescriptorFile, interaction.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read descriptor file: %w", err)
	}

	var file DescriptorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse descriptor file: %w", err)
	}

	if file.Type == string(interaction.VariantExecute) && file.WorkflowID == "" && file.WorkflowType != "" {
		file.WorkflowID = utils.GenerateWorkflowID(file.WorkflowType, uuid.NewString())
	}

	desc, err := file.Descriptor()
	if err != nil {
		return nil, nil, err
	}
	if err := interaction.Validate(desc); err != nil {
		return nil, nil, fmt.Errorf("invalid descriptor: %w", err)
	}
	return &file, desc, nil
}

// Descriptor converts the file into a Descriptor.
func (f *DescriptorFile) Descriptor() (interaction.Descriptor, error) {
	if f.Type == "" {
		return nil, errors.New("descriptor type is required (Execute, Signal or Query)")
	}

	args, err := toRawList("args", f.Args)
	if err != nil {
		return nil, err
	}
	input, err := toRawList("input", f.Input)
	if err != nil {
		return nil, err
	}
	queryArgs, err := toRawList("query_args", f.QueryArgs)
	if err != nil {
		return nil, err
	}

	return interaction.DescriptorView{
		Type:         interaction.Variant(f.Type),
		Namespace:    f.Namespace,
		TaskQueue:    f.TaskQueue,
		WorkflowID:   f.WorkflowID,
		WorkflowType: f.WorkflowType,
		RunID:        f.RunID,
		SignalName:   f.SignalName,
		QueryType:    f.QueryType,
		Identity:     f.Identity,
		RequestID:    f.RequestID,
		Control:      f.Control,
		Args:         args,
		Input:        input,
		QueryArgs:    queryArgs,
	}.Descriptor()
}

// FileFromDescriptor is the inverse of Descriptor, used to print decoded
// tokens in the same shape encode accepts.
func FileFromDescriptor(d interaction.Descriptor) (*DescriptorFile, error) {
	v := interaction.View(d)
	file := &DescriptorFile{
		Type:         string(v.Type),
		Namespace:    v.Namespace,
		TaskQueue:    v.TaskQueue,
		WorkflowID:   v.WorkflowID,
		WorkflowType: v.WorkflowType,
		RunID:        v.RunID,
		SignalName:   v.SignalName,
		QueryType:    v.QueryType,
		Identity:     v.Identity,
		RequestID:    v.RequestID,
		Control:      v.Control,
	}

	var err error
	if file.Args, err = fromRawList(v.Args); err != nil {
		return nil, err
	}
	if file.Input, err = fromRawList(v.Input); err != nil {
		return nil, err
	}
	if file.QueryArgs, err = fromRawList(v.QueryArgs); err != nil {
		return nil, err
	}
	return file, nil
}

func toRawList(field string, values []any) ([]json.RawMessage, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]json.RawMessage, 0, len(values))
	for i, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] is not representable as JSON: %w", field, i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

func fromRawList(raws []json.RawMessage) ([]any, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]any, 0, len(raws))
	for _, raw := range raws {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to parse argument %s: %w", raw, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseJSONArgs parses command line arguments as JSON values.
func parseJSONArgs(args []string) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(args))
	for i, a := range args {
		if !json.Valid([]byte(a)) {
			return nil, fmt.Errorf("argument %d is not valid JSON (quote strings, e.g. '\"approve\"'): %s", i+1, a)
		}
		out = append(out, json.RawMessage(a))
	}
	return out, nil
}
