// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package interaction

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys_Order(t *testing.T) {
	got := Keys()
	want := []Key{KeyEventType, KeyWorkflowID, KeyNamespace, KeyTaskQueue, KeyWorkflowType, KeyRunID, KeySignalName, KeyQueryType, KeyQueryArgs}
	assert.Equal(t, want, got)

	var wire string
	for _, k := range got {
		wire += k.String()
	}
	assert.Equal(t, "EWNTYRSQU", wire)

	// Keys returns a copy
	got[0] = KeyQueryArgs
	assert.Equal(t, KeyEventType, Keys()[0])
}

func TestKey_KV(t *testing.T) {
	assert.Equal(t, "W:wf-1", KeyWorkflowID.KV("wf-1"))
	assert.Equal(t, "R:", KeyRunID.KV(""))
}

func TestParseKey(t *testing.T) {
	for _, k := range Keys() {
		parsed, ok := ParseKey(k.String())
		require.True(t, ok, "key %s should parse", k)
		assert.Equal(t, k, parsed)
	}

	for _, bad := range []string{"", "X", "e", "EW", "ZZZ"} {
		_, ok := ParseKey(bad)
		assert.False(t, ok, "%q must not parse", bad)
	}
}

func TestEncode_Execute(t *testing.T) {
	d := Execute{Namespace: "ns", TaskQueue: "tq", WorkflowID: "wf1", WorkflowType: "Greet"}
	assert.Equal(t, "E:Execute,W:wf1,N:ns,T:tq,Y:Greet", Encode(d))
}

func TestEncode_Signal(t *testing.T) {
	d := Signal{
		Namespace:  "default",
		TaskQueue:  "tq1",
		WorkflowID: "wf-123",
		RunID:      "run-9",
		SignalName: "approve-signal",
		Identity:   "not-on-the-wire",
		Input:      []json.RawMessage{json.RawMessage(`"approve"`)},
	}
	assert.Equal(t, "E:Signal,W:wf-123,N:default,T:tq1,R:run-9,S:approve-signal", Encode(d))
}

func TestEncode_OptionalFieldsEmittedEmpty(t *testing.T) {
	d := Signal{Namespace: "default", TaskQueue: "tq1", SignalName: "go"}
	assert.Equal(t, "E:Signal,W:,N:default,T:tq1,R:,S:go", Encode(d))

	q := Query{Namespace: "default", TaskQueue: "tq1", QueryType: "status"}
	assert.Equal(t, "E:Query,W:,N:default,T:tq1,R:,Q:status,U:", Encode(q))
}

func TestEncode_QueryCarriesOnlyFirstArgument(t *testing.T) {
	q := Query{
		Namespace:  "ns",
		TaskQueue:  "tq",
		WorkflowID: "wf",
		QueryType:  "status",
		QueryArgs:  []json.RawMessage{json.RawMessage(`"verbose"`), json.RawMessage(`42`)},
	}
	assert.Equal(t, `E:Query,W:wf,N:ns,T:tq,R:,Q:status,U:"verbose"`, Encode(q))
}

func TestEncode_EscapesDelimiters(t *testing.T) {
	d := Execute{Namespace: "ns", TaskQueue: "a,b", WorkflowID: "id:1", WorkflowType: "100%"}
	token := Encode(d)
	assert.Equal(t, "E:Execute,W:id%3A1,N:ns,T:a%2Cb,Y:100%25", token)

	decoded, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, d, decoded)
}

func TestEncode_Deterministic(t *testing.T) {
	d := Query{Namespace: "ns", TaskQueue: "tq", WorkflowID: "wf", RunID: "r", QueryType: "state"}
	assert.Equal(t, Encode(d), Encode(d))
}

func TestDecode_Examples(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  Descriptor
	}{
		{
			name:  "execute",
			token: "E:Execute,W:wf1,N:ns,T:tq,Y:Greet",
			want:  Execute{Namespace: "ns", TaskQueue: "tq", WorkflowID: "wf1", WorkflowType: "Greet"},
		},
		{
			name:  "signal",
			token: "E:Signal,W:wf-123,N:default,T:tq1,R:run-9,S:approve-signal",
			want:  Signal{Namespace: "default", TaskQueue: "tq1", WorkflowID: "wf-123", RunID: "run-9", SignalName: "approve-signal"},
		},
		{
			name:  "signal without optional keys",
			token: "E:Signal,N:default,T:tq1,S:approve-signal",
			want:  Signal{Namespace: "default", TaskQueue: "tq1", SignalName: "approve-signal"},
		},
		{
			name:  "query with argument",
			token: `E:Query,W:wf,N:ns,T:tq,R:,Q:status,U:{"verbose"%3Atrue}`,
			want: Query{
				Namespace:  "ns",
				TaskQueue:  "tq",
				WorkflowID: "wf",
				QueryType:  "status",
				QueryArgs:  []json.RawMessage{json.RawMessage(`{"verbose":true}`)},
			},
		},
		{
			name:  "query argument that is not JSON becomes a string",
			token: "E:Query,N:ns,T:tq,Q:status,U:plain",
			want: Query{
				Namespace: "ns",
				TaskQueue: "tq",
				QueryType: "status",
				QueryArgs: []json.RawMessage{json.RawMessage(`"plain"`)},
			},
		},
		{
			name:  "order of pairs does not matter",
			token: "Y:Greet,T:tq,N:ns,W:wf1,E:Execute",
			want:  Execute{Namespace: "ns", TaskQueue: "tq", WorkflowID: "wf1", WorkflowType: "Greet"},
		},
		{
			name:  "registered keys the variant does not use are ignored",
			token: "E:Execute,W:wf1,N:ns,T:tq,Y:Greet,S:ignored",
			want:  Execute{Namespace: "ns", TaskQueue: "tq", WorkflowID: "wf1", WorkflowType: "Greet"},
		},
		{
			name:  "value may contain the delimiter after the first one",
			token: "E:Signal,N:ns,T:tq,S:a:b",
			want:  Signal{Namespace: "ns", TaskQueue: "tq", SignalName: "a:b"},
		},
		{
			name:  "last duplicate wins",
			token: "E:Signal,N:first,N:second,T:tq,S:go",
			want:  Signal{Namespace: "second", TaskQueue: "tq", SignalName: "go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		kind     ErrorKind
		sentinel error
		key      Key
		value    string
	}{
		{
			name:     "missing signal name",
			token:    "E:Signal,N:default,T:tq1",
			kind:     KeyMissing,
			sentinel: ErrKeyMissing,
			key:      KeySignalName,
		},
		{
			name:     "empty required value counts as missing",
			token:    "E:Execute,W:,N:ns,T:tq,Y:Greet",
			kind:     KeyMissing,
			sentinel: ErrKeyMissing,
			key:      KeyWorkflowID,
		},
		{
			name:     "execute without workflow type",
			token:    "E:Execute,W:wf1,N:ns,T:tq",
			kind:     KeyMissing,
			sentinel: ErrKeyMissing,
			key:      KeyWorkflowType,
		},
		{
			name:     "query without namespace",
			token:    "E:Query,T:tq,Q:status",
			kind:     KeyMissing,
			sentinel: ErrKeyMissing,
			key:      KeyNamespace,
		},
		{
			name:     "unknown variant",
			token:    "E:Bogus,W:wf1,N:ns,T:tq",
			kind:     UnknownVariant,
			sentinel: ErrUnknownVariant,
			value:    "Bogus",
		},
		{
			name:     "variant names are case sensitive",
			token:    "E:signal,N:ns,T:tq,S:go",
			kind:     UnknownVariant,
			sentinel: ErrUnknownVariant,
			value:    "signal",
		},
		{
			name:     "missing event type",
			token:    "W:wf1,N:ns,T:tq,Y:Greet",
			kind:     UnknownVariant,
			sentinel: ErrUnknownVariant,
			value:    "",
		},
		{
			name:     "pair without delimiter",
			token:    "E:Signal,ZZZ",
			kind:     MalformedPair,
			sentinel: ErrMalformedPair,
			value:    "ZZZ",
		},
		{
			name:     "empty token",
			token:    "",
			kind:     MalformedPair,
			sentinel: ErrMalformedPair,
			value:    "",
		},
		{
			name:     "trailing delimiter",
			token:    "E:Execute,W:wf1,N:ns,T:tq,Y:Greet,",
			kind:     MalformedPair,
			sentinel: ErrMalformedPair,
			value:    "",
		},
		{
			name:     "bad escape sequence",
			token:    "E:Signal,N:ns,T:tq,S:50%off",
			kind:     MalformedPair,
			sentinel: ErrMalformedPair,
			value:    "S:50%off",
		},
		{
			name:     "unregistered key",
			token:    "E:Execute,W:wf1,N:ns,T:tq,Y:Greet,X:ignored",
			kind:     UnknownKey,
			sentinel: ErrUnknownKey,
			value:    "X",
		},
		{
			name:     "lower case key",
			token:    "e:Execute,W:wf1,N:ns,T:tq,Y:Greet",
			kind:     UnknownKey,
			sentinel: ErrUnknownKey,
			value:    "e",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.token)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, tt.sentinel), "expected %v, got %v", tt.sentinel, err)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tt.kind, decodeErr.Kind)
			if tt.kind == KeyMissing {
				assert.Equal(t, tt.key, decodeErr.Key)
				assert.Contains(t, err.Error(), tt.key.Name())
			} else {
				assert.Equal(t, tt.value, decodeErr.Value)
			}
		})
	}
}

func TestDecode_DropsArguments(t *testing.T) {
	d := Execute{
		Namespace:    "ns",
		TaskQueue:    "tq",
		WorkflowID:   "wf1",
		WorkflowType: "Greet",
		Args:         []json.RawMessage{json.RawMessage(`{"name":"saxon","team":"seceng"}`)},
	}

	got, err := Decode(Encode(d))
	require.NoError(t, err)
	assert.Nil(t, got.Arguments())
	assert.Equal(t, WithArgs(d, nil), got)
}

func TestWithArgs(t *testing.T) {
	args := []json.RawMessage{json.RawMessage(`"yes"`)}

	t.Run("execute", func(t *testing.T) {
		orig := Execute{Namespace: "ns", TaskQueue: "tq", WorkflowID: "wf", WorkflowType: "Greet"}
		got := WithArgs(orig, args)
		assert.Equal(t, args, got.Arguments())
		assert.Nil(t, orig.Args, "original must be untouched")
	})

	t.Run("signal", func(t *testing.T) {
		orig := Signal{Namespace: "ns", TaskQueue: "tq", SignalName: "go"}
		got := WithArgs(orig, args)
		assert.Equal(t, args, got.(Signal).Input)
		assert.Nil(t, orig.Input)
	})

	t.Run("query", func(t *testing.T) {
		orig := Query{Namespace: "ns", TaskQueue: "tq", QueryType: "status", QueryArgs: []json.RawMessage{json.RawMessage(`1`)}}
		got := WithArgs(orig, args)
		assert.Equal(t, args, got.(Query).QueryArgs)
		assert.Equal(t, json.RawMessage(`1`), orig.QueryArgs[0])
	})

	t.Run("result does not alias the input slice", func(t *testing.T) {
		in := []json.RawMessage{json.RawMessage(`1`)}
		got := WithArgs(Signal{Namespace: "ns", TaskQueue: "tq", SignalName: "go"}, in)
		in[0] = json.RawMessage(`2`)
		assert.Equal(t, json.RawMessage(`1`), got.Arguments()[0])
	})
}

func TestTextArg(t *testing.T) {
	assert.Equal(t, json.RawMessage(`"approve"`), TextArg("approve"))
	assert.Equal(t, json.RawMessage(`""`), TextArg(""))
	assert.Equal(t, json.RawMessage(`42`), TextArg("42"))
	assert.Equal(t, json.RawMessage(`{"a":1}`), TextArg(`{ "a": 1 }`))
	assert.Equal(t, json.RawMessage(`"not json {"`), TextArg("not json {"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Execute{Namespace: "ns", TaskQueue: "tq", WorkflowID: "wf", WorkflowType: "Greet"}))
	assert.NoError(t, Validate(Signal{Namespace: "ns", TaskQueue: "tq", SignalName: "go"}))
	assert.NoError(t, Validate(Query{Namespace: "ns", TaskQueue: "tq", QueryType: "status"}))

	err := Validate(Execute{Namespace: "ns"})
	require.Error(t, err)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
	assert.Contains(t, err.Error(), "TaskQueue")
	assert.Contains(t, err.Error(), "WorkflowId")
	assert.Contains(t, err.Error(), "WorkflowTypeName")

	err = Validate(Signal{Namespace: "ns", TaskQueue: "tq"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SignalName")

	assert.Error(t, Validate(nil))
}

func TestDescriptorJSON(t *testing.T) {
	data := []byte(`{
		"type": "Execute",
		"namespace": "security-engineering",
		"task_queue": "template-taskqueue",
		"workflow_id": "1",
		"workflow_type": "GreetingWorkflow",
		"args": [{"name": "saxon", "team": "seceng"}]
	}`)

	d, err := UnmarshalDescriptor(data)
	require.NoError(t, err)
	exec, ok := d.(Execute)
	require.True(t, ok)
	assert.Equal(t, "security-engineering", exec.Namespace)
	assert.Equal(t, "GreetingWorkflow", exec.WorkflowType)
	require.Len(t, exec.Args, 1)
	assert.JSONEq(t, `{"name":"saxon","team":"seceng"}`, string(exec.Args[0]))

	out, err := MarshalDescriptor(Signal{Namespace: "ns", TaskQueue: "tq", SignalName: "go", Control: "c"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Signal","namespace":"ns","task_queue":"tq","signal_name":"go","control":"c"}`, string(out))

	_, err = UnmarshalDescriptor([]byte(`{"type":"Update","namespace":"ns"}`))
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = UnmarshalDescriptor([]byte(`not json`))
	assert.Error(t, err)
}
