// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"encoding/json"
	"fmt"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
)

var jsonConverter = converter.NewJSONPayloadConverter()

// toPayloads encodes each argument as its own json/plain payload. No
// arguments means no payloads at all.
func toPayloads(args []json.RawMessage) (*commonpb.Payloads, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := &commonpb.Payloads{Payloads: make([]*commonpb.Payload, 0, len(args))}
	for i, arg := range args {
		if !json.Valid(arg) {
			return nil, fmt.Errorf("argument %d is not valid JSON", i)
		}
		p, err := jsonConverter.ToPayload(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode argument %d: %w", i, err)
		}
		out.Payloads = append(out.Payloads, p)
	}
	return out, nil
}

// fromPayloads turns engine payloads back into JSON values. json/plain data is
// kept as is; other encodings go through the default data converter.
func fromPayloads(payloads *commonpb.Payloads) ([]json.RawMessage, error) {
	if payloads == nil || len(payloads.GetPayloads()) == 0 {
		return nil, nil
	}
	dc := converter.GetDefaultDataConverter()
	out := make([]json.RawMessage, 0, len(payloads.GetPayloads()))
	for i, p := range payloads.GetPayloads() {
		switch string(p.GetMetadata()[converter.MetadataEncoding]) {
		case converter.MetadataEncodingJSON:
			out = append(out, json.RawMessage(append([]byte(nil), p.GetData()...)))
		case converter.MetadataEncodingNil:
			out = append(out, json.RawMessage("null"))
		default:
			var v interface{}
			if err := dc.FromPayload(p, &v); err != nil {
				return nil, fmt.Errorf("failed to decode result %d: %w", i, err)
			}
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to re-encode result %d: %w", i, err)
			}
			out = append(out, b)
		}
	}
	return out, nil
}
