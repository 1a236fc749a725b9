// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package interaction

import (
	"strings"
)

// escaper protects delimiter characters inside values. Values that contain none
// of '%', ',' or ':' are written unchanged.
var (
	escaper   = strings.NewReplacer("%", "%25", ",", "%2C", ":", "%3A")
	unescaper = strings.NewReplacer("%2C", ",", "%2c", ",", "%3A", ":", "%3a", ":", "%25", "%")
)

// Encode renders d as a token: the event type first, then every key the variant
// defines in registry order. Optional fields that are empty are still emitted
// with an empty value. Encode never truncates; surfaces with a length limit
// must check the result themselves.
func Encode(d Descriptor) string {
	pairs := make([]string, 0, len(registry))
	pairs = append(pairs, KeyEventType.KV(string(d.Variant())))

	for _, k := range registry {
		if k == KeyEventType {
			continue
		}
		v, ok := d.value(k)
		if !ok {
			continue
		}
		pairs = append(pairs, k.KV(escapeValue(v)))
	}

	return strings.Join(pairs, FieldDelimiter)
}

func escapeValue(v string) string {
	if !strings.ContainsAny(v, "%,:") {
		return v
	}
	return escaper.Replace(v)
}

// unescapeValue reverses escapeValue. A '%' that does not start one of the three
// known sequences is rejected.
func unescapeValue(v string) (string, bool) {
	if !strings.Contains(v, "%") {
		return v, true
	}
	for i := 0; i < len(v); i++ {
		if v[i] != '%' {
			continue
		}
		if i+2 >= len(v) {
			return "", false
		}
		switch strings.ToUpper(v[i+1 : i+3]) {
		case "25", "2C", "3A":
			i += 2
		default:
			return "", false
		}
	}
	return unescaper.Replace(v), true
}
