/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package snapshot

import (
	"sort"

	"github.com/buger/jsonparser"
	"github.com/logit-dev/logit/classify"
	"github.com/logit-dev/logit/internal/redact"
)

// maxSchemaDepth bounds the key-path walk, matching textutil's content
// extraction recursion limit (spec §9).
const maxSchemaDepth = 64

// KeyPathProfile is one key path's accumulated shape across every sample
// that visited it (SPEC_FULL.md §4.8).
type KeyPathProfile struct {
	Types   []string `json:"types"`
	Example string   `json:"example,omitempty"`
}

type keyPathAccum struct {
	types      map[string]bool
	example    string
	exampleSet bool
}

// accumulateSchema walks r's parsed JSON value (jsonl/json records only;
// text-log records carry no key paths) and folds every key path it visits
// into profile.
func accumulateSchema(r record, profile map[string]*keyPathAccum) {
	if r.format != classify.FormatJSON && r.format != classify.FormatJSONL {
		return
	}
	value, dataType, _, err := jsonparser.Get(r.raw)
	if err != nil {
		return
	}
	walkSchema("$", value, dataType, 0, profile)
}

func walkSchema(path string, value []byte, dataType jsonparser.ValueType, depth int, profile map[string]*keyPathAccum) {
	if depth >= maxSchemaDepth {
		return
	}
	entry := profile[path]
	if entry == nil {
		entry = &keyPathAccum{types: map[string]bool{}}
		profile[path] = entry
	}
	entry.types[typeName(dataType)] = true
	if !entry.exampleSet {
		entry.example = exampleValue(value, dataType)
		entry.exampleSet = true
	}

	switch dataType {
	case jsonparser.Object:
		_ = jsonparser.ObjectEach(value, func(key []byte, v []byte, vt jsonparser.ValueType, offset int) error {
			walkSchema(path+"."+string(key), v, vt, depth+1, profile)
			return nil
		})
	case jsonparser.Array:
		childPath := path + "[]"
		_, _ = jsonparser.ArrayEach(value, func(v []byte, vt jsonparser.ValueType, offset int, err error) {
			if err != nil {
				return
			}
			walkSchema(childPath, v, vt, depth+1, profile)
		})
	}
}

func typeName(t jsonparser.ValueType) string {
	switch t {
	case jsonparser.String:
		return "string"
	case jsonparser.Number:
		return "number"
	case jsonparser.Boolean:
		return "boolean"
	case jsonparser.Null:
		return "null"
	case jsonparser.Object:
		return "object"
	case jsonparser.Array:
		return "array"
	default:
		return "unknown"
	}
}

// exampleValue renders a short, redacted example of value. Containers
// (object/array) carry no inline example; their children do.
func exampleValue(value []byte, dataType jsonparser.ValueType) string {
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return redact.Apply(s).Text
	case jsonparser.Number, jsonparser.Boolean:
		return string(value)
	default:
		return ""
	}
}

// finalizeProfile converts the accumulation map into the exported,
// JSON-serializable shape, with each entry's type set sorted for
// determinism (spec §5).
func finalizeProfile(profile map[string]*keyPathAccum) map[string]KeyPathProfile {
	out := make(map[string]KeyPathProfile, len(profile))
	for path, acc := range profile {
		types := make([]string, 0, len(acc.types))
		for t := range acc.types {
			types = append(types, t)
		}
		sort.Strings(types)
		out[path] = KeyPathProfile{Types: types, Example: acc.example}
	}
	return out
}
