/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package canon

// requiredFields lists every AgentLogEvent field a serializer must never
// omit, in the order they appear in spec.md §3.
var requiredFields = []string{
	"schema_version",
	"event_id",
	"run_id",
	"sequence_global",
	"source_kind",
	"adapter_name",
	"source_path",
	"source_record_locator",
	"record_format",
	"event_type",
	"role",
	"timestamp_utc",
	"timestamp_unix_ms",
	"timestamp_quality",
	"raw_hash",
	"canonical_hash",
}

// RequiredFields returns the required field set in stable order. Callers
// must not mutate the returned slice.
func RequiredFields() []string {
	return requiredFields
}

var (
	sourceKinds       = []string{"codex", "claude", "gemini", "amp", "opencode"}
	recordFormats     = []string{"message", "diagnostic", "tool-result", "system"}
	eventTypes        = []string{"prompt", "response", "tool-call", "tool-output", "status-update", "system-notice", "metric", "artifact-reference", "debug-log", "error"}
	roles             = []string{"user", "assistant", "tool", "system", "runtime"}
	timestampQualities = []string{"exact", "fallback"}
)

// Schema is a minimal JSON Schema document sufficient for the Validator
// (§4.7): per-field type/enum constraints and a required list.
type Schema struct {
	Schema      string                 `json:"$schema"`
	Title       string                 `json:"title"`
	Type        string                 `json:"type"`
	Required    []string               `json:"required"`
	Properties  map[string]SchemaField `json:"properties"`
	SchemaTag   string                 `json:"schema_version"`
}

// SchemaField describes one property's type and, for closed enums, its
// allowed values.
type SchemaField struct {
	Type string   `json:"type"`
	Enum []string `json:"enum,omitempty"`
}

// GenerateSchema builds the JSON Schema document emitted to
// normalize/schema.json from the enum value lists above and the property
// map below. Both are written by hand alongside the Go types in event.go;
// nothing here checks that they match.
func GenerateSchema() Schema {
	props := map[string]SchemaField{
		"schema_version":         {Type: "string", Enum: []string{SchemaVersion}},
		"event_id":               {Type: "string"},
		"run_id":                 {Type: "string"},
		"sequence_global":        {Type: "integer"},
		"source_kind":            {Type: "string", Enum: sourceKinds},
		"adapter_name":           {Type: "string", Enum: sourceKinds},
		"source_path":            {Type: "string"},
		"source_record_locator":  {Type: "string"},
		"record_format":          {Type: "string", Enum: recordFormats},
		"event_type":             {Type: "string", Enum: eventTypes},
		"role":                   {Type: "string", Enum: roles},
		"timestamp_utc":          {Type: "string"},
		"timestamp_unix_ms":      {Type: "integer"},
		"timestamp_quality":      {Type: "string", Enum: timestampQualities},
		"raw_hash":               {Type: "string"},
		"canonical_hash":         {Type: "string"},

		"sequence_source":    {Type: "string"},
		"source_record_hash": {Type: "string"},
		"adapter_version":    {Type: "string"},
		"session_id":         {Type: "string"},
		"conversation_id":    {Type: "string"},
		"turn_id":            {Type: "string"},
		"parent_event_id":    {Type: "string"},
		"actor_id":           {Type: "string"},
		"actor_name":         {Type: "string"},
		"provider":           {Type: "string"},
		"model":              {Type: "string"},
		"content_text":       {Type: "string"},
		"content_excerpt":    {Type: "string"},
		"content_mime":       {Type: "string"},
		"tool_name":          {Type: "string"},
		"tool_call_id":       {Type: "string"},
		"tool_input":         {Type: "string"},
		"tool_output":        {Type: "string"},
		"tool_status":        {Type: "string"},
		"input_tokens":       {Type: "integer"},
		"output_tokens":      {Type: "integer"},
		"total_tokens":       {Type: "integer"},
		"cost_usd":           {Type: "number"},
		"tags":               {Type: "array"},
		"flags":              {Type: "array"},
		"warnings":           {Type: "array"},
		"errors":             {Type: "array"},
		"pii_redacted":       {Type: "boolean"},
		"dedupe_count":       {Type: "integer"},
		"dedupe_strategy":    {Type: "string", Enum: []string{string(DedupeByCanonicalHash), string(DedupeBySourceLocator), string(DedupeByRawHash)}},
		"provenance_entries": {Type: "array"},
		"metadata":           {Type: "object"},
	}
	return Schema{
		Schema:     "http://json-schema.org/draft-07/schema#",
		Title:      "AgentLogEvent",
		Type:       "object",
		Required:   append([]string(nil), requiredFields...),
		Properties: props,
		SchemaTag:  SchemaVersion,
	}
}
