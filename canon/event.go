/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package canon defines the canonical AgentLogEvent record and its closed
// enumerations. Every adapter emits events of this shape; nothing
// downstream of an adapter parser knows about per-tool record formats.
package canon

// SchemaVersion is the constant schema tag carried on every event.
const SchemaVersion = "agentlog.v1"

// SourceKind identifies the coding-agent tool a record came from.
type SourceKind string

const (
	SourceCodex    SourceKind = "codex"
	SourceClaude   SourceKind = "claude"
	SourceGemini   SourceKind = "gemini"
	SourceAmp      SourceKind = "amp"
	SourceOpenCode SourceKind = "opencode"
)

// RecordFormat is the shape of the source record that produced an event.
type RecordFormat string

const (
	RecordMessage    RecordFormat = "message"
	RecordDiagnostic RecordFormat = "diagnostic"
	RecordToolResult RecordFormat = "tool-result"
	RecordSystem     RecordFormat = "system"
)

// EventType is the closed set of canonical event kinds.
type EventType string

const (
	EventPrompt           EventType = "prompt"
	EventResponse         EventType = "response"
	EventToolCall         EventType = "tool-call"
	EventToolOutput       EventType = "tool-output"
	EventStatusUpdate     EventType = "status-update"
	EventSystemNotice     EventType = "system-notice"
	EventMetric           EventType = "metric"
	EventArtifactRef      EventType = "artifact-reference"
	EventDebugLog         EventType = "debug-log"
	EventError            EventType = "error"
)

// Role is the closed set of canonical actor roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
	RoleRuntime   Role = "runtime"
)

// TimestampQuality records whether timestamp_utc/timestamp_unix_ms were
// taken from the source record or synthesized.
type TimestampQuality string

const (
	TimestampExact    TimestampQuality = "exact"
	TimestampFallback TimestampQuality = "fallback"
)

// DedupeStrategy records which key field collapsed a duplicate group.
type DedupeStrategy string

const (
	DedupeByCanonicalHash DedupeStrategy = "canonical_hash"
	DedupeBySourceLocator DedupeStrategy = "source_locator"
	DedupeByRawHash        DedupeStrategy = "raw_hash"
)

// ProvenanceEntry documents one collapsed duplicate's origin.
type ProvenanceEntry struct {
	SourcePath          string           `json:"source_path"`
	SourceRecordLocator string           `json:"source_record_locator"`
	EventID             string           `json:"event_id"`
	RawHash             string           `json:"raw_hash"`
	TimestampQuality    TimestampQuality `json:"timestamp_quality"`
}

// AgentLogEvent is the single canonical record produced by every adapter.
//
// Required fields are always serialized. Optional fields use `omitempty`
// and must never be emitted as an explicit JSON null.
type AgentLogEvent struct {
	// Required.
	SchemaVersion     string       `json:"schema_version"`
	EventID           string       `json:"event_id"`
	RunID             string       `json:"run_id"`
	SequenceGlobal    int64        `json:"sequence_global"`
	SourceKind        SourceKind   `json:"source_kind"`
	AdapterName       SourceKind   `json:"adapter_name"`
	SourcePath        string       `json:"source_path"`
	SourceRecordLocator string     `json:"source_record_locator"`
	RecordFormat      RecordFormat `json:"record_format"`
	EventType         EventType    `json:"event_type"`
	Role              Role         `json:"role"`
	TimestampUTC      string       `json:"timestamp_utc"`
	TimestampUnixMS   int64        `json:"timestamp_unix_ms"`
	TimestampQuality  TimestampQuality `json:"timestamp_quality"`
	RawHash           string       `json:"raw_hash"`
	CanonicalHash     string       `json:"canonical_hash"`

	// Optional.
	SequenceSource   string            `json:"sequence_source,omitempty"`
	SourceRecordHash string            `json:"source_record_hash,omitempty"`
	AdapterVersion   string            `json:"adapter_version,omitempty"`
	SessionID        string            `json:"session_id,omitempty"`
	ConversationID   string            `json:"conversation_id,omitempty"`
	TurnID           string            `json:"turn_id,omitempty"`
	ParentEventID    string            `json:"parent_event_id,omitempty"`
	ActorID          string            `json:"actor_id,omitempty"`
	ActorName        string            `json:"actor_name,omitempty"`
	Provider         string            `json:"provider,omitempty"`
	Model            string            `json:"model,omitempty"`
	ContentText      string            `json:"content_text,omitempty"`
	ContentExcerpt   string            `json:"content_excerpt,omitempty"`
	ContentMime      string            `json:"content_mime,omitempty"`

	ToolName    string `json:"tool_name,omitempty"`
	ToolCallID  string `json:"tool_call_id,omitempty"`
	ToolInput   string `json:"tool_input,omitempty"`
	ToolOutput  string `json:"tool_output,omitempty"`
	ToolStatus  string `json:"tool_status,omitempty"`

	InputTokens  *int64   `json:"input_tokens,omitempty"`
	OutputTokens *int64   `json:"output_tokens,omitempty"`
	TotalTokens  *int64   `json:"total_tokens,omitempty"`
	CostUSD      *float64 `json:"cost_usd,omitempty"`

	Tags  []string `json:"tags,omitempty"`
	Flags []string `json:"flags,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`

	PIIRedacted *bool `json:"pii_redacted,omitempty"`

	// Dedupe provenance, attached by the orchestrator after collapsing a
	// duplicate group. Absent on events that were never deduplicated.
	DedupeCount      int               `json:"dedupe_count,omitempty"`
	DedupeStrategy   DedupeStrategy    `json:"dedupe_strategy,omitempty"`
	ProvenanceEntries []ProvenanceEntry `json:"provenance_entries,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}
