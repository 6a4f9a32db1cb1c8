/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package codex parses Codex CLI's on-disk log formats: rollout JSONL,
// history JSONL, and diagnostic text logs (spec §4.3.1).
package codex

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/adapterutil"
	"github.com/logit-dev/logit/internal/hashutil"
	"github.com/logit-dev/logit/internal/textutil"
)

// Result is the output of any adapter parse function: the canonical
// events it produced, and warnings for every recoverable shape mismatch.
type Result struct {
	Events   []canon.AgentLogEvent
	Warnings []string
}

type rolloutLine struct {
	EventType     string          `json:"event_type"`
	CreatedAt     string          `json:"created_at"`
	Text          string          `json:"text"`
	EventID       string          `json:"event_id"`
	SessionID     string          `json:"session_id"`
	ResponseItem  json.RawMessage `json:"response_item"`
	ResponseItems json.RawMessage `json:"response_items"`
}

var eventMsgCategory = map[string]string{
	"progress": "progress",
	"meta":     "meta",
}

// ParseRolloutJSONL maps each rollout line to one canonical event,
// following the event_type -> (event_type, role, record_format) table in
// spec §4.3.1.
func ParseRolloutJSONL(text []byte, runID, sourcePath string) Result {
	var res Result
	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		locator := fmt.Sprintf("line:%d", lineNo)
		var line rolloutLine
		if err := json.Unmarshal(raw, &line); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: invalid JSON: %v", locator, err))
			continue
		}
		ev, warns := buildRolloutEvent(line, raw, runID, sourcePath, locator, lineNo)
		res.Warnings = append(res.Warnings, warns...)
		res.Events = append(res.Events, ev)
	}
	return res
}

func buildRolloutEvent(line rolloutLine, raw []byte, runID, sourcePath, locator string, lineNo int) (canon.AgentLogEvent, []string) {
	var warnings []string
	var eventType canon.EventType
	var role canon.Role
	var recordFormat canon.RecordFormat
	metadata := map[string]string{}
	contentText := ""

	resolve := func() {
		text, source := resolveContent(line)
		if text == "" {
			warnings = append(warnings, fmt.Sprintf("%s: missing message content text", locator))
		} else {
			metadata["codex_content_source"] = source
		}
		contentText = text
	}

	switch {
	case line.EventType == "user_prompt":
		eventType, role, recordFormat = canon.EventPrompt, canon.RoleUser, canon.RecordMessage
		resolve()
	case line.EventType == "assistant_response":
		eventType, role, recordFormat = canon.EventResponse, canon.RoleAssistant, canon.RecordMessage
		resolve()
	case line.EventType == "tool_call":
		eventType, role, recordFormat = canon.EventToolCall, canon.RoleTool, canon.RecordMessage
		resolve()
	case line.EventType == "tool_output":
		eventType, role, recordFormat = canon.EventToolOutput, canon.RoleTool, canon.RecordToolResult
		resolve()
	case strings.HasPrefix(line.EventType, "event_msg."):
		name := strings.TrimPrefix(line.EventType, "event_msg.")
		category, known := eventMsgCategory[name]
		if !known {
			category = "generic"
		}
		switch category {
		case "progress":
			eventType = canon.EventStatusUpdate
		case "meta":
			eventType = canon.EventSystemNotice
		default:
			eventType = canon.EventStatusUpdate
		}
		role, recordFormat = canon.RoleRuntime, canon.RecordSystem
		metadata["codex_event_msg_category"] = category
		metadata["codex_event_msg_name"] = name
		contentText = line.Text
	default:
		eventType, role, recordFormat = canon.EventDebugLog, canon.RoleRuntime, canon.RecordDiagnostic
		warnings = append(warnings, fmt.Sprintf("%s: unrecognized `event_type` `%s`", locator, line.EventType))
		contentText = line.Text
	}

	eventID := line.EventID
	if eventID == "" {
		eventID = adapterutil.FallbackEventID(canon.SourceCodex, "rollout", lineNo)
	}
	utc, unixMS, quality := adapterutil.ParsedTimestamp(line.CreatedAt, sourcePath, locator)
	if line.CreatedAt != "" && quality == canon.TimestampFallback {
		warnings = append(warnings, fmt.Sprintf("%s: invalid timestamp `%s`", locator, line.CreatedAt))
	}

	excerpt, hasExcerpt := textutil.Excerpt(contentText, 280)

	ev := canon.AgentLogEvent{
		SchemaVersion:       canon.SchemaVersion,
		EventID:             eventID,
		RunID:               runID,
		SourceKind:          canon.SourceCodex,
		AdapterName:         canon.SourceCodex,
		SourcePath:          sourcePath,
		SourceRecordLocator: locator,
		RecordFormat:        recordFormat,
		EventType:           eventType,
		Role:                role,
		TimestampUTC:        utc,
		TimestampUnixMS:     unixMS,
		TimestampQuality:    quality,
		RawHash:             hashutil.RawHash(raw),
		SessionID:           line.SessionID,
	}
	if contentText != "" {
		ev.ContentText = contentText
	}
	if hasExcerpt {
		ev.ContentExcerpt = excerpt
	}
	if len(metadata) > 0 {
		ev.Metadata = metadata
	}
	ev.CanonicalHash = hashutil.CanonicalHash(hashutil.CanonicalParts{
		AdapterName:  string(ev.AdapterName),
		EventType:    string(ev.EventType),
		Role:         string(ev.Role),
		SessionID:    ev.SessionID,
		TimestampUTC: ev.TimestampUTC,
		ContentText:  ev.ContentText,
	})
	return ev, warnings
}

// resolveContent implements the §4.3.1 content-preference order for
// assistant-shaped records: response_items array, then response_item
// object, then text. Returns the resolved text and the source it came
// from, for the codex_content_source metadata key.
func resolveContent(line rolloutLine) (text string, source string) {
	if len(line.ResponseItems) > 0 && !bytes.Equal(bytes.TrimSpace(line.ResponseItems), []byte("null")) {
		if t := concatJSONArrayText(line.ResponseItems); t != "" {
			return t, "response_items"
		}
	}
	if len(line.ResponseItem) > 0 && !bytes.Equal(bytes.TrimSpace(line.ResponseItem), []byte("null")) {
		if t, _ := textutil.ExtractText(line.ResponseItem); t != "" {
			return t, "response_item"
		}
	}
	if line.Text != "" {
		return line.Text, "text"
	}
	return "", ""
}

func concatJSONArrayText(arr json.RawMessage) string {
	var items []json.RawMessage
	if err := json.Unmarshal(arr, &items); err != nil {
		return ""
	}
	fragments := make([]string, 0, len(items))
	for _, item := range items {
		if text, _ := textutil.ExtractText(item); text != "" {
			fragments = append(fragments, text)
		}
	}
	return strings.Join(fragments, "\n")
}
