/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package claude parses Claude Code's session JSONL files under
// ~/.claude/projects. The shape parallels Codex's rollout JSONL (spec
// §4.3.5): the same content-extraction rules and warning taxonomy apply,
// with Claude's own type/role vocabulary.
package claude

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/adapterutil"
	"github.com/logit-dev/logit/internal/hashutil"
	"github.com/logit-dev/logit/internal/textutil"
)

// Result mirrors adapters/codex.Result: events plus per-record warnings.
type Result struct {
	Events   []canon.AgentLogEvent
	Warnings []string
}

type sessionMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type sessionLine struct {
	Type      string          `json:"type"`
	UUID      string          `json:"uuid"`
	SessionID string          `json:"sessionId"`
	ParentID  string          `json:"parentUuid"`
	Timestamp string          `json:"timestamp"`
	Message   *sessionMessage `json:"message"`
	ToolName  string          `json:"toolName"`
}

var typeMapping = map[string]struct {
	eventType canon.EventType
	role      canon.Role
	format    canon.RecordFormat
}{
	"user":         {canon.EventPrompt, canon.RoleUser, canon.RecordMessage},
	"assistant":    {canon.EventResponse, canon.RoleAssistant, canon.RecordMessage},
	"tool_use":     {canon.EventToolCall, canon.RoleTool, canon.RecordMessage},
	"tool_result":  {canon.EventToolOutput, canon.RoleTool, canon.RecordToolResult},
	"system":       {canon.EventSystemNotice, canon.RoleSystem, canon.RecordSystem},
}

// ParseSessionJSONL maps each Claude session record to a canonical event.
func ParseSessionJSONL(text []byte, runID, sourcePath string) Result {
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
		var line sessionLine
		if err := json.Unmarshal(raw, &line); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: invalid JSON: %v", locator, err))
			continue
		}
		ev, warns := buildSessionEvent(line, raw, runID, sourcePath, locator, lineNo)
		res.Warnings = append(res.Warnings, warns...)
		res.Events = append(res.Events, ev)
	}
	return res
}

func buildSessionEvent(line sessionLine, raw []byte, runID, sourcePath, locator string, lineNo int) (canon.AgentLogEvent, []string) {
	var warnings []string

	mapping, known := typeMapping[line.Type]
	if !known {
		mapping = struct {
			eventType canon.EventType
			role      canon.Role
			format    canon.RecordFormat
		}{canon.EventDebugLog, canon.RoleRuntime, canon.RecordDiagnostic}
		warnings = append(warnings, fmt.Sprintf("%s: unrecognized `type` `%s`", locator, line.Type))
	}

	contentText := ""
	if line.Message != nil && len(line.Message.Content) > 0 {
		contentText, _ = textutil.ExtractText(line.Message.Content)
	}
	if contentText == "" && known {
		warnings = append(warnings, fmt.Sprintf("%s: missing message content text", locator))
	}

	utc, unixMS, quality := adapterutil.ParsedTimestamp(line.Timestamp, sourcePath, locator)
	if line.Timestamp != "" && quality == canon.TimestampFallback {
		warnings = append(warnings, fmt.Sprintf("%s: invalid timestamp `%s`", locator, line.Timestamp))
	}

	eventID := line.UUID
	if eventID == "" {
		eventID = adapterutil.FallbackEventID(canon.SourceClaude, "session", lineNo)
	}

	excerpt, hasExcerpt := textutil.Excerpt(contentText, 280)
	ev := canon.AgentLogEvent{
		SchemaVersion:       canon.SchemaVersion,
		EventID:             eventID,
		RunID:               runID,
		SourceKind:          canon.SourceClaude,
		AdapterName:         canon.SourceClaude,
		SourcePath:          sourcePath,
		SourceRecordLocator: locator,
		RecordFormat:        mapping.format,
		EventType:           mapping.eventType,
		Role:                mapping.role,
		TimestampUTC:        utc,
		TimestampUnixMS:     unixMS,
		TimestampQuality:    quality,
		RawHash:             hashutil.RawHash(raw),
		SessionID:           line.SessionID,
		ParentEventID:       line.ParentID,
		ToolName:            line.ToolName,
	}
	if contentText != "" {
		ev.ContentText = contentText
	}
	if hasExcerpt {
		ev.ContentExcerpt = excerpt
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
