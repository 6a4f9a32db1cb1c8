/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/adapterutil"
	"github.com/logit-dev/logit/internal/hashutil"
	"github.com/logit-dev/logit/internal/textutil"
)

type logEntry struct {
	Kind      string          `json:"kind"`
	Level     string          `json:"level"`
	Role      string          `json:"role"`
	Actor     string          `json:"actor"`
	Timestamp string          `json:"timestamp"`
	ID        string          `json:"id"`
	Message   json.RawMessage `json:"message"`
}

var explicitKind = map[string]canon.EventType{
	"artifact_reference": canon.EventArtifactRef,
	"metric":              canon.EventMetric,
}

// ParseLogsJSON maps a heterogeneous Gemini logs array to canonical
// events following the kind/role/level precedence in spec §4.3.2.
func ParseLogsJSON(text []byte, runID, sourcePath string) Result {
	var res Result
	var entries []logEntry
	if err := json.Unmarshal(text, &entries); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("pointer:/: invalid JSON: %v", err))
		return res
	}
	for i, entry := range entries {
		locator := fmt.Sprintf("pointer:/%d", i)
		ev, warns := buildLogEvent(entry, runID, sourcePath, locator, i)
		res.Warnings = append(res.Warnings, warns...)
		res.Events = append(res.Events, ev)
	}
	return res
}

func buildLogEvent(entry logEntry, runID, sourcePath, locator string, index int) (canon.AgentLogEvent, []string) {
	var warnings []string
	var eventType canon.EventType
	var role canon.Role
	var format canon.RecordFormat

	switch {
	case explicitKind[entry.Kind] != "":
		eventType = explicitKind[entry.Kind]
		role, format = canon.RoleRuntime, canon.RecordSystem
	case entry.Role == "tool":
		eventType, role, format = canon.EventToolOutput, canon.RoleTool, canon.RecordToolResult
	case entry.Role == "system" || entry.Actor == "system":
		eventType, role, format = canon.EventSystemNotice, canon.RoleSystem, canon.RecordSystem
	default:
		switch entry.Level {
		case "warning":
			eventType = canon.EventStatusUpdate
		case "error":
			eventType = canon.EventError
		default:
			eventType = canon.EventDebugLog
		}
		role, format = canon.RoleRuntime, canon.RecordDiagnostic
	}

	contentText, _ := textutil.ExtractText(entry.Message)

	eventID := entry.ID
	if eventID == "" {
		eventID = fmt.Sprintf("gemini-log-%06d", index+1)
	}
	utc, unixMS, quality := adapterutil.ParsedTimestamp(entry.Timestamp, sourcePath, locator)
	if entry.Timestamp != "" && quality == canon.TimestampFallback {
		warnings = append(warnings, fmt.Sprintf("%s: invalid timestamp `%s`", locator, entry.Timestamp))
	}

	excerpt, hasExcerpt := textutil.Excerpt(contentText, 280)
	raw, _ := json.Marshal(entry)
	ev := canon.AgentLogEvent{
		SchemaVersion:       canon.SchemaVersion,
		EventID:             eventID,
		RunID:               runID,
		SourceKind:          canon.SourceGemini,
		AdapterName:         canon.SourceGemini,
		SourcePath:          sourcePath,
		SourceRecordLocator: locator,
		RecordFormat:        format,
		EventType:           eventType,
		Role:                role,
		TimestampUTC:        utc,
		TimestampUnixMS:     unixMS,
		TimestampQuality:    quality,
		RawHash:             hashutil.RawHash(raw),
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
		TimestampUTC: ev.TimestampUTC,
		ContentText:  ev.ContentText,
	})
	return ev, warnings
}
