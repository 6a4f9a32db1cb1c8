/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package codex

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

type historyLine struct {
	Source    string `json:"source"`
	PromptID  string `json:"prompt_id"`
	CreatedAt string `json:"created_at"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

// ParseHistoryJSONL maps codex_history lines to (prompt|response, role,
// message) events tagged history_auxiliary (spec §4.3.1). Its
// canonical_hash must agree with a rollout line carrying identical
// semantic content, since both route through the same CanonicalParts.
func ParseHistoryJSONL(text []byte, runID, sourcePath string) Result {
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
		var line historyLine
		if err := json.Unmarshal(raw, &line); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: invalid JSON: %v", locator, err))
			continue
		}
		ev, warns := buildHistoryEvent(line, raw, runID, sourcePath, locator, lineNo)
		res.Warnings = append(res.Warnings, warns...)
		res.Events = append(res.Events, ev)
	}
	return res
}

func buildHistoryEvent(line historyLine, raw []byte, runID, sourcePath, locator string, lineNo int) (canon.AgentLogEvent, []string) {
	var warnings []string
	var eventType canon.EventType
	var role canon.Role

	switch line.Role {
	case "user":
		eventType, role = canon.EventPrompt, canon.RoleUser
	case "assistant":
		eventType, role = canon.EventResponse, canon.RoleAssistant
	case "":
		eventType, role = canon.EventDebugLog, canon.RoleRuntime
		warnings = append(warnings, fmt.Sprintf("%s: missing required `role`", locator))
	default:
		eventType, role = canon.EventDebugLog, canon.RoleRuntime
		warnings = append(warnings, fmt.Sprintf("%s: unrecognized `role` `%s`", locator, line.Role))
	}

	if line.Content == "" {
		warnings = append(warnings, fmt.Sprintf("%s: missing required `content`", locator))
	}

	utc, unixMS, quality := adapterutil.ParsedTimestamp(line.CreatedAt, sourcePath, locator)
	if line.CreatedAt != "" && quality == canon.TimestampFallback {
		warnings = append(warnings, fmt.Sprintf("%s: invalid timestamp `%s`", locator, line.CreatedAt))
	}

	eventID := line.PromptID
	if eventID == "" {
		eventID = adapterutil.FallbackEventID(canon.SourceCodex, "history", lineNo)
	}

	excerpt, hasExcerpt := textutil.Excerpt(line.Content, 280)
	ev := canon.AgentLogEvent{
		SchemaVersion:       canon.SchemaVersion,
		EventID:             eventID,
		RunID:               runID,
		SourceKind:          canon.SourceCodex,
		AdapterName:         canon.SourceCodex,
		SourcePath:          sourcePath,
		SourceRecordLocator: locator,
		RecordFormat:        canon.RecordMessage,
		EventType:           eventType,
		Role:                role,
		TimestampUTC:        utc,
		TimestampUnixMS:     unixMS,
		TimestampQuality:    quality,
		RawHash:             hashutil.RawHash(raw),
		ContentText:         line.Content,
		Tags:                []string{"history_auxiliary"},
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
