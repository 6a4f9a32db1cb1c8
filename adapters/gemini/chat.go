/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package gemini parses Gemini CLI's chat JSON envelopes and logs JSON
// arrays (spec §4.3.2).
package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/adapterutil"
	"github.com/logit-dev/logit/internal/hashutil"
	"github.com/logit-dev/logit/internal/textutil"
)

// Result mirrors the other adapters' Result shape.
type Result struct {
	Events   []canon.AgentLogEvent
	Warnings []string
}

type chatEnvelope struct {
	ConversationID string        `json:"conversationId"`
	SessionID      string        `json:"sessionId"`
	Messages       []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Timestamp string          `json:"timestamp"`
	ID        string          `json:"id"`
}

// ParseChatJSON maps a chat envelope's messages to canonical events.
func ParseChatJSON(text []byte, runID, sourcePath string) Result {
	var res Result
	var env chatEnvelope
	if err := json.Unmarshal(text, &env); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("pointer:/: invalid JSON: %v", err))
		return res
	}
	for i, msg := range env.Messages {
		locator := fmt.Sprintf("pointer:/messages/%d", i)
		ev, warns := buildChatEvent(msg, env, runID, sourcePath, locator, i)
		res.Warnings = append(res.Warnings, warns...)
		res.Events = append(res.Events, ev)
	}
	return res
}

func buildChatEvent(msg chatMessage, env chatEnvelope, runID, sourcePath, locator string, index int) (canon.AgentLogEvent, []string) {
	var warnings []string
	var eventType canon.EventType
	var role canon.Role
	var format canon.RecordFormat

	switch msg.Role {
	case "user":
		eventType, role, format = canon.EventPrompt, canon.RoleUser, canon.RecordMessage
	case "model":
		eventType, role, format = canon.EventResponse, canon.RoleAssistant, canon.RecordMessage
	default:
		eventType, role, format = canon.EventDebugLog, canon.RoleRuntime, canon.RecordDiagnostic
		if msg.Role == "" {
			warnings = append(warnings, fmt.Sprintf("%s: missing required `role`", locator))
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: unrecognized `role` `%s`", locator, msg.Role))
		}
	}

	contentText, _ := textutil.ExtractText(msg.Content)

	eventID := msg.ID
	if eventID == "" {
		eventID = adapterutil.FallbackEventID(canon.SourceGemini, "chat", index+1)
	}
	utc, unixMS, quality := adapterutil.ParsedTimestamp(msg.Timestamp, sourcePath, locator)
	if msg.Timestamp != "" && quality == canon.TimestampFallback {
		warnings = append(warnings, fmt.Sprintf("%s: invalid timestamp `%s`", locator, msg.Timestamp))
	}

	excerpt, hasExcerpt := textutil.Excerpt(contentText, 280)
	raw, _ := json.Marshal(msg)
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
		SessionID:           env.SessionID,
		ConversationID:      env.ConversationID,
	}
	if contentText != "" {
		ev.ContentText = contentText
	}
	if hasExcerpt {
		ev.ContentExcerpt = excerpt
	}
	ev.CanonicalHash = hashutil.CanonicalHash(hashutil.CanonicalParts{
		AdapterName:    string(ev.AdapterName),
		EventType:      string(ev.EventType),
		Role:           string(ev.Role),
		SessionID:      ev.SessionID,
		ConversationID: ev.ConversationID,
		TimestampUTC:   ev.TimestampUTC,
		ContentText:    ev.ContentText,
	})
	return ev, warnings
}
