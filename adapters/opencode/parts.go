/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package opencode

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type partLine struct {
	SessionID      string          `json:"sessionID"`
	SessionIDSnake string          `json:"session_id"`
	MessageID      string          `json:"messageID"`
	MessageIDSnake string          `json:"message_id"`
	PartID         string          `json:"partID"`
	PartIDSnake    string          `json:"part_id"`
	Kind           json.RawMessage `json:"kind"`
	Text           string          `json:"text"`
}

func (p partLine) sessionID() string { return firstNonEmpty(p.SessionID, p.SessionIDSnake) }
func (p partLine) messageID() string { return firstNonEmpty(p.MessageID, p.MessageIDSnake) }
func (p partLine) partID() string    { return firstNonEmpty(p.PartID, p.PartIDSnake) }

// Part is one parsed parts-JSONL row (spec §4.3.4).
type Part struct {
	SessionID   string
	MessageID   string
	PartID      string
	Kind        string
	Text        string
	IsStepEvent bool
	Orphan      bool
	SourcePath  string
	Locator     string
	LineNo      int
}

// MessageKeyIndex reports whether (sessionID, messageID) pairs are known
// to exist as message metadata rows, used to flag orphan parts. A nil
// index disables orphan detection entirely (no messages parsed yet).
type MessageKeyIndex map[string]bool

// NewMessageKeyIndex builds a lookup of (sessionID, messageID) keys from
// parsed message metadata, for use with ParsePartsJSONL's orphan check.
func NewMessageKeyIndex(messages []MessageMeta) MessageKeyIndex {
	idx := make(MessageKeyIndex, len(messages))
	for _, m := range messages {
		idx[messageKey(m.SessionID, m.MessageID)] = true
	}
	return idx
}

func messageKey(sessionID, messageID string) string {
	return sessionID + "\x1f" + messageID
}

// ParsePartsJSONL parses OpenCode's parts JSONL. kind is case-folded to
// lower; a non-string kind becomes "unknown". is_step_event is set when
// the folded kind ends with "step_event" or equals "approval_step". When
// index is non-nil, parts whose (sessionID, messageID) key is absent from
// it are marked orphan and warned about (spec §4.3.4).
func ParsePartsJSONL(text []byte, sourcePath string, index MessageKeyIndex) (parts []Part, warnings []string) {
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
		var line partLine
		if err := json.Unmarshal(raw, &line); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: invalid JSON: %v", locator, err))
			continue
		}
		kind := foldKind(line.Kind)
		p := Part{
			SessionID:   line.sessionID(),
			MessageID:   line.messageID(),
			PartID:      line.partID(),
			Kind:        kind,
			Text:        line.Text,
			IsStepEvent: strings.HasSuffix(kind, "step_event") || kind == "approval_step",
			SourcePath:  sourcePath,
			Locator:     locator,
			LineNo:      lineNo,
		}
		if index != nil && !index[messageKey(p.SessionID, p.MessageID)] {
			p.Orphan = true
			warnings = append(warnings, fmt.Sprintf("%s: orphan part for unknown message `%s`/`%s`", locator, p.SessionID, p.MessageID))
		}
		parts = append(parts, p)
	}
	return parts, warnings
}

// foldKind lowercases a string kind, or returns "unknown" for any
// non-string or absent kind value.
func foldKind(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 {
		return "unknown"
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "unknown"
	}
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s)
}
