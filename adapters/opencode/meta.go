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
	"sort"
)

// metaLine covers both session_info rows (no messageID) and message rows
// in OpenCode's session metadata JSONL, accepting the camelCase/snake_case
// aliases spec §4.3.4 documents.
type metaLine struct {
	SessionID      string `json:"sessionID"`
	SessionIDSnake string `json:"session_id"`
	MessageID      string `json:"messageID"`
	MessageIDSnake string `json:"message_id"`
	CreatedAt      string `json:"createdAt"`
	CreatedAtSnake string `json:"created_at"`
	Role           string `json:"role"`
	Model          string `json:"model"`
	Provider       string `json:"provider"`
}

func (m metaLine) sessionID() string { return firstNonEmpty(m.SessionID, m.SessionIDSnake) }
func (m metaLine) messageID() string { return firstNonEmpty(m.MessageID, m.MessageIDSnake) }
func (m metaLine) createdAt() string { return firstNonEmpty(m.CreatedAt, m.CreatedAtSnake) }

// MessageMeta is one message row's metadata, prior to joining with parts.
type MessageMeta struct {
	SessionID  string
	MessageID  string
	CreatedAt  string
	Role       string
	Model      string
	Provider   string
	SourcePath string
	Locator    string
	LineNo     int
}

// SessionAggregate is the per-session rollup built from every row (both
// session_info and message rows) that names a given sessionID.
type SessionAggregate struct {
	SessionID    string
	MessageCount int
	FirstCreated string
	LastCreated  string
	Roles        []string
	Models       []string
	Providers    []string
}

// ParseSessionMetadataJSONL splits OpenCode's session metadata JSONL into
// per-session aggregates and per-message metadata rows (spec §4.3.4).
// session_info rows (no messageID) contribute only to the aggregate;
// message rows contribute to both.
func ParseSessionMetadataJSONL(text []byte, sourcePath string) (sessions []SessionAggregate, messages []MessageMeta, warnings []string) {
	aggregates := map[string]*sessionBuilder{}
	var order []string

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
		var line metaLine
		if err := json.Unmarshal(raw, &line); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: invalid JSON: %v", locator, err))
			continue
		}
		sid := line.sessionID()
		if sid == "" {
			warnings = append(warnings, fmt.Sprintf("%s: missing required `sessionID`", locator))
			continue
		}
		b, ok := aggregates[sid]
		if !ok {
			b = &sessionBuilder{sessionID: sid}
			aggregates[sid] = b
			order = append(order, sid)
		}
		role := line.Role
		if role == "" && line.messageID() != "" {
			role = "unknown"
		}
		b.observe(role, line.Model, line.Provider, line.createdAt())

		if line.messageID() == "" {
			continue // session_info row: aggregate only
		}
		b.messageCount++
		messages = append(messages, MessageMeta{
			SessionID:  sid,
			MessageID:  line.messageID(),
			CreatedAt:  line.createdAt(),
			Role:       role,
			Model:      line.Model,
			Provider:   line.Provider,
			SourcePath: sourcePath,
			Locator:    locator,
			LineNo:     lineNo,
		})
	}

	sort.Strings(order)
	for _, sid := range order {
		sessions = append(sessions, aggregates[sid].build())
	}
	return sessions, messages, warnings
}

type sessionBuilder struct {
	sessionID    string
	messageCount int
	first, last  string
	roles        map[string]bool
	models       map[string]bool
	providers    map[string]bool
}

func (b *sessionBuilder) observe(role, model, provider, created string) {
	if b.roles == nil {
		b.roles = map[string]bool{}
		b.models = map[string]bool{}
		b.providers = map[string]bool{}
	}
	if role != "" {
		b.roles[role] = true
	}
	if model != "" {
		b.models[model] = true
	}
	if provider != "" {
		b.providers[provider] = true
	}
	if created != "" {
		if b.first == "" || created < b.first {
			b.first = created
		}
		if b.last == "" || created > b.last {
			b.last = created
		}
	}
}

func (b *sessionBuilder) build() SessionAggregate {
	return SessionAggregate{
		SessionID:    b.sessionID,
		MessageCount: b.messageCount,
		FirstCreated: b.first,
		LastCreated:  b.last,
		Roles:        sortedSet(b.roles),
		Models:       sortedSet(b.models),
		Providers:    sortedSet(b.providers),
	}
}

func sortedSet(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
