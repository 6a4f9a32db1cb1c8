/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package amp parses Amp's thread envelopes (nested typed message parts)
// and file-change artifacts (spec §4.3.3).
package amp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/adapterutil"
	"github.com/logit-dev/logit/internal/hashutil"
	"github.com/logit-dev/logit/internal/textutil"
)

// Result mirrors the other adapters' Result shape. Paths and Tools are
// only populated by ParseFileChangeJSON, which aggregates them across a
// single artifact's rows (spec §4.3.3).
type Result struct {
	Events   []canon.AgentLogEvent
	Warnings []string
	Paths    []string
	Tools    []string
}

type threadEnvelope struct {
	Messages []threadMessage `json:"messages"`
}

type threadMessage struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Timestamp string          `json:"timestamp"`
	Parts     []json.RawMessage `json:"parts"`
}

type rawPart struct {
	Kind    string          `json:"kind"`
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// ContentPart is one node of a message's flattened DFS part tree.
type ContentPart struct {
	Path        string
	Kind        string
	Text        string
	IsContainer bool // has its own nested children in the flattened tree
}

// walkParts performs the stable DFS over a message's parts array,
// assigning JSON-pointer-like path labels. A container part's own text
// (if any) is recorded at the parent's path; its children always start a
// fresh 0-based index sequence at <parent>.<index>, regardless of
// whether the parent itself carried text (see DESIGN.md's Amp DFS
// open-question decision).
func walkParts(raw []json.RawMessage, prefix string) []ContentPart {
	var out []ContentPart
	for i, r := range raw {
		path := fmt.Sprintf("%d", i)
		if prefix != "" {
			path = prefix + "." + path
		}
		var p rawPart
		if err := json.Unmarshal(r, &p); err != nil {
			continue
		}
		kind := p.Kind
		if kind == "" {
			kind = p.Type
		}
		if kind == "" {
			kind = "unknown"
		}
		ownText, _ := textutil.ExtractText(jsonparser.Delete(r, "content"))
		node := ContentPart{Path: path, Kind: kind, Text: ownText}

		// A nested content array recurses with this part's path as the
		// new prefix, flattening the container. Object-valued content
		// (e.g. a tool_call's arguments) is never flattened into parts
		// of its own.
		var children []ContentPart
		if len(p.Content) > 0 {
			trimmed := strings.TrimSpace(string(p.Content))
			if strings.HasPrefix(trimmed, "[") {
				var raw []json.RawMessage
				if err := json.Unmarshal(p.Content, &raw); err == nil {
					children = walkParts(raw, path)
				}
			}
		}
		node.IsContainer = len(children) > 0
		out = append(out, node)
		out = append(out, children...)
	}
	return out
}

// PartSummary is the accumulated view of a message's flattened part tree.
type PartSummary struct {
	PartCount   int
	PartKinds   []string
	ContentText string
}

// SummarizeParts walks raw top-level parts and produces the part_count,
// part_kinds, and content_text attributes spec §4.3.3 describes.
// part_count is the number of top-level parts, before flattening;
// part_kinds lists every node, container or leaf, in DFS visit order.
func SummarizeParts(raw []json.RawMessage) PartSummary {
	flattened := walkParts(raw, "")
	var kinds []string
	var fragments []string
	for _, part := range flattened {
		kinds = append(kinds, part.Kind)
		if text := strings.TrimSpace(part.Text); text != "" {
			fragments = append(fragments, text)
		}
	}
	return PartSummary{
		PartCount:   len(raw),
		PartKinds:   kinds,
		ContentText: strings.Join(fragments, "\n"),
	}
}

// ParseThreadJSON maps a thread envelope's messages to canonical events.
func ParseThreadJSON(text []byte, runID, sourcePath string) Result {
	var res Result
	var env threadEnvelope
	if err := json.Unmarshal(text, &env); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("pointer:/: invalid JSON: %v", err))
		return res
	}
	for i, msg := range env.Messages {
		locator := fmt.Sprintf("pointer:/messages/%d", i)
		ev, warns := buildThreadEvent(msg, runID, sourcePath, locator, i)
		res.Warnings = append(res.Warnings, warns...)
		res.Events = append(res.Events, ev)
	}
	return res
}

var roleMapping = map[string]struct {
	eventType canon.EventType
	role      canon.Role
	format    canon.RecordFormat
}{
	"user":      {canon.EventPrompt, canon.RoleUser, canon.RecordMessage},
	"assistant": {canon.EventResponse, canon.RoleAssistant, canon.RecordMessage},
	"tool":      {canon.EventToolOutput, canon.RoleTool, canon.RecordToolResult},
	"system":    {canon.EventSystemNotice, canon.RoleSystem, canon.RecordSystem},
}

func buildThreadEvent(msg threadMessage, runID, sourcePath, locator string, index int) (canon.AgentLogEvent, []string) {
	var warnings []string
	mapping, known := roleMapping[msg.Role]
	if !known {
		mapping = struct {
			eventType canon.EventType
			role      canon.Role
			format    canon.RecordFormat
		}{canon.EventDebugLog, canon.RoleRuntime, canon.RecordDiagnostic}
		warnings = append(warnings, fmt.Sprintf("%s: unrecognized `role` `%s`", locator, msg.Role))
	}

	summary := SummarizeParts(msg.Parts)
	if summary.ContentText == "" {
		warnings = append(warnings, fmt.Sprintf("%s: missing message content text", locator))
	}

	eventID := msg.ID
	if eventID == "" {
		eventID = adapterutil.FallbackEventID(canon.SourceAmp, "thread", index+1)
	}
	utc, unixMS, quality := adapterutil.ParsedTimestamp(msg.Timestamp, sourcePath, locator)
	if msg.Timestamp != "" && quality == canon.TimestampFallback {
		warnings = append(warnings, fmt.Sprintf("%s: invalid timestamp `%s`", locator, msg.Timestamp))
	}

	excerpt, hasExcerpt := textutil.Excerpt(summary.ContentText, 280)
	raw, _ := json.Marshal(msg)
	ev := canon.AgentLogEvent{
		SchemaVersion:       canon.SchemaVersion,
		EventID:             eventID,
		RunID:               runID,
		SourceKind:          canon.SourceAmp,
		AdapterName:         canon.SourceAmp,
		SourcePath:          sourcePath,
		SourceRecordLocator: locator,
		RecordFormat:        mapping.format,
		EventType:           mapping.eventType,
		Role:                mapping.role,
		TimestampUTC:        utc,
		TimestampUnixMS:     unixMS,
		TimestampQuality:    quality,
		RawHash:             hashutil.RawHash(raw),
		Metadata: map[string]string{
			"amp_part_count": fmt.Sprintf("%d", summary.PartCount),
			"amp_part_kinds": strings.Join(summary.PartKinds, ","),
		},
	}
	if summary.ContentText != "" {
		ev.ContentText = summary.ContentText
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
