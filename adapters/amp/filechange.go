/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package amp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/adapterutil"
	"github.com/logit-dev/logit/internal/hashutil"
)

// defaultBlobLimitBytes is used when blob_limit_bytes is absent or
// unparseable (spec §4.3.3).
const defaultBlobLimitBytes = 1 << 20 // 1 MiB

type fileChangeEnvelope struct {
	BlobLimitBytes json.RawMessage   `json:"blob_limit_bytes"`
	Attachments    []attachmentEntry `json:"attachments"`
	Files          []fileChangeRow   `json:"files"`
}

type attachmentEntry struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// fileChangeRow accepts the field-name aliases spec §4.3.3 documents.
type fileChangeRow struct {
	File       string `json:"file"`
	Path       string `json:"path"`
	Filename   string `json:"filename"`
	Operation  string `json:"operation"`
	Action     string `json:"action"`
	Op         string `json:"op"`
	Tool       string `json:"tool"`
	ToolName   string `json:"tool_name"`
	SourceTool string `json:"source_tool"`
	Before     string `json:"before"`
	Old        string `json:"old"`
	OldContent string `json:"old_content"`
	After      string `json:"after"`
	New        string `json:"new"`
	NewContent string `json:"new_content"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (r fileChangeRow) file() string      { return firstNonEmpty(r.File, r.Path, r.Filename) }
func (r fileChangeRow) operation() string { return firstNonEmpty(r.Operation, r.Action, r.Op) }
func (r fileChangeRow) tool() string      { return firstNonEmpty(r.Tool, r.ToolName, r.SourceTool) }
func (r fileChangeRow) before() string    { return firstNonEmpty(r.Before, r.Old, r.OldContent) }
func (r fileChangeRow) after() string     { return firstNonEmpty(r.After, r.New, r.NewContent) }

// parseBlobLimit accepts blob_limit_bytes as either a JSON integer or a
// numeric string; any other shape falls back to the default and warns.
func parseBlobLimit(raw json.RawMessage) (limit int64, warning string) {
	if len(raw) == 0 {
		return defaultBlobLimitBytes, ""
	}
	var asInt int64
	if err := json.Unmarshal(raw, &asInt); err == nil {
		if asInt <= 0 {
			return defaultBlobLimitBytes, "invalid `blob_limit_bytes`: must be positive"
		}
		return asInt, ""
	}
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err == nil {
		if n, err := strconv.ParseInt(asStr, 10, 64); err == nil && n > 0 {
			return n, ""
		}
	}
	return defaultBlobLimitBytes, fmt.Sprintf("invalid `blob_limit_bytes` %s, using default", string(raw))
}

// truncateBlob truncates s to at most limit-3 UTF-8 characters followed
// by "...", per spec §4.3.3.
func truncateBlob(s string, limit int64) (out string, truncated bool) {
	if limit <= 3 {
		return s, false
	}
	maxChars := int(limit) - 3
	if utf8.RuneCountInString(s) <= maxChars {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + "...", true
}

// ParseFileChangeJSON maps a file-change artifact to one tool-output
// event per row, plus attachment size bookkeeping.
func ParseFileChangeJSON(text []byte, runID, sourcePath string) Result {
	var res Result
	var env fileChangeEnvelope
	if err := json.Unmarshal(text, &env); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("pointer:/: invalid JSON: %v", err))
		return res
	}
	limit, warn := parseBlobLimit(env.BlobLimitBytes)
	if warn != "" {
		res.Warnings = append(res.Warnings, "pointer:/blob_limit_bytes: "+warn)
	}

	pathSet := map[string]bool{}
	toolSet := map[string]bool{}

	for i, row := range env.Files {
		locator := fmt.Sprintf("pointer:/files/%d", i)
		ev, warns := buildFileChangeEvent(row, limit, runID, sourcePath, locator, i)
		res.Warnings = append(res.Warnings, warns...)
		res.Events = append(res.Events, ev)
		if f := row.file(); f != "" {
			pathSet[f] = true
		}
		if tl := row.tool(); tl != "" {
			toolSet[tl] = true
		}
	}

	for i, att := range env.Attachments {
		atOrOver := att.SizeBytes >= limit
		locator := fmt.Sprintf("pointer:/attachments/%d", i)
		raw, _ := json.Marshal(att)
		ev := canon.AgentLogEvent{
			SchemaVersion:       canon.SchemaVersion,
			EventID:             adapterutil.FallbackEventID(canon.SourceAmp, "attachment", i+1),
			RunID:               runID,
			SourceKind:          canon.SourceAmp,
			AdapterName:         canon.SourceAmp,
			SourcePath:          sourcePath,
			SourceRecordLocator: locator,
			RecordFormat:        canon.RecordToolResult,
			EventType:           canon.EventArtifactRef,
			Role:                canon.RoleTool,
			RawHash:             hashutil.RawHash(raw),
			Metadata: map[string]string{
				"amp_attachment_name":  att.Name,
				"amp_attachment_size":  fmt.Sprintf("%d", att.SizeBytes),
				"amp_at_or_over_limit": fmt.Sprintf("%t", atOrOver),
			},
		}
		ev.TimestampUTC, ev.TimestampUnixMS, ev.TimestampQuality = adapterutil.FallbackTimestamp(sourcePath, locator)
		ev.CanonicalHash = hashutil.CanonicalHash(hashutil.CanonicalParts{
			AdapterName:  string(ev.AdapterName),
			EventType:    string(ev.EventType),
			Role:         string(ev.Role),
			TimestampUTC: ev.TimestampUTC,
		})
		res.Events = append(res.Events, ev)
	}

	res.Paths = sortedKeys(pathSet)
	res.Tools = sortedKeys(toolSet)
	return res
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func buildFileChangeEvent(row fileChangeRow, limit int64, runID, sourcePath, locator string, index int) (canon.AgentLogEvent, []string) {
	var warnings []string
	before, beforeTruncated := truncateBlob(row.before(), limit)
	after, afterTruncated := truncateBlob(row.after(), limit)

	raw, _ := json.Marshal(row)
	ev := canon.AgentLogEvent{
		SchemaVersion:       canon.SchemaVersion,
		EventID:             adapterutil.FallbackEventID(canon.SourceAmp, "filechange", index+1),
		RunID:               runID,
		SourceKind:          canon.SourceAmp,
		AdapterName:         canon.SourceAmp,
		SourcePath:          sourcePath,
		SourceRecordLocator: locator,
		RecordFormat:        canon.RecordToolResult,
		EventType:           canon.EventToolOutput,
		Role:                canon.RoleTool,
		RawHash:             hashutil.RawHash(raw),
		ToolName:            row.tool(),
		Metadata: map[string]string{
			"amp_file":             row.file(),
			"amp_operation":        row.operation(),
			"amp_before_truncated": fmt.Sprintf("%t", beforeTruncated),
			"amp_after_truncated":  fmt.Sprintf("%t", afterTruncated),
		},
	}
	ev.TimestampUTC, ev.TimestampUnixMS, ev.TimestampQuality = adapterutil.FallbackTimestamp(sourcePath, locator)
	if before != "" {
		ev.ToolInput = before
	}
	if after != "" {
		ev.ToolOutput = after
	}
	ev.CanonicalHash = hashutil.CanonicalHash(hashutil.CanonicalParts{
		AdapterName:  string(ev.AdapterName),
		EventType:    string(ev.EventType),
		Role:         string(ev.Role),
		TimestampUTC: ev.TimestampUTC,
		ContentText:  before + after,
	})
	if row.file() == "" {
		warnings = append(warnings, fmt.Sprintf("%s: missing required file path", locator))
	}
	return ev, warnings
}
