/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package opencode

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/adapterutil"
	"github.com/logit-dev/logit/internal/hashutil"
	"github.com/logit-dev/logit/internal/textutil"
)

var runtimeLevelEventType = map[string]canon.EventType{
	"INFO":  canon.EventDebugLog,
	"WARN":  canon.EventStatusUpdate,
	"ERROR": canon.EventError,
}

// ParseRuntimeLog maps opencode.runtime diagnostic text logs, shaped like
// Codex's "<ts> <LEVEL> <logger> k=v..." lines (spec §4.3.4, §4.3.1).
// token_usage fields (input_tokens/output_tokens/total_tokens) found
// among the trailing key=value pairs are parsed into the event's typed
// token fields; any subset may be present, the rest are left absent.
func ParseRuntimeLog(text []byte, runID, sourcePath string) Result {
	var res Result
	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		locator := fmt.Sprintf("line:%d", lineNo)
		ev, warns := parseRuntimeLine(string(raw), raw, runID, sourcePath, locator, lineNo)
		res.Warnings = append(res.Warnings, warns...)
		res.Events = append(res.Events, ev)
	}
	return res
}

func parseRuntimeLine(line string, raw []byte, runID, sourcePath, locator string, lineNo int) (canon.AgentLogEvent, []string) {
	var warnings []string
	fields := strings.SplitN(line, " ", 4)
	var ts, level, logger, rest string
	if len(fields) == 4 {
		ts, level, logger, rest = fields[0], fields[1], fields[2], fields[3]
	} else {
		warnings = append(warnings, fmt.Sprintf("%s: unrecognized diagnostic line shape", locator))
	}

	eventType, known := runtimeLevelEventType[level]
	if !known {
		eventType = canon.EventDebugLog
		if level != "" {
			warnings = append(warnings, fmt.Sprintf("%s: unrecognized log level `%s`", locator, level))
		}
	}

	utc, unixMS, quality := adapterutil.ParsedTimestamp(ts, sourcePath, locator)
	if ts != "" && quality == canon.TimestampFallback {
		warnings = append(warnings, fmt.Sprintf("%s: invalid timestamp `%s`", locator, ts))
	}

	kv := parseKV(rest)
	metadata := map[string]string{"opencode_log_logger": logger}
	if name := firstToken(rest); name != "" {
		metadata["opencode_log_event"] = name
	}

	excerpt, hasExcerpt := textutil.Excerpt(rest, 280)
	ev := canon.AgentLogEvent{
		SchemaVersion:       canon.SchemaVersion,
		EventID:             adapterutil.FallbackEventID(canon.SourceOpenCode, "runtime", lineNo),
		RunID:               runID,
		SourceKind:          canon.SourceOpenCode,
		AdapterName:         canon.SourceOpenCode,
		SourcePath:          sourcePath,
		SourceRecordLocator: locator,
		RecordFormat:        canon.RecordDiagnostic,
		EventType:           eventType,
		Role:                canon.RoleRuntime,
		TimestampUTC:        utc,
		TimestampUnixMS:     unixMS,
		TimestampQuality:    quality,
		RawHash:             hashutil.RawHash(raw),
		ContentText:         rest,
		Tags:                []string{"opencode_runtime"},
		Metadata:            metadata,
		InputTokens:         parseTokenCount(kv, "input_tokens"),
		OutputTokens:        parseTokenCount(kv, "output_tokens"),
		TotalTokens:         parseTokenCount(kv, "total_tokens"),
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

func firstToken(s string) string {
	if idx := strings.IndexByte(s, ' '); idx != -1 {
		return s[:idx]
	}
	return s
}

// parseKV extracts trailing "k=v" tokens from a diagnostic line's free
// text, ignoring the leading event-name token.
func parseKV(rest string) map[string]string {
	out := map[string]string{}
	for _, tok := range strings.Fields(rest) {
		if idx := strings.IndexByte(tok, '='); idx > 0 {
			out[tok[:idx]] = tok[idx+1:]
		}
	}
	return out
}

func parseTokenCount(kv map[string]string, key string) *int64 {
	v, ok := kv[key]
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ParsePromptHistoryLog parses tab-separated lines
// "<message_id>\t<created_at>\t<text>".
// message_id may be empty, in which case a fallback event_id is used
// (spec §4.3.4).
func ParsePromptHistoryLog(text []byte, runID, sourcePath string) Result {
	var res Result
	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		locator := fmt.Sprintf("line:%d", lineNo)
		parts := strings.SplitN(string(raw), "\t", 3)
		var messageID, createdAt, promptText string
		switch len(parts) {
		case 3:
			messageID, createdAt, promptText = parts[0], parts[1], parts[2]
		case 2:
			createdAt, promptText = parts[0], parts[1]
		default:
			promptText = string(raw)
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: unrecognized prompt-history line shape", locator))
		}

		eventID := messageID
		if eventID == "" {
			eventID = fmt.Sprintf("opencode-aux-line-%d", lineNo)
		}
		utc, unixMS, quality := adapterutil.ParsedTimestamp(createdAt, sourcePath, locator)
		if createdAt != "" && quality == canon.TimestampFallback {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: invalid timestamp `%s`", locator, createdAt))
		}

		excerpt, hasExcerpt := textutil.Excerpt(promptText, 280)
		ev := canon.AgentLogEvent{
			SchemaVersion:       canon.SchemaVersion,
			EventID:             eventID,
			RunID:               runID,
			SourceKind:          canon.SourceOpenCode,
			AdapterName:         canon.SourceOpenCode,
			SourcePath:          sourcePath,
			SourceRecordLocator: locator,
			RecordFormat:        canon.RecordMessage,
			EventType:           canon.EventPrompt,
			Role:                canon.RoleUser,
			TimestampUTC:        utc,
			TimestampUnixMS:     unixMS,
			TimestampQuality:    quality,
			RawHash:             hashutil.RawHash(raw),
			ContentText:         promptText,
			Tags:                []string{"prompt_history_auxiliary"},
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
		res.Events = append(res.Events, ev)
	}
	return res
}
