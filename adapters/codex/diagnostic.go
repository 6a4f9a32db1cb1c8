/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package codex

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/adapterutil"
	"github.com/logit-dev/logit/internal/hashutil"
	"github.com/logit-dev/logit/internal/textutil"
)

// diagnosticFields is how many space-separated fields a diagnostic line
// "<ts> <LEVEL> <logger> <event> k=v..." is split into (spec §4.3.1); the
// last field holds <event> and the free-form key=value pairs after it.
var diagnosticFields = 4

var levelEventType = map[string]canon.EventType{
	"INFO":  canon.EventDebugLog,
	"WARN":  canon.EventStatusUpdate,
	"ERROR": canon.EventError,
}

// ParseDiagnosticLog maps Codex's plaintext diagnostic logs into
// debug-log/status-update/error events tagged by logger namespace.
func ParseDiagnosticLog(text []byte, runID, sourcePath string) Result {
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
		ev, warns := parseDiagnosticLine(string(raw), raw, runID, sourcePath, locator, lineNo)
		res.Warnings = append(res.Warnings, warns...)
		res.Events = append(res.Events, ev)
	}
	return res
}

func parseDiagnosticLine(line string, raw []byte, runID, sourcePath, locator string, lineNo int) (canon.AgentLogEvent, []string) {
	var warnings []string
	fields := strings.SplitN(line, " ", diagnosticFields)
	var ts, level, logger, rest string
	if len(fields) == diagnosticFields {
		ts, level, logger, rest = fields[0], fields[1], fields[2], fields[3]
	} else {
		warnings = append(warnings, fmt.Sprintf("%s: unrecognized diagnostic line shape", locator))
	}

	eventType, known := levelEventType[level]
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

	tag := "desktop_diagnostic"
	if strings.Contains(logger, "tui") {
		tag = "tui_diagnostic"
	}

	eventName := rest
	if idx := strings.IndexByte(rest, ' '); idx != -1 {
		eventName = rest[:idx]
	}

	excerpt, hasExcerpt := textutil.Excerpt(rest, 280)
	ev := canon.AgentLogEvent{
		SchemaVersion:       canon.SchemaVersion,
		EventID:             adapterutil.FallbackEventID(canon.SourceCodex, "diag", lineNo),
		RunID:               runID,
		SourceKind:          canon.SourceCodex,
		AdapterName:         canon.SourceCodex,
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
		Tags:                []string{tag},
		Metadata:            map[string]string{"codex_log_event": eventName, "codex_log_logger": logger},
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
