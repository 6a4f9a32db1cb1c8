/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package validate checks events.jsonl against the generated schema
// (spec §4.7), using buger/jsonparser for cheap structural checks without
// a full unmarshal.
package validate

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"

	"github.com/buger/jsonparser"
	"github.com/logit-dev/logit/canon"
)

// Mode selects how much of the schema a validation pass enforces.
type Mode string

const (
	// ModeBaseline checks required fields are present and enum fields
	// carry one of their closed values.
	ModeBaseline Mode = "baseline"
	// ModeStrict additionally checks the JSON type of the numeric and
	// array fields that are present.
	ModeStrict Mode = "strict"
)

// IssueKind is the closed set of validator issue kinds (spec §4.7).
type IssueKind string

const (
	IssueInvalidJSON     IssueKind = "invalid-json"
	IssueSchemaViolation IssueKind = "schema-violation"
)

// Severity marks whether an issue blocks downstream consumption.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one line's validation finding.
type Issue struct {
	Line     int       `json:"line"`
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Detail   string    `json:"detail"`
}

// Report aggregates every issue found across a JSONL stream.
type Report struct {
	TotalLines int     `json:"total_lines"`
	Issues     []Issue `json:"issues"`
}

var schema = canon.GenerateSchema()

// enumFields returns the properties GenerateSchema marks as string type
// with a non-empty Enum; every other property is either free-form or
// (object/array) not string-enum-checkable at the baseline level.
func enumFields() map[string][]string {
	out := map[string][]string{}
	for name, field := range schema.Properties {
		if field.Type == "string" && len(field.Enum) > 0 {
			out[name] = field.Enum
		}
	}
	return out
}

// ValidateJSONL runs mode's checks over every line of a JSONL stream,
// per spec §4.7. Blank lines are skipped, matching every adapter's own
// JSONL scanning convention.
func ValidateJSONL(text []byte, mode Mode) Report {
	var report Report
	enums := enumFields()
	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		report.TotalLines++
		report.Issues = append(report.Issues, validateLine(raw, lineNo, mode, enums)...)
	}
	sort.SliceStable(report.Issues, func(i, j int) bool {
		if report.Issues[i].Line != report.Issues[j].Line {
			return report.Issues[i].Line < report.Issues[j].Line
		}
		return report.Issues[i].Detail < report.Issues[j].Detail
	})
	return report
}

func validateLine(raw []byte, lineNo int, mode Mode, enums map[string][]string) []Issue {
	if _, _, _, err := jsonparser.Get(raw); err != nil {
		return []Issue{{Line: lineNo, Kind: IssueInvalidJSON, Severity: SeverityError, Detail: err.Error()}}
	}

	var missing []string
	for _, field := range schema.Required {
		if _, _, _, err := jsonparser.Get(raw, field); err != nil {
			missing = append(missing, field)
		}
	}
	var issues []Issue
	if len(missing) > 0 {
		issues = append(issues, Issue{
			Line: lineNo, Kind: IssueSchemaViolation, Severity: SeverityError,
			Detail: fmt.Sprintf("missing required fields: %v", missing),
		})
	}

	for field, allowed := range enums {
		v, _, _, err := jsonparser.Get(raw, field)
		if err != nil {
			continue // absent optional enum field is fine at baseline
		}
		s, err := jsonparser.ParseString(v)
		if err != nil {
			continue
		}
		if !contains(allowed, s) {
			issues = append(issues, Issue{
				Line: lineNo, Kind: IssueSchemaViolation, Severity: SeverityError,
				Detail: fmt.Sprintf("field %q has value %q, not one of %v", field, s, allowed),
			})
		}
	}

	if mode == ModeStrict {
		issues = append(issues, validateStrictTypes(raw, lineNo)...)
	}
	return issues
}

// validateStrictTypes checks that the integer fields (required or
// optional) carry a JSON number and the array fields a JSON array, when
// present (spec §4.7's strict mode).
func validateStrictTypes(raw []byte, lineNo int) []Issue {
	var issues []Issue
	for _, field := range []string{"sequence_global", "timestamp_unix_ms", "input_tokens", "output_tokens", "total_tokens", "dedupe_count"} {
		v, dataType, _, err := jsonparser.Get(raw, field)
		if err != nil || dataType == jsonparser.NotExist {
			continue
		}
		if dataType != jsonparser.Number {
			issues = append(issues, Issue{
				Line: lineNo, Kind: IssueSchemaViolation, Severity: SeverityError,
				Detail: fmt.Sprintf("field %q must be a number, got %s", field, string(v)),
			})
		}
	}
	for _, field := range []string{"tags", "flags", "warnings", "errors", "provenance_entries"} {
		_, dataType, _, err := jsonparser.Get(raw, field)
		if err != nil || dataType == jsonparser.NotExist {
			continue
		}
		if dataType != jsonparser.Array {
			issues = append(issues, Issue{
				Line: lineNo, Kind: IssueSchemaViolation, Severity: SeverityError,
				Detail: fmt.Sprintf("field %q must be an array", field),
			})
		}
	}
	return issues
}

func contains(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}
