/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tabular

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/logit-dev/logit/canon"
	_ "modernc.org/sqlite"
)

// MismatchKind is the closed set of parity disagreements (spec §4.6).
type MismatchKind string

const (
	MismatchRecordCount   MismatchKind = "record_count"
	MismatchMissingRow    MismatchKind = "missing_on_tabular_side"
	MismatchMissingLine   MismatchKind = "missing_on_jsonl_side"
	MismatchFieldConflict MismatchKind = "field_disagreement"
)

// Mismatch is one parity disagreement, keyed by (event_id, field, detail)
// per spec §4.6.
type Mismatch struct {
	EventID string       `json:"event_id"`
	Field   string       `json:"field"`
	Kind    MismatchKind `json:"kind"`
	Detail  string       `json:"detail"`
}

// OpenReadOnly opens a read-only handle to the tabular store, for use by
// the parity verifier, distinct from the run's single writer connection
// (spec §5).
func OpenReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("tabular: open read-only %q: %w", path, err)
	}
	return db, nil
}

// VerifyParity compares events.jsonl's events against the tabular
// store's rows, reporting record-count disagreement, rows present on
// only one side, and any required-field disagreement for rows present on
// both (spec §4.6).
func VerifyParity(events []canon.AgentLogEvent, db *sql.DB) ([]Mismatch, error) {
	var mismatches []Mismatch

	rows, err := db.Query(`SELECT event_id, schema_version, run_id, sequence_global, source_kind, adapter_name,
		source_path, source_record_locator, record_format, event_type, role,
		timestamp_utc, timestamp_unix_ms, timestamp_quality, raw_hash, canonical_hash FROM events`)
	if err != nil {
		return nil, fmt.Errorf("tabular: parity query: %w", err)
	}
	defer rows.Close()

	tabular := map[string]canon.AgentLogEvent{}
	for rows.Next() {
		var ev canon.AgentLogEvent
		if err := rows.Scan(&ev.EventID, &ev.SchemaVersion, &ev.RunID, &ev.SequenceGlobal, &ev.SourceKind, &ev.AdapterName,
			&ev.SourcePath, &ev.SourceRecordLocator, &ev.RecordFormat, &ev.EventType, &ev.Role,
			&ev.TimestampUTC, &ev.TimestampUnixMS, &ev.TimestampQuality, &ev.RawHash, &ev.CanonicalHash); err != nil {
			return nil, fmt.Errorf("tabular: parity scan: %w", err)
		}
		tabular[ev.EventID] = ev
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tabular: parity rows: %w", err)
	}

	if len(events) != len(tabular) {
		mismatches = append(mismatches, Mismatch{
			Field: "*", Kind: MismatchRecordCount,
			Detail: fmt.Sprintf("events.jsonl has %d records, tabular store has %d rows", len(events), len(tabular)),
		})
	}

	jsonlByID := map[string]canon.AgentLogEvent{}
	for _, ev := range events {
		jsonlByID[ev.EventID] = ev
		row, ok := tabular[ev.EventID]
		if !ok {
			mismatches = append(mismatches, Mismatch{EventID: ev.EventID, Field: "event_id", Kind: MismatchMissingRow, Detail: "present in events.jsonl, absent from tabular store"})
			continue
		}
		mismatches = append(mismatches, compareRequired(ev, row)...)
	}
	for id := range tabular {
		if _, ok := jsonlByID[id]; !ok {
			mismatches = append(mismatches, Mismatch{EventID: id, Field: "event_id", Kind: MismatchMissingLine, Detail: "present in tabular store, absent from events.jsonl"})
		}
	}

	sort.Slice(mismatches, func(i, j int) bool {
		a, b := mismatches[i], mismatches[j]
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Detail < b.Detail
	})
	return mismatches, nil
}

func compareRequired(jsonlEv, row canon.AgentLogEvent) []Mismatch {
	var out []Mismatch
	check := func(field, a, b string) {
		if a != b {
			out = append(out, Mismatch{
				EventID: jsonlEv.EventID, Field: field, Kind: MismatchFieldConflict,
				Detail: fmt.Sprintf("jsonl=%q tabular=%q", a, b),
			})
		}
	}
	check("schema_version", jsonlEv.SchemaVersion, row.SchemaVersion)
	check("run_id", jsonlEv.RunID, row.RunID)
	check("source_kind", string(jsonlEv.SourceKind), string(row.SourceKind))
	check("adapter_name", string(jsonlEv.AdapterName), string(row.AdapterName))
	check("source_path", jsonlEv.SourcePath, row.SourcePath)
	check("source_record_locator", jsonlEv.SourceRecordLocator, row.SourceRecordLocator)
	check("record_format", string(jsonlEv.RecordFormat), string(row.RecordFormat))
	check("event_type", string(jsonlEv.EventType), string(row.EventType))
	check("role", string(jsonlEv.Role), string(row.Role))
	check("timestamp_utc", jsonlEv.TimestampUTC, row.TimestampUTC)
	check("timestamp_quality", string(jsonlEv.TimestampQuality), string(row.TimestampQuality))
	check("raw_hash", jsonlEv.RawHash, row.RawHash)
	check("canonical_hash", jsonlEv.CanonicalHash, row.CanonicalHash)
	if jsonlEv.SequenceGlobal != row.SequenceGlobal {
		out = append(out, Mismatch{EventID: jsonlEv.EventID, Field: "sequence_global", Kind: MismatchFieldConflict,
			Detail: fmt.Sprintf("jsonl=%d tabular=%d", jsonlEv.SequenceGlobal, row.SequenceGlobal)})
	}
	if jsonlEv.TimestampUnixMS != row.TimestampUnixMS {
		out = append(out, Mismatch{EventID: jsonlEv.EventID, Field: "timestamp_unix_ms", Kind: MismatchFieldConflict,
			Detail: fmt.Sprintf("jsonl=%d tabular=%d", jsonlEv.TimestampUnixMS, row.TimestampUnixMS)})
	}
	return out
}
