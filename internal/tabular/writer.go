/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package tabular mirrors the JSONL event stream into a SQLite-backed
// tabular store and verifies parity between the two artifacts (spec
// §4.6). It is grounded on the teacher pack's own pure-Go SQLite writer
// (bobbydeveaux-starbucks-mugs/internal/queue/sqlite_queue.go): a single
// writer connection, WAL journal mode, and an idempotent DDL apply.
package tabular

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/logit-dev/logit/canon"
	_ "modernc.org/sqlite" // register "sqlite" driver with database/sql
)

// DefaultBatchSize bounds how many rows Writer commits per transaction.
const DefaultBatchSize = 500

// Writer is the single-writer handle to the tabular mirror (spec §5: the
// tabular store is accessed by a single writer for a given run).
type Writer struct {
	db        *sql.DB
	batchSize int
}

// Open opens the SQLite database at path, creating it if absent (an
// existing file is kept, not replaced), applies the events/schema_meta DDL,
// and appends one schema_meta row.
func Open(path string, schemaVersion string, batchSize int) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tabular: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tabular: set WAL mode: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tabular: apply schema: %w", err)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if _, err := db.Exec(`INSERT INTO schema_meta (schema_version, batch_size) VALUES (?, ?)`, schemaVersion, batchSize); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tabular: write schema_meta: %w", err)
	}
	return &Writer{db: db, batchSize: batchSize}, nil
}

// ddl matches the required+optional event fields (spec §3); complex
// fields (tags, flags, warnings, errors, provenance_entries, metadata)
// are JSON-encoded text columns, per spec §4.6.
const ddl = `
CREATE TABLE IF NOT EXISTS schema_meta (
    schema_version TEXT NOT NULL,
    batch_size     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
    event_id               TEXT PRIMARY KEY,
    schema_version         TEXT NOT NULL,
    run_id                 TEXT NOT NULL,
    sequence_global        INTEGER NOT NULL,
    source_kind            TEXT NOT NULL,
    adapter_name           TEXT NOT NULL,
    source_path            TEXT NOT NULL,
    source_record_locator  TEXT NOT NULL,
    record_format          TEXT NOT NULL,
    event_type             TEXT NOT NULL,
    role                   TEXT NOT NULL,
    timestamp_utc          TEXT NOT NULL,
    timestamp_unix_ms      INTEGER NOT NULL,
    timestamp_quality      TEXT NOT NULL,
    raw_hash               TEXT NOT NULL,
    canonical_hash         TEXT NOT NULL,
    sequence_source        TEXT,
    source_record_hash     TEXT,
    adapter_version        TEXT,
    session_id             TEXT,
    conversation_id        TEXT,
    turn_id                TEXT,
    parent_event_id        TEXT,
    actor_id               TEXT,
    actor_name             TEXT,
    provider               TEXT,
    model                  TEXT,
    content_text           TEXT,
    content_excerpt        TEXT,
    content_mime           TEXT,
    tool_name              TEXT,
    tool_call_id           TEXT,
    tool_input             TEXT,
    tool_output            TEXT,
    tool_status            TEXT,
    input_tokens           INTEGER,
    output_tokens          INTEGER,
    total_tokens           INTEGER,
    cost_usd               REAL,
    tags                   TEXT,
    flags                  TEXT,
    warnings               TEXT,
    errors                 TEXT,
    pii_redacted           INTEGER,
    dedupe_count           INTEGER,
    dedupe_strategy        TEXT,
    provenance_entries     TEXT,
    metadata               TEXT
);
`

const insertSQL = `
INSERT INTO events (
    event_id, schema_version, run_id, sequence_global, source_kind, adapter_name,
    source_path, source_record_locator, record_format, event_type, role,
    timestamp_utc, timestamp_unix_ms, timestamp_quality, raw_hash, canonical_hash,
    sequence_source, source_record_hash, adapter_version, session_id, conversation_id,
    turn_id, parent_event_id, actor_id, actor_name, provider, model,
    content_text, content_excerpt, content_mime, tool_name, tool_call_id,
    tool_input, tool_output, tool_status, input_tokens, output_tokens, total_tokens,
    cost_usd, tags, flags, warnings, errors, pii_redacted,
    dedupe_count, dedupe_strategy, provenance_entries, metadata
) VALUES (
    ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)`

// BatchError identifies the offending primary key when a batch's write
// rolls back (spec §4.6, §7: "duplicate primary key in a batch — roll
// back that batch, surface a structured error identifying the offending
// key; prior batches remain committed").
type BatchError struct {
	BatchStart int
	EventID    string
	Err        error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("tabular: batch starting at row %d failed on event_id %q: %v", e.BatchStart, e.EventID, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// WriteEvents writes events to the tabular store in batches of the
// writer's configured size. A duplicate primary key within a batch rolls
// back only that batch; batches already committed remain intact (spec
// §4.6, §7).
func (w *Writer) WriteEvents(events []canon.AgentLogEvent) error {
	for start := 0; start < len(events); start += w.batchSize {
		end := start + w.batchSize
		if end > len(events) {
			end = len(events)
		}
		if err := w.writeBatch(events[start:end], start); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeBatch(batch []canon.AgentLogEvent, start int) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("tabular: begin batch at row %d: %w", start, err)
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("tabular: prepare batch at row %d: %w", start, err)
	}
	defer stmt.Close()

	for _, ev := range batch {
		if _, err := stmt.Exec(rowArgs(ev)...); err != nil {
			_ = tx.Rollback()
			return &BatchError{BatchStart: start, EventID: ev.EventID, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tabular: commit batch at row %d: %w", start, err)
	}
	return nil
}

func rowArgs(ev canon.AgentLogEvent) []any {
	return []any{
		ev.EventID, ev.SchemaVersion, ev.RunID, ev.SequenceGlobal, string(ev.SourceKind), string(ev.AdapterName),
		ev.SourcePath, ev.SourceRecordLocator, string(ev.RecordFormat), string(ev.EventType), string(ev.Role),
		ev.TimestampUTC, ev.TimestampUnixMS, string(ev.TimestampQuality), ev.RawHash, ev.CanonicalHash,
		nullable(ev.SequenceSource), nullable(ev.SourceRecordHash), nullable(ev.AdapterVersion), nullable(ev.SessionID), nullable(ev.ConversationID),
		nullable(ev.TurnID), nullable(ev.ParentEventID), nullable(ev.ActorID), nullable(ev.ActorName), nullable(ev.Provider), nullable(ev.Model),
		nullable(ev.ContentText), nullable(ev.ContentExcerpt), nullable(ev.ContentMime), nullable(ev.ToolName), nullable(ev.ToolCallID),
		nullable(ev.ToolInput), nullable(ev.ToolOutput), nullable(ev.ToolStatus), ev.InputTokens, ev.OutputTokens, ev.TotalTokens,
		ev.CostUSD, jsonOrNil(ev.Tags), jsonOrNil(ev.Flags), jsonOrNil(ev.Warnings), jsonOrNil(ev.Errors), ev.PIIRedacted,
		nullableInt(ev.DedupeCount), nullable(string(ev.DedupeStrategy)), jsonOrNil(ev.ProvenanceEntries), jsonOrNil(ev.Metadata),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// jsonOrNil JSON-encodes v, returning nil for an empty/absent collection
// so the column stays NULL rather than storing "[]"/"{}"/"null".
func jsonOrNil(v any) any {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return nil
		}
	case []canon.ProvenanceEntry:
		if len(t) == 0 {
			return nil
		}
	case map[string]string:
		if len(t) == 0 {
			return nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return string(b)
}

// Close closes the underlying database connection.
func (w *Writer) Close() error {
	return w.db.Close()
}
