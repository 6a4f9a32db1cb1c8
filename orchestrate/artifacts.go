/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package orchestrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/runconfig"
	"github.com/logit-dev/logit/internal/shellhistory"
	"github.com/logit-dev/logit/internal/tabular"
	"github.com/logit-dev/logit/snapshot"
)

// writeArtifacts emits the normalize and discovery artifact groups (spec
// §6). validate/report.json and the tabular mirror are written by their
// own callers since they depend on the already-serialized events.
func writeArtifacts(outputDir string, events []canon.AgentLogEvent, stats Stats, score shellhistory.Score) error {
	eventsBytes, err := marshalJSONL(events)
	if err != nil {
		return fmt.Errorf("orchestrate: marshal events.jsonl: %w", err)
	}
	if err := writeFile(filepath.Join(outputDir, "normalize", "events.jsonl"), eventsBytes); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outputDir, "normalize", "schema.json"), canon.GenerateSchema()); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outputDir, "normalize", "stats.json"), stats); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outputDir, "discovery", "sources.json"), stats.Sources); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outputDir, "discovery", "zsh_history_usage.json"), score); err != nil {
		return err
	}
	return nil
}

// writeTabularAndVerifyParity mirrors events into normalize/events.sqlite
// and checks parity against events.jsonl, per spec §4.6 and §7's "parity
// verifier failure during verification phase is surfaced to the caller."
// Mismatches found are a verification result, not an I/O failure: they are
// returned for the caller to act on rather than treated as fatal here.
func writeTabularAndVerifyParity(outputDir string, events []canon.AgentLogEvent, plan runconfig.Plan) ([]tabular.Mismatch, error) {
	dbPath := filepath.Join(outputDir, "normalize", "events.sqlite")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("orchestrate: create normalize dir: %w", err)
	}
	_ = os.Remove(dbPath) // artifacts are written once per run (spec §5)

	batchSize := plan.TabularBatchSize
	if batchSize <= 0 {
		batchSize = tabular.DefaultBatchSize
	}
	writer, err := tabular.Open(dbPath, canon.SchemaVersion, batchSize)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: open tabular store: %w", err)
	}
	if err := writer.WriteEvents(events); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("orchestrate: write tabular store: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("orchestrate: close tabular store: %w", err)
	}

	readDB, err := tabular.OpenReadOnly(dbPath)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: open tabular store for parity check: %w", err)
	}
	defer readDB.Close()

	mismatches, err := tabular.VerifyParity(events, readDB)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: verify parity: %w", err)
	}
	return mismatches, nil
}

func writeSnapshot(outputDir string, result snapshot.Result) error {
	if err := writeJSON(filepath.Join(outputDir, "snapshot", "index.json"), result.Index); err != nil {
		return err
	}
	samplesBytes, err := marshalJSONL(result.Samples)
	if err != nil {
		return fmt.Errorf("orchestrate: marshal snapshot samples: %w", err)
	}
	if err := writeFile(filepath.Join(outputDir, "snapshot", "samples.jsonl"), samplesBytes); err != nil {
		return err
	}
	return writeJSON(filepath.Join(outputDir, "snapshot", "schema_profile.json"), result.SchemaProfile)
}

// marshalJSONL serializes items one per line, each followed by a trailing
// newline, per spec §6's events.jsonl contract (generalized to any slice,
// since snapshot/samples.jsonl follows the same shape).
func marshalJSONL[T any](items []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("orchestrate: create dir for %s: %w", path, err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("orchestrate: marshal %s: %w", path, err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("orchestrate: create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("orchestrate: write %s: %w", path, err)
	}
	return nil
}
