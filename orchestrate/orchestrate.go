/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package orchestrate drives the full normalization run (spec §4.5): it
// threads discovery, classification, adapter dispatch, dedupe, and
// artifact emission the way the teacher's singleFile/fileFollow commands
// drive a single ingest pass, adapted from package-level CLI flags to an
// explicit runconfig.Plan since CLI parsing is out of scope (spec.md §1).
package orchestrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/logit-dev/logit/adapters/amp"
	"github.com/logit-dev/logit/adapters/claude"
	"github.com/logit-dev/logit/adapters/codex"
	"github.com/logit-dev/logit/adapters/gemini"
	"github.com/logit-dev/logit/adapters/opencode"
	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/classify"
	"github.com/logit-dev/logit/dedupe"
	"github.com/logit-dev/logit/discover"
	"github.com/logit-dev/logit/internal/logging"
	"github.com/logit-dev/logit/internal/redact"
	"github.com/logit-dev/logit/internal/runconfig"
	"github.com/logit-dev/logit/internal/shellhistory"
	"github.com/logit-dev/logit/internal/tabular"
	"github.com/logit-dev/logit/internal/textutil"
	"github.com/logit-dev/logit/snapshot"
	"github.com/logit-dev/logit/validate"
)

// SourceStat is one discovered file's dispatch summary, serialized into
// discovery/sources.json and normalize/stats.json's "sources" list.
type SourceStat struct {
	Adapter       string `json:"adapter"`
	Path          string `json:"path"`
	Format        string `json:"format"`
	EventsEmitted int    `json:"events_emitted"`
	Warnings      int    `json:"warnings"`
}

// CountStats mirrors stats.json's "counts" object (spec §6).
type CountStats struct {
	InputRecords     int `json:"input_records"`
	RecordsEmitted   int `json:"records_emitted"`
	DuplicateRecords int `json:"duplicate_records"`
	Warnings         int `json:"warnings"`
}

// Stats is the document written to normalize/stats.json (spec §6).
type Stats struct {
	SchemaVersion string       `json:"schema_version"`
	Counts        CountStats   `json:"counts"`
	Sources       []SourceStat `json:"sources"`
	Warnings      []string     `json:"warnings"`
}

// Result is everything one orchestrator run produced, for a caller (tests,
// cmd/logit) that wants the in-memory values in addition to the artifacts
// written to outputDir.
type Result struct {
	RunID            string
	Events           []canon.AgentLogEvent
	Stats            Stats
	HistoryScore     shellhistory.Score
	ValidateReport   validate.Report
	ParityMismatches []tabular.Mismatch
	Snapshot         snapshot.Result
}

type fileRead struct {
	entry  discover.Entry
	path   string
	format classify.Format
	data   []byte
}

// Run executes one full pass: discovery, dispatch, dedupe, and artifact
// emission under outputDir (spec §4.5). homeDir anchors the path registry;
// historyPath, if non-empty, is parsed for discovery's prioritization
// scoring (spec §4.2). An empty historyPath is treated as no history.
func Run(homeDir, outputDir, historyPath string, plan runconfig.Plan, logger *logging.Logger) (Result, error) {
	if logger == nil {
		logger = logging.New(logging.OFF, os.Stderr)
	}
	runID := uuid.NewString()

	registry, err := runconfig.BuildRegistry(plan)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrate: build registry: %w", err)
	}

	score := readHistoryScore(historyPath)
	registry = discover.Prioritize(registry, score)

	var allEvents []canon.AgentLogEvent
	var warnings []string
	var sourceStats []SourceStat
	var fileReads []fileRead
	var opMessages []opencode.MessageMeta
	var opParts []opencode.Part

	for _, entry := range registry {
		absPath := filepath.Join(homeDir, entry.PathRel)
		files, err := walkSource(absPath, entry.Recursive)
		if err != nil {
			warning, ferr := discover.ResolveUnreadable(absPath, plan.FailFast)
			warnings = append(warnings, warning)
			logger.Warn("unreadable source path", "path", absPath, "err", err)
			if ferr != nil {
				return Result{}, ferr
			}
			continue
		}
		sort.Strings(files)

		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				warning, ferr := discover.ResolveUnreadable(path, plan.FailFast)
				warnings = append(warnings, warning)
				logger.Warn("unreadable file", "path", path, "err", err)
				if ferr != nil {
					return Result{}, ferr
				}
				continue
			}
			head := data
			if len(head) > classify.MaxHeadBytes {
				head = head[:classify.MaxHeadBytes]
			}
			format := classify.Classify(path, head, false, entry.FormatHint)
			if format == classify.FormatBinary {
				warning := fmt.Sprintf("source path classified binary, skipped: %s", path)
				warnings = append(warnings, warning)
				if plan.FailFast {
					return Result{}, fmt.Errorf("orchestrate: fail-fast: %s", warning)
				}
				continue
			}

			events, warns, msgs, parts := dispatchFile(entry, format, path, data, runID)
			allEvents = append(allEvents, events...)
			warnings = append(warnings, warns...)
			opMessages = append(opMessages, msgs...)
			opParts = append(opParts, parts...)
			fileReads = append(fileReads, fileRead{entry: entry, path: path, format: format, data: data})

			sourceStats = append(sourceStats, SourceStat{
				Adapter: string(entry.Adapter), Path: path, Format: string(format),
				EventsEmitted: len(events), Warnings: len(warns),
			})
		}
	}

	if len(opMessages) > 0 || len(opParts) > 0 {
		joined, without, orphans, joinWarnings := opencode.JoinMessageMetadataWithParts(opMessages, opParts)
		events, buildWarnings := opencode.BuildMessageEvents(joined, without, runID)
		allEvents = append(allEvents, events...)
		warnings = append(warnings, joinWarnings...)
		warnings = append(warnings, buildWarnings...)
		for _, p := range orphans {
			warnings = append(warnings, fmt.Sprintf("%s: orphan opencode part of kind %q dropped from normalize output", p.Locator, p.Kind))
		}
	}

	for i := range allEvents {
		text := allEvents[i].ContentText
		if plan.RedactionEnabled {
			text = redact.Apply(text).Text
		}
		allEvents[i].ContentExcerpt = ""
		if excerpt, ok := textutil.Excerpt(text, plan.MaxExcerptChars); ok {
			allEvents[i].ContentExcerpt = excerpt
		}
	}

	deduped, dedupeStats := dedupe.DedupeAndSort(allEvents)

	sort.Strings(warnings)
	sort.Slice(sourceStats, func(i, j int) bool {
		if sourceStats[i].Adapter != sourceStats[j].Adapter {
			return sourceStats[i].Adapter < sourceStats[j].Adapter
		}
		return sourceStats[i].Path < sourceStats[j].Path
	})

	stats := Stats{
		SchemaVersion: canon.SchemaVersion,
		Counts: CountStats{
			InputRecords:     dedupeStats.InputRecords,
			RecordsEmitted:   dedupeStats.UniqueRecords,
			DuplicateRecords: dedupeStats.DuplicateRecords,
			Warnings:         len(warnings),
		},
		Sources:  sourceStats,
		Warnings: warnings,
	}

	if err := writeArtifacts(outputDir, deduped, stats, score); err != nil {
		return Result{}, err
	}

	eventsBytes, err := marshalJSONL(deduped)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrate: marshal events for validation: %w", err)
	}
	report := validate.ValidateJSONL(eventsBytes, plan.ValidateMode)
	if err := writeJSON(filepath.Join(outputDir, "validate", "report.json"), report); err != nil {
		return Result{}, err
	}

	mismatches, err := writeTabularAndVerifyParity(outputDir, deduped, plan)
	if err != nil {
		return Result{}, err
	}

	snapshotInputs := make([]snapshot.FileInput, 0, len(fileReads))
	for _, fr := range fileReads {
		snapshotInputs = append(snapshotInputs, snapshot.FileInput{
			Adapter: fr.entry.Adapter, Path: fr.path, Format: fr.format, Data: fr.data,
		})
	}
	snapResult := snapshot.Run(snapshotInputs, plan.SnapshotSampleLimit, plan.SnapshotMaxRecordBytes)
	if err := writeSnapshot(outputDir, snapResult); err != nil {
		return Result{}, err
	}

	return Result{
		RunID:            runID,
		Events:           deduped,
		Stats:            stats,
		HistoryScore:     score,
		ValidateReport:   report,
		ParityMismatches: mismatches,
		Snapshot:         snapResult,
	}, nil
}

func readHistoryScore(historyPath string) shellhistory.Score {
	if historyPath == "" {
		return shellhistory.ParseScore(strings.NewReader(""))
	}
	f, err := os.Open(historyPath)
	if err != nil {
		return shellhistory.ParseScore(strings.NewReader(""))
	}
	defer f.Close()
	return shellhistory.ParseScore(f)
}

// walkSource enumerates the readable regular files under path. A missing
// path (tool never installed) yields an empty result, not an error: only
// an existing-but-unreadable path is a discovery warning (spec §4.2, §7).
func walkSource(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	if !recursive {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		return files, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, p)
		return nil
	})
	return files, err
}

// dispatchFile routes one classified file to the adapter parser its
// registry entry names, by matching the registered path's distinguishing
// substring (spec §4.3). OpenCode's session-metadata and parts files
// return raw messages/parts instead of events; the join happens once, after
// every file has been read (spec §4.3.4).
func dispatchFile(entry discover.Entry, format classify.Format, path string, data []byte, runID string) (events []canon.AgentLogEvent, warnings []string, opMsgs []opencode.MessageMeta, opParts []opencode.Part) {
	switch entry.Adapter {
	case canon.SourceCodex:
		switch {
		case strings.Contains(entry.PathRel, "sessions"):
			res := codex.ParseRolloutJSONL(data, runID, path)
			return res.Events, res.Warnings, nil, nil
		case strings.Contains(entry.PathRel, "history"):
			res := codex.ParseHistoryJSONL(data, runID, path)
			return res.Events, res.Warnings, nil, nil
		default:
			res := codex.ParseDiagnosticLog(data, runID, path)
			return res.Events, res.Warnings, nil, nil
		}

	case canon.SourceClaude:
		res := claude.ParseSessionJSONL(data, runID, path)
		return res.Events, res.Warnings, nil, nil

	case canon.SourceGemini:
		if strings.Contains(entry.PathRel, "chats") {
			res := gemini.ParseChatJSON(data, runID, path)
			return res.Events, res.Warnings, nil, nil
		}
		res := gemini.ParseLogsJSON(data, runID, path)
		return res.Events, res.Warnings, nil, nil

	case canon.SourceAmp:
		if strings.Contains(entry.PathRel, "file-changes") {
			res := amp.ParseFileChangeJSON(data, runID, path)
			return res.Events, res.Warnings, nil, nil
		}
		res := amp.ParseThreadJSON(data, runID, path)
		return res.Events, res.Warnings, nil, nil

	case canon.SourceOpenCode:
		switch {
		case strings.Contains(entry.PathRel, "sessions"):
			_, messages, warns := opencode.ParseSessionMetadataJSONL(data, path)
			return nil, warns, messages, nil
		case strings.Contains(entry.PathRel, "parts"):
			parts, warns := opencode.ParsePartsJSONL(data, path, nil)
			return nil, warns, nil, parts
		default:
			if strings.Contains(strings.ToLower(path), "prompt") {
				res := opencode.ParsePromptHistoryLog(data, runID, path)
				return res.Events, res.Warnings, nil, nil
			}
			res := opencode.ParseRuntimeLog(data, runID, path)
			return res.Events, res.Warnings, nil, nil
		}
	}
	return nil, []string{fmt.Sprintf("orchestrate: no dispatch for adapter %q path %s", entry.Adapter, path)}, nil, nil
}
