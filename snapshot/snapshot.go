/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package snapshot implements the snapshot profiler (SPEC_FULL.md §4.8): a
// read-only preview path over the same Discovery + Classifier pipeline
// normalize uses, sampling representative records per (adapter,
// classification) pair and accumulating a redacted schema profile. It
// never emits AgentLogEvents and does not participate in dedupe.
package snapshot

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/classify"
	"github.com/logit-dev/logit/internal/redact"
	"github.com/logit-dev/logit/internal/textutil"
)

// FileInput is one classified source file, shared with the normalize pass
// so snapshot never re-reads disk.
type FileInput struct {
	Adapter  canon.SourceKind
	Path     string
	Format   classify.Format
	Data     []byte
}

// record is one sampling candidate: a line (jsonl/text-log) or a whole
// file (json), ordered for determinism by (path, locator).
type record struct {
	adapter  canon.SourceKind
	format   classify.Format
	path     string
	locator  string
	raw      []byte
}

// Sample is one sanitized record in snapshot/samples.jsonl.
type Sample struct {
	Adapter             string   `json:"adapter"`
	SourcePath          string   `json:"source_path"`
	SourceRecordLocator string   `json:"source_record_locator"`
	Classification      string   `json:"classification"`
	SanitizedText       string   `json:"sanitized_text"`
	SanitizedPreview    string   `json:"sanitized_preview,omitempty"`
	RedactionClasses    []string `json:"redaction_classes,omitempty"`
	SnapshotSanitized   bool     `json:"snapshot_sanitized,omitempty"`
	OriginalCharCount   int      `json:"original_char_count,omitempty"`
}

// SourceCount is one (adapter, classification) pair's sampling summary in
// snapshot/index.json.
type SourceCount struct {
	Adapter         string   `json:"adapter"`
	Classification  string   `json:"classification"`
	CandidateCount  int      `json:"candidate_count"`
	SampledCount    int      `json:"sampled_count"`
	PathsVisited    []string `json:"paths_visited"`
}

// Index is the top-level document written to snapshot/index.json.
type Index struct {
	SchemaVersion string        `json:"schema_version"`
	Sources       []SourceCount `json:"sources"`
}

// Result bundles everything snapshot.Run produces, for the orchestrator to
// serialize into the three snapshot artifacts.
type Result struct {
	Index         Index
	Samples       []Sample
	SchemaProfile map[string]KeyPathProfile
}

type sourceKey struct {
	adapter canon.SourceKind
	format  classify.Format
}

// Run samples up to sampleLimit representative records per (adapter,
// classification) pair across inputs (first, middle, last of the ordered
// candidate list, deduplicated by index), redacts each, and accumulates a
// key-path schema profile (SPEC_FULL.md §4.8).
func Run(inputs []FileInput, sampleLimit, maxRecordBytes int) Result {
	groups := map[sourceKey][]record{}
	var groupOrder []sourceKey

	for _, in := range inputs {
		recs := recordsOf(in)
		if len(recs) == 0 {
			continue
		}
		key := sourceKey{adapter: in.Adapter, format: in.Format}
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], recs...)
	}
	sort.Slice(groupOrder, func(i, j int) bool {
		a, b := groupOrder[i], groupOrder[j]
		if a.adapter != b.adapter {
			return a.adapter < b.adapter
		}
		return a.format < b.format
	})

	var sources []SourceCount
	var samples []Sample
	profile := map[string]*keyPathAccum{}

	for _, key := range groupOrder {
		recs := groups[key]
		sort.Slice(recs, func(i, j int) bool {
			if recs[i].path != recs[j].path {
				return recs[i].path < recs[j].path
			}
			return recs[i].locator < recs[j].locator
		})

		picks := samplingIndices(len(recs), sampleLimit)
		paths := map[string]bool{}
		for _, idx := range picks {
			r := recs[idx]
			paths[r.path] = true
			samples = append(samples, buildSample(r, maxRecordBytes))
			accumulateSchema(r, profile)
		}
		pathList := make([]string, 0, len(paths))
		for p := range paths {
			pathList = append(pathList, p)
		}
		sort.Strings(pathList)

		sources = append(sources, SourceCount{
			Adapter:        string(key.adapter),
			Classification: string(key.format),
			CandidateCount: len(recs),
			SampledCount:   len(picks),
			PathsVisited:   pathList,
		})
	}

	sort.Slice(samples, func(i, j int) bool {
		if samples[i].SourcePath != samples[j].SourcePath {
			return samples[i].SourcePath < samples[j].SourcePath
		}
		return samples[i].SourceRecordLocator < samples[j].SourceRecordLocator
	})

	return Result{
		Index:         Index{SchemaVersion: canon.SchemaVersion, Sources: sources},
		Samples:       samples,
		SchemaProfile: finalizeProfile(profile),
	}
}

// recordsOf splits one classified file into sampling candidates: one
// candidate per non-empty line for jsonl/text-log, one candidate for the
// whole file for json. Binary and directory classifications are not
// samplable.
func recordsOf(in FileInput) []record {
	switch in.Format {
	case classify.FormatJSONL, classify.FormatTextLog:
		var out []record
		lines := bytes.Split(in.Data, []byte("\n"))
		for i, line := range lines {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			out = append(out, record{
				adapter: in.Adapter, format: in.Format, path: in.Path,
				locator: fmt.Sprintf("line:%d", i+1), raw: line,
			})
		}
		return out
	case classify.FormatJSON:
		trimmed := bytes.TrimSpace(in.Data)
		if len(trimmed) == 0 {
			return nil
		}
		return []record{{adapter: in.Adapter, format: in.Format, path: in.Path, locator: "whole-file", raw: trimmed}}
	default:
		return nil
	}
}

// samplingIndices returns the first, middle, and last index of n candidates
// (deduplicated), bounded by limit.
func samplingIndices(n, limit int) []int {
	if n == 0 {
		return nil
	}
	seen := map[int]bool{}
	var out []int
	add := func(i int) {
		if i < 0 || i >= n || seen[i] {
			return
		}
		seen[i] = true
		out = append(out, i)
	}
	add(0)
	add(n / 2)
	add(n - 1)
	sort.Ints(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func buildSample(r record, maxRecordBytes int) Sample {
	text := textOf(r)
	red := redact.Apply(text)

	sample := Sample{
		Adapter:             string(r.adapter),
		SourcePath:          r.path,
		SourceRecordLocator: r.locator,
		Classification:      string(r.format),
		RedactionClasses:    red.Classes,
	}
	if len(r.raw) > maxRecordBytes {
		preview, _ := textutil.Excerpt(red.Text, maxRecordBytes/4)
		sample.SanitizedPreview = preview
		sample.SnapshotSanitized = true
		sample.OriginalCharCount = utf8.RuneCountInString(text)
	} else {
		sample.SanitizedText = red.Text
	}
	return sample
}

func textOf(r record) string {
	if r.format == classify.FormatTextLog {
		return string(r.raw)
	}
	text, _ := textutil.ExtractText(r.raw)
	if text == "" {
		return string(r.raw)
	}
	return text
}
