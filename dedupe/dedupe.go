/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package dedupe collapses semantically-equivalent events via canonical
// hashing and produces the globally ordered sequence the orchestrator
// persists (spec §4.4).
package dedupe

import (
	"sort"

	"github.com/logit-dev/logit/canon"
)

// Stats summarizes one dedupe+sort pass, emitted into the stats artifact.
type Stats struct {
	InputRecords     int `json:"input_records"`
	UniqueRecords    int `json:"unique_records"`
	DuplicateRecords int `json:"duplicate_records"`
}

// keyFor implements spec §4.4's key-selection ladder: canonical_hash if
// present, else (source_path, source_record_locator, raw_hash), else
// raw_hash alone. The string prefix keeps the three key spaces disjoint
// so no cross-strategy collision is possible.
func keyFor(ev canon.AgentLogEvent) (key string, strategy canon.DedupeStrategy) {
	if ev.CanonicalHash != "" {
		return "ch\x1f" + ev.CanonicalHash, canon.DedupeByCanonicalHash
	}
	if ev.SourcePath != "" || ev.SourceRecordLocator != "" {
		return "sl\x1f" + ev.SourcePath + "\x1f" + ev.SourceRecordLocator + "\x1f" + ev.RawHash, canon.DedupeBySourceLocator
	}
	return "rh\x1f" + ev.RawHash, canon.DedupeByRawHash
}

// DedupeAndSort groups events by their dedupe key, picks one survivor per
// group, attaches dedupe provenance metadata to survivors of a group with
// more than one member, then totally orders the result and reassigns
// sequence_global densely from zero (spec §4.4).
func DedupeAndSort(events []canon.AgentLogEvent) ([]canon.AgentLogEvent, Stats) {
	groups := map[string][]canon.AgentLogEvent{}
	strategies := map[string]canon.DedupeStrategy{}
	var order []string
	for _, ev := range events {
		key, strategy := keyFor(ev)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ev)
		strategies[key] = strategy
	}
	sort.Strings(order)

	survivors := make([]canon.AgentLogEvent, 0, len(order))
	for _, key := range order {
		group := groups[key]
		survivor := chooseSurvivor(group)
		if len(group) > 1 {
			survivor.DedupeCount = len(group)
			survivor.DedupeStrategy = strategies[key]
			survivor.ProvenanceEntries = provenanceEntries(group)
		}
		survivors = append(survivors, survivor)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.TimestampUnixMS != b.TimestampUnixMS {
			return a.TimestampUnixMS < b.TimestampUnixMS
		}
		aExact := a.TimestampQuality == canon.TimestampExact
		bExact := b.TimestampQuality == canon.TimestampExact
		if aExact != bExact {
			return aExact
		}
		if a.CanonicalHash != b.CanonicalHash {
			return a.CanonicalHash < b.CanonicalHash
		}
		if a.SourceRecordLocator != b.SourceRecordLocator {
			return a.SourceRecordLocator < b.SourceRecordLocator
		}
		return a.EventID < b.EventID
	})

	for i := range survivors {
		survivors[i].SequenceGlobal = int64(i)
	}

	return survivors, Stats{
		InputRecords:     len(events),
		UniqueRecords:    len(survivors),
		DuplicateRecords: len(events) - len(survivors),
	}
}

// chooseSurvivor applies spec §4.4's tiebreak: exact timestamp quality
// over fallback, then lexicographically smallest event_id, then smallest
// source_record_locator.
func chooseSurvivor(group []canon.AgentLogEvent) canon.AgentLogEvent {
	best := group[0]
	for _, ev := range group[1:] {
		if survivorBetter(ev, best) {
			best = ev
		}
	}
	return best
}

func survivorBetter(a, b canon.AgentLogEvent) bool {
	aExact := a.TimestampQuality == canon.TimestampExact
	bExact := b.TimestampQuality == canon.TimestampExact
	if aExact != bExact {
		return aExact
	}
	if a.EventID != b.EventID {
		return a.EventID < b.EventID
	}
	return a.SourceRecordLocator < b.SourceRecordLocator
}

// provenanceEntries builds the sorted per-member provenance array
// attached to a collapsed survivor.
func provenanceEntries(group []canon.AgentLogEvent) []canon.ProvenanceEntry {
	out := make([]canon.ProvenanceEntry, 0, len(group))
	for _, ev := range group {
		out = append(out, canon.ProvenanceEntry{
			SourcePath:          ev.SourcePath,
			SourceRecordLocator: ev.SourceRecordLocator,
			EventID:             ev.EventID,
			RawHash:             ev.RawHash,
			TimestampQuality:    ev.TimestampQuality,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourcePath != out[j].SourcePath {
			return out[i].SourcePath < out[j].SourcePath
		}
		if out[i].SourceRecordLocator != out[j].SourceRecordLocator {
			return out[i].SourceRecordLocator < out[j].SourceRecordLocator
		}
		return out[i].EventID < out[j].EventID
	})
	return out
}
