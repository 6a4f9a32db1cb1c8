/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package dedupe

import (
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeCollapsesExactOverFallback(t *testing.T) {
	events := []canon.AgentLogEvent{
		{EventID: "b", CanonicalHash: "A", SourceRecordLocator: "line:2", TimestampQuality: canon.TimestampFallback, TimestampUnixMS: 100},
		{EventID: "a", CanonicalHash: "A", SourceRecordLocator: "line:1", TimestampQuality: canon.TimestampExact, TimestampUnixMS: 100},
	}
	survivors, stats := DedupeAndSort(events)
	require.Len(t, survivors, 1)
	assert.Equal(t, "a", survivors[0].EventID)
	assert.Equal(t, canon.TimestampExact, survivors[0].TimestampQuality)
	assert.Equal(t, 2, survivors[0].DedupeCount)
	assert.Equal(t, canon.DedupeByCanonicalHash, survivors[0].DedupeStrategy)
	require.Len(t, survivors[0].ProvenanceEntries, 2)
	assert.Equal(t, 2, stats.InputRecords)
	assert.Equal(t, 1, stats.UniqueRecords)
	assert.Equal(t, 1, stats.DuplicateRecords)
}

func TestDedupeAssignsDenseSequence(t *testing.T) {
	events := []canon.AgentLogEvent{
		{EventID: "x", CanonicalHash: "X", TimestampUnixMS: 300, TimestampQuality: canon.TimestampExact},
		{EventID: "y", CanonicalHash: "Y", TimestampUnixMS: 100, TimestampQuality: canon.TimestampExact},
		{EventID: "z", CanonicalHash: "Z", TimestampUnixMS: 200, TimestampQuality: canon.TimestampExact},
	}
	survivors, _ := DedupeAndSort(events)
	require.Len(t, survivors, 3)
	assert.Equal(t, "y", survivors[0].EventID)
	assert.Equal(t, int64(0), survivors[0].SequenceGlobal)
	assert.Equal(t, "z", survivors[1].EventID)
	assert.Equal(t, int64(1), survivors[1].SequenceGlobal)
	assert.Equal(t, "x", survivors[2].EventID)
	assert.Equal(t, int64(2), survivors[2].SequenceGlobal)
}

func TestDedupeIsInputOrderIndependent(t *testing.T) {
	a := canon.AgentLogEvent{EventID: "a", CanonicalHash: "A", TimestampUnixMS: 1, TimestampQuality: canon.TimestampExact}
	b := canon.AgentLogEvent{EventID: "b", CanonicalHash: "B", TimestampUnixMS: 2, TimestampQuality: canon.TimestampExact}
	s1, _ := DedupeAndSort([]canon.AgentLogEvent{a, b})
	s2, _ := DedupeAndSort([]canon.AgentLogEvent{b, a})
	assert.Equal(t, s1, s2)
}

func TestDedupeSingleEventWithoutCanonicalHashGetsNoProvenance(t *testing.T) {
	events := []canon.AgentLogEvent{
		{EventID: "a", SourcePath: "f.jsonl", SourceRecordLocator: "line:1", RawHash: "r1", TimestampQuality: canon.TimestampExact},
	}
	survivors, _ := DedupeAndSort(events)
	require.Len(t, survivors, 1)
	assert.Equal(t, 0, survivors[0].DedupeCount) // single-member group: no provenance attached
}
