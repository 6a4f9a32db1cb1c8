/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package snapshot

import (
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplingIndicesPicksFirstMiddleLast(t *testing.T) {
	idx := samplingIndices(10, 3)
	assert.Equal(t, []int{0, 5, 9}, idx)
}

func TestSamplingIndicesDedupesSmallCandidateLists(t *testing.T) {
	idx := samplingIndices(1, 3)
	assert.Equal(t, []int{0}, idx)
}

func TestRunSamplesAcrossAdapterFormatPairs(t *testing.T) {
	inputs := []FileInput{
		{Adapter: canon.SourceCodex, Path: "a.jsonl", Format: classify.FormatJSONL,
			Data: []byte(`{"text":"one"}` + "\n" + `{"text":"two"}` + "\n" + `{"text":"three"}` + "\n")},
	}
	result := Run(inputs, 3, 4096)
	require.Len(t, result.Index.Sources, 1)
	assert.Equal(t, "codex", result.Index.Sources[0].Adapter)
	assert.Equal(t, 3, result.Index.Sources[0].CandidateCount)
	assert.Equal(t, 3, result.Index.Sources[0].SampledCount)
	assert.Len(t, result.Samples, 3)
}

func TestBuildSampleRedactsEmailAndMarksSanitizedWhenOversized(t *testing.T) {
	r := record{adapter: canon.SourceCodex, format: classify.FormatTextLog, path: "p", locator: "line:1",
		raw: []byte("contact me at person@example.com")}
	sample := buildSample(r, 4096)
	assert.Contains(t, sample.SanitizedText, "[REDACTED:email]")
	assert.NotContains(t, sample.SanitizedText, "person@example.com")
	assert.False(t, sample.SnapshotSanitized)

	big := record{adapter: canon.SourceCodex, format: classify.FormatTextLog, path: "p", locator: "line:2", raw: []byte(make([]byte, 100))}
	for i := range big.raw {
		big.raw[i] = 'x'
	}
	small := buildSample(big, 10)
	assert.True(t, small.SnapshotSanitized)
	assert.Equal(t, 100, small.OriginalCharCount)
}

func TestAccumulateSchemaWalksKeyPaths(t *testing.T) {
	profile := map[string]*keyPathAccum{}
	r := record{format: classify.FormatJSON, raw: []byte(`{"a":{"b":"x"},"c":[1,2]}`)}
	accumulateSchema(r, profile)

	out := finalizeProfile(profile)
	assert.Contains(t, out, "$.a.b")
	assert.Equal(t, []string{"string"}, out["$.a.b"].Types)
	assert.Contains(t, out, "$.c[]")
	assert.Equal(t, []string{"number"}, out["$.c[]"].Types)
}
