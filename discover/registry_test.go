/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package discover

import (
	"math/rand"
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/shellhistory"
	"github.com/stretchr/testify/assert"
)

func TestPrioritizeDeterministicUnderPermutation(t *testing.T) {
	registry := DefaultRegistry()
	scores := shellhistory.Score{
		"codex": 3, "claude": 3, "gemini": 1, "amp": 0, "opencode": 0,
	}
	want := Prioritize(registry, scores)

	shuffled := make([]Entry, len(registry))
	copy(shuffled, registry)
	r := rand.New(rand.NewSource(1))
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	got := Prioritize(shuffled, scores)
	assert.Equal(t, want, got)
}

func TestPrioritizeTieBreaksByPrecedenceThenAdapterThenPath(t *testing.T) {
	registry := []Entry{
		{Adapter: canon.SourceGemini, PathRel: "b", Precedence: 10},
		{Adapter: canon.SourceAmp, PathRel: "a", Precedence: 10},
		{Adapter: canon.SourceAmp, PathRel: "z", Precedence: 5},
	}
	scores := shellhistory.Score{"gemini": 0, "amp": 0}
	got := Prioritize(registry, scores)
	assert.Equal(t, "z", got[0].PathRel) // lower precedence first
	assert.Equal(t, canon.SourceAmp, got[1].Adapter)
	assert.Equal(t, canon.SourceGemini, got[2].Adapter)
}

func TestApplyFilter(t *testing.T) {
	registry := DefaultRegistry()
	filtered := Apply(registry, Filter{Adapters: map[canon.SourceKind]bool{canon.SourceCodex: true}})
	for _, e := range filtered {
		assert.Equal(t, canon.SourceCodex, e.Adapter)
	}
	assert.NotEmpty(t, filtered)
}
