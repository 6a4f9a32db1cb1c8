/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package discover maintains the per-adapter known-path registry and
// prioritizes candidate sources using shell-history signals (spec §4.2).
package discover

import (
	"sort"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/classify"
	"github.com/logit-dev/logit/internal/shellhistory"
)

// Entry is one registered candidate log location for an adapter.
type Entry struct {
	Adapter     canon.SourceKind
	PathRel     string // relative to a home directory
	FormatHint  classify.Format
	Recursive   bool
	Precedence  int // lower sorts first among equal history scores
}

// DefaultRegistry is the built-in, known-path registry. Paths are
// relative to the home directory resolution performed by the (external,
// out-of-scope) CLI layer.
func DefaultRegistry() []Entry {
	return []Entry{
		{Adapter: canon.SourceCodex, PathRel: ".codex/sessions", FormatHint: classify.FormatJSONL, Recursive: true, Precedence: 10},
		{Adapter: canon.SourceCodex, PathRel: ".codex/history.jsonl", FormatHint: classify.FormatJSONL, Recursive: false, Precedence: 20},
		{Adapter: canon.SourceCodex, PathRel: ".codex/log", FormatHint: classify.FormatTextLog, Recursive: true, Precedence: 30},

		{Adapter: canon.SourceClaude, PathRel: ".claude/projects", FormatHint: classify.FormatJSONL, Recursive: true, Precedence: 10},

		{Adapter: canon.SourceGemini, PathRel: ".gemini/chats", FormatHint: classify.FormatJSON, Recursive: true, Precedence: 10},
		{Adapter: canon.SourceGemini, PathRel: ".gemini/logs", FormatHint: classify.FormatJSON, Recursive: true, Precedence: 20},

		{Adapter: canon.SourceAmp, PathRel: ".amp/threads", FormatHint: classify.FormatJSON, Recursive: true, Precedence: 10},
		{Adapter: canon.SourceAmp, PathRel: ".amp/file-changes", FormatHint: classify.FormatJSON, Recursive: true, Precedence: 20},

		{Adapter: canon.SourceOpenCode, PathRel: ".opencode/sessions", FormatHint: classify.FormatJSONL, Recursive: true, Precedence: 10},
		{Adapter: canon.SourceOpenCode, PathRel: ".opencode/parts", FormatHint: classify.FormatJSONL, Recursive: true, Precedence: 20},
		{Adapter: canon.SourceOpenCode, PathRel: ".opencode/logs", FormatHint: classify.FormatTextLog, Recursive: true, Precedence: 30},
	}
}

// Filter narrows a registry to entries matching every non-zero predicate.
type Filter struct {
	Adapters       map[canon.SourceKind]bool
	FormatHints    map[classify.Format]bool
	PathSubstring  string
}

func (f Filter) matches(e Entry) bool {
	if len(f.Adapters) > 0 && !f.Adapters[e.Adapter] {
		return false
	}
	if len(f.FormatHints) > 0 && !f.FormatHints[e.FormatHint] {
		return false
	}
	if f.PathSubstring != "" && !containsSubstring(e.PathRel, f.PathSubstring) {
		return false
	}
	return true
}

func containsSubstring(s, sub string) bool {
	return len(sub) == 0 || indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

// Apply returns the entries of registry matching f.
func Apply(registry []Entry, f Filter) []Entry {
	out := make([]Entry, 0, len(registry))
	for _, e := range registry {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Prioritize sorts registry entries by (-history_score, precedence,
// adapter, path): a total order independent of input slice order or map
// iteration order (spec §4.2).
func Prioritize(registry []Entry, scores shellhistory.Score) []Entry {
	out := make([]Entry, len(registry))
	copy(out, registry)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := scores[string(out[i].Adapter)], scores[string(out[j].Adapter)]
		if si != sj {
			return si > sj // higher score first == "-history_score" ascending
		}
		if out[i].Precedence != out[j].Precedence {
			return out[i].Precedence < out[j].Precedence
		}
		if out[i].Adapter != out[j].Adapter {
			return out[i].Adapter < out[j].Adapter
		}
		return out[i].PathRel < out[j].PathRel
	})
	return out
}
