/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package runconfig adapts the teacher's struct-tag-driven VariableConfig
// convention (ingest/config) into the Plan the orchestrator consumes, plus
// the adapter path registry's on-disk override file (spec §4.2, §4.5).
package runconfig

import (
	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/validate"
)

// DefaultMaxExcerptChars bounds content_excerpt when a plan does not
// override it (spec §4.3, §8's excerpt law).
const DefaultMaxExcerptChars = 280

// DefaultSnapshotSampleLimit bounds how many records the snapshot profiler
// samples per (adapter, classification) pair (spec §4.8).
const DefaultSnapshotSampleLimit = 3

// DefaultSnapshotMaxRecordBytes is the serialized-size ceiling above which
// the snapshot profiler substitutes a sanitized_preview (spec §4.8).
const DefaultSnapshotMaxRecordBytes = 4096

// DefaultTabularBatchSize matches internal/tabular.DefaultBatchSize; kept
// as its own constant so a Plan can override it without importing tabular.
const DefaultTabularBatchSize = 500

// Plan is the orchestrator's run configuration (spec §4.5). It replaces
// the teacher's package-level CLI flags (singleFile/main.go's tso/tzo/
// inFile/...) with an explicit, immutable value threaded through a call,
// since full CLI flag parsing is out of scope (spec.md §1).
type Plan struct {
	// Adapters restricts discovery to these source kinds. Empty means all
	// adapters (spec §4.2).
	Adapters []canon.SourceKind

	// FailFast makes any unreadable source path or file-level warning
	// abort the run (spec §7).
	FailFast bool

	// MaxExcerptChars bounds content_excerpt (spec §4.3, §8). Zero or
	// negative disables excerpts, per textutil.Excerpt's own contract.
	MaxExcerptChars int

	// RedactionEnabled applies internal/redact to adapter content_excerpt
	// in addition to the always-on snapshot preview redaction (spec §9).
	RedactionEnabled bool

	// SnapshotSampleLimit bounds representative samples per (adapter,
	// classification) pair in the snapshot profiler (spec §4.8).
	SnapshotSampleLimit int

	// SnapshotMaxRecordBytes is the serialized-size ceiling above which a
	// snapshot sample is replaced by a sanitized_preview (spec §4.8).
	SnapshotMaxRecordBytes int

	// TabularBatchSize overrides internal/tabular.DefaultBatchSize. Zero
	// uses the package default.
	TabularBatchSize int

	// RegistryOverridePath, if non-empty, is loaded and merged onto
	// discover.DefaultRegistry() before prioritization (spec §4.2).
	RegistryOverridePath string

	// ValidateMode selects the validator's strictness for
	// validate/report.json (spec §4.7).
	ValidateMode validate.Mode
}

// DefaultPlan returns a Plan covering every adapter with the spec's stated
// defaults and no fail-fast behavior.
func DefaultPlan() Plan {
	return Plan{
		MaxExcerptChars:        DefaultMaxExcerptChars,
		RedactionEnabled:       false,
		SnapshotSampleLimit:    DefaultSnapshotSampleLimit,
		SnapshotMaxRecordBytes: DefaultSnapshotMaxRecordBytes,
		TabularBatchSize:       DefaultTabularBatchSize,
		ValidateMode:           validate.ModeBaseline,
	}
}
