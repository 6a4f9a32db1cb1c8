/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package runconfig

import (
	"errors"
	"fmt"
	"os"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/classify"
	"github.com/logit-dev/logit/discover"
	"gopkg.in/yaml.v3"
)

// ErrUnknownAdapter is returned when an override file names an adapter
// outside canon's closed SourceKind set.
var ErrUnknownAdapter = errors.New("runconfig: unknown adapter")

// ErrUnknownFormatHint is returned when an override file names a format
// hint outside classify's closed Format set.
var ErrUnknownFormatHint = errors.New("runconfig: unknown format hint")

var knownAdapters = map[string]canon.SourceKind{
	"codex":    canon.SourceCodex,
	"claude":   canon.SourceClaude,
	"gemini":   canon.SourceGemini,
	"amp":      canon.SourceAmp,
	"opencode": canon.SourceOpenCode,
}

var knownFormats = map[string]classify.Format{
	"json":      classify.FormatJSON,
	"jsonl":     classify.FormatJSONL,
	"text-log":  classify.FormatTextLog,
	"binary":    classify.FormatBinary,
	"directory": classify.FormatDirectory,
}

// pathOverride is the on-disk shape of one registry override entry,
// mirroring discover.Entry's fields under the YAML naming the teacher's
// ingest/config uses for its own key/value files (lowercase, underscored).
type pathOverride struct {
	Adapter    string `yaml:"adapter"`
	PathRel    string `yaml:"path"`
	FormatHint string `yaml:"format_hint"`
	Recursive  bool   `yaml:"recursive"`
	Precedence int    `yaml:"precedence"`
}

// registryFile is the top-level document shape of a registry override
// file: a flat list of additional candidate paths per adapter.
type registryFile struct {
	Paths []pathOverride `yaml:"paths"`
}

// LoadRegistryOverrides reads and validates a YAML override file, returning
// the additional discover.Entry values it describes.
func LoadRegistryOverrides(path string) ([]discover.Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runconfig: read registry override %q: %w", path, err)
	}
	var doc registryFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("runconfig: parse registry override %q: %w", path, err)
	}
	entries := make([]discover.Entry, 0, len(doc.Paths))
	for _, p := range doc.Paths {
		adapter, ok := knownAdapters[p.Adapter]
		if !ok {
			return nil, fmt.Errorf("%w: %q (%s)", ErrUnknownAdapter, p.Adapter, path)
		}
		hint := classify.Format("")
		if p.FormatHint != "" {
			hint, ok = knownFormats[p.FormatHint]
			if !ok {
				return nil, fmt.Errorf("%w: %q (%s)", ErrUnknownFormatHint, p.FormatHint, path)
			}
		}
		entries = append(entries, discover.Entry{
			Adapter:    adapter,
			PathRel:    p.PathRel,
			FormatHint: hint,
			Recursive:  p.Recursive,
			Precedence: p.Precedence,
		})
	}
	return entries, nil
}

// BuildRegistry returns discover.DefaultRegistry() merged with any
// overrides named by plan.RegistryOverridePath, restricted to
// plan.Adapters when non-empty (spec §4.2).
func BuildRegistry(plan Plan) ([]discover.Entry, error) {
	registry := discover.DefaultRegistry()
	if plan.RegistryOverridePath != "" {
		overrides, err := LoadRegistryOverrides(plan.RegistryOverridePath)
		if err != nil {
			return nil, err
		}
		registry = append(registry, overrides...)
	}
	if len(plan.Adapters) > 0 {
		allowed := make(map[canon.SourceKind]bool, len(plan.Adapters))
		for _, a := range plan.Adapters {
			allowed[a] = true
		}
		registry = discover.Apply(registry, discover.Filter{Adapters: allowed})
	}
	return registry, nil
}
