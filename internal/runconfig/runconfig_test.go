/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package runconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistryOverridesParsesValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	content := "paths:\n  - adapter: codex\n    path: .codex/extra\n    format_hint: jsonl\n    recursive: true\n    precedence: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	entries, err := LoadRegistryOverrides(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, canon.SourceCodex, entries[0].Adapter)
	assert.Equal(t, ".codex/extra", entries[0].PathRel)
	assert.True(t, entries[0].Recursive)
}

func TestLoadRegistryOverridesRejectsUnknownAdapter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	content := "paths:\n  - adapter: not-a-real-adapter\n    path: x\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadRegistryOverrides(path)
	require.ErrorIs(t, err, ErrUnknownAdapter)
}

func TestBuildRegistryFiltersToPlanAdapters(t *testing.T) {
	plan := DefaultPlan()
	plan.Adapters = []canon.SourceKind{canon.SourceClaude}

	registry, err := BuildRegistry(plan)
	require.NoError(t, err)
	for _, e := range registry {
		assert.Equal(t, canon.SourceClaude, e.Adapter)
	}
	assert.NotEmpty(t, registry)
}
