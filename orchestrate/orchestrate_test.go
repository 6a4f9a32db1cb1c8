/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package orchestrate

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/classify"
	"github.com/logit-dev/logit/discover"
	"github.com/logit-dev/logit/internal/runconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkSourceMissingPathIsNotError(t *testing.T) {
	files, err := walkSource(filepath.Join(t.TempDir(), "does-not-exist"), true)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWalkSourceNonRecursiveSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	files, err := walkSource(path, false)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestWalkSourceRecursiveDirectory(t *testing.T) {
	dir := t.TempDir()
	sessions := filepath.Join(dir, "sessions", "a")
	require.NoError(t, os.MkdirAll(sessions, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sessions, "1.jsonl"), []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessions", "2.jsonl"), []byte("{}\n"), 0o644))

	files, err := walkSource(filepath.Join(dir, "sessions"), true)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDispatchFileRoutesCodexRolloutBySessionsPath(t *testing.T) {
	line := `{"session_id":"codex-s-1","event_id":"evt-1","event_type":"user_prompt","created_at":"2026-02-01T12:00:00Z","text":"hello"}`
	entry := discover.Entry{Adapter: canon.SourceCodex, PathRel: ".codex/sessions", FormatHint: classify.FormatJSONL}

	events, warnings, msgs, parts := dispatchFile(entry, classify.FormatJSONL, "/home/u/.codex/sessions/a.jsonl", []byte(line), "run-1")
	require.Len(t, events, 1)
	assert.Empty(t, warnings)
	assert.Nil(t, msgs)
	assert.Nil(t, parts)
	assert.Equal(t, canon.EventPrompt, events[0].EventType)
	assert.Equal(t, canon.RoleUser, events[0].Role)
	assert.Equal(t, canon.TimestampExact, events[0].TimestampQuality)
}

func TestDispatchFileRoutesOpenCodeSessionsToMessages(t *testing.T) {
	line := `{"sessionID":"s1","messageID":"m1","createdAt":"2026-02-01T12:00:00Z","role":"user"}`
	entry := discover.Entry{Adapter: canon.SourceOpenCode, PathRel: ".opencode/sessions", FormatHint: classify.FormatJSONL}

	events, warnings, msgs, parts := dispatchFile(entry, classify.FormatJSONL, "/home/u/.opencode/sessions/s1.jsonl", []byte(line), "run-1")
	assert.Empty(t, events)
	assert.Empty(t, warnings)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].MessageID)
	assert.Nil(t, parts)
}

func TestRunProducesExpectedArtifactLayout(t *testing.T) {
	home := t.TempDir()
	out := t.TempDir()

	sessionsDir := filepath.Join(home, ".codex", "sessions")
	require.NoError(t, os.MkdirAll(sessionsDir, 0o755))
	line := `{"session_id":"codex-s-1","event_id":"evt-1","event_type":"user_prompt","created_at":"2026-02-01T12:00:00Z","text":"hello"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(sessionsDir, "rollout.jsonl"), []byte(line), 0o644))

	plan := runconfig.DefaultPlan()
	result, err := Run(home, out, "", plan, nil)
	require.NoError(t, err)

	require.Len(t, result.Events, 1)
	assert.Equal(t, int64(0), result.Events[0].SequenceGlobal)

	for _, rel := range []string{
		filepath.Join("normalize", "events.jsonl"),
		filepath.Join("normalize", "schema.json"),
		filepath.Join("normalize", "stats.json"),
		filepath.Join("normalize", "events.sqlite"),
		filepath.Join("discovery", "sources.json"),
		filepath.Join("discovery", "zsh_history_usage.json"),
		filepath.Join("validate", "report.json"),
		filepath.Join("snapshot", "index.json"),
		filepath.Join("snapshot", "samples.jsonl"),
		filepath.Join("snapshot", "schema_profile.json"),
	} {
		_, err := os.Stat(filepath.Join(out, rel))
		assert.NoError(t, err, "expected artifact %s", rel)
	}

	eventsBytes, err := os.ReadFile(filepath.Join(out, "normalize", "events.jsonl"))
	require.NoError(t, err)
	scanner := bufio.NewScanner(bytes.NewReader(eventsBytes))
	lines := 0
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		lines++
		var ev canon.AgentLogEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		assert.Equal(t, canon.SchemaVersion, ev.SchemaVersion)
	}
	assert.Equal(t, 1, lines)

	assert.Empty(t, result.ParityMismatches)
}
