/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package codex

import (
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolloutUserPrompt(t *testing.T) {
	line := `{"session_id":"codex-s-1","event_id":"evt-1","event_type":"user_prompt","created_at":"2026-02-01T12:00:00Z","text":"hello"}`
	res := ParseRolloutJSONL([]byte(line), "run-1", "rollout.jsonl")
	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, canon.EventPrompt, ev.EventType)
	assert.Equal(t, canon.RoleUser, ev.Role)
	assert.Equal(t, canon.RecordMessage, ev.RecordFormat)
	assert.Equal(t, canon.TimestampExact, ev.TimestampQuality)
	assert.Equal(t, "evt-1", ev.EventID)
}

func TestRolloutEventMsgProgress(t *testing.T) {
	line := `{"event_type":"event_msg.progress","created_at":"2026-02-01T12:00:00Z","text":"working"}`
	res := ParseRolloutJSONL([]byte(line), "run-1", "rollout.jsonl")
	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, canon.EventStatusUpdate, ev.EventType)
	assert.Equal(t, canon.RoleRuntime, ev.Role)
	assert.Equal(t, "progress", ev.Metadata["codex_event_msg_category"])
}

func TestHistoryMatchesRolloutCanonicalHash(t *testing.T) {
	rollout := ParseRolloutJSONL([]byte(`{"event_type":"user_prompt","created_at":"2026-02-01T12:00:00Z","text":"same content"}`), "run-1", "rollout.jsonl")
	history := ParseHistoryJSONL([]byte(`{"source":"codex_history","prompt_id":"p1","created_at":"2026-02-01T12:00:00Z","role":"user","content":"same content"}`), "run-1", "history.jsonl")
	require.Len(t, rollout.Events, 1)
	require.Len(t, history.Events, 1)
	assert.Equal(t, rollout.Events[0].CanonicalHash, history.Events[0].CanonicalHash)
}

func TestRolloutUnknownEventType(t *testing.T) {
	res := ParseRolloutJSONL([]byte(`{"event_type":"something_weird","created_at":"2026-02-01T12:00:00Z"}`), "run-1", "rollout.jsonl")
	require.Len(t, res.Events, 1)
	assert.Equal(t, canon.EventDebugLog, res.Events[0].EventType)
	assert.NotEmpty(t, res.Warnings)
}

func TestDiagnosticLogLevelMapping(t *testing.T) {
	res := ParseDiagnosticLog([]byte("2026-02-01T12:00:00Z WARN tui.render frame_drop count=3"), "run-1", "codex-tui.log")
	require.Len(t, res.Events, 1)
	assert.Equal(t, canon.EventStatusUpdate, res.Events[0].EventType)
	assert.Contains(t, res.Events[0].Tags, "tui_diagnostic")
}
