/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package opencode

import (
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionMetadataSplitsSessionInfoAndMessages(t *testing.T) {
	text := []byte(
		`{"sessionID":"s1","createdAt":"2026-02-01T12:00:00Z"}` + "\n" +
			`{"sessionID":"s1","messageID":"m1","role":"user","createdAt":"2026-02-01T12:00:01Z"}` + "\n" +
			`{"session_id":"s1","message_id":"m2","role":"assistant","model":"gpt","created_at":"2026-02-01T12:00:02Z"}` + "\n")
	sessions, messages, warnings := ParseSessionMetadataJSONL(text, "meta.jsonl")
	assert.Empty(t, warnings)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].SessionID)
	assert.Equal(t, 2, sessions[0].MessageCount)
	assert.Equal(t, []string{"assistant", "user"}, sessions[0].Roles)
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].MessageID)
	assert.Equal(t, "m2", messages[1].MessageID)
}

func TestParsePartsFoldsKindAndFlagsStepEvents(t *testing.T) {
	text := []byte(`{"sessionID":"s1","messageID":"m1","partID":"p1","kind":"APPROVAL_STEP","text":"go"}` + "\n")
	parts, warnings := ParsePartsJSONL(text, "parts.jsonl", nil)
	assert.Empty(t, warnings)
	require.Len(t, parts, 1)
	assert.Equal(t, "approval_step", parts[0].Kind)
	assert.True(t, parts[0].IsStepEvent)
}

func TestParsePartsOrphanDetection(t *testing.T) {
	text := []byte(`{"sessionID":"s1","messageID":"ghost","partID":"p1","kind":"text","text":"hi"}` + "\n")
	index := MessageKeyIndex{}
	parts, warnings := ParsePartsJSONL(text, "parts.jsonl", index)
	require.Len(t, parts, 1)
	assert.True(t, parts[0].Orphan)
	assert.NotEmpty(t, warnings)
}

func TestJoinMessageMetadataWithPartsIsOrderIndependent(t *testing.T) {
	messages := []MessageMeta{
		{SessionID: "s1", MessageID: "m1", Role: "user", CreatedAt: "2026-02-01T12:00:00Z", Locator: "line:1"},
		{SessionID: "s1", MessageID: "m2", Role: "assistant", CreatedAt: "2026-02-01T12:00:01Z", Locator: "line:2"},
	}
	parts := []Part{
		{SessionID: "s1", MessageID: "m1", PartID: "b", Text: "second"},
		{SessionID: "s1", MessageID: "m1", PartID: "a", Text: "first"},
	}
	joined, without, orphans, warnings := JoinMessageMetadataWithParts(messages, parts)
	assert.Empty(t, warnings)
	assert.Empty(t, orphans)
	require.Len(t, joined, 1)
	assert.Equal(t, "first\nsecond", joined[0].ContentText)
	require.Len(t, without, 1)
	assert.Equal(t, "m2", without[0].MessageID)

	// Permute the parts slice; the join must produce the same result.
	partsPermuted := []Part{parts[1], parts[0]}
	joined2, _, _, _ := JoinMessageMetadataWithParts(messages, partsPermuted)
	assert.Equal(t, joined, joined2)
}

func TestBuildMessageEventsMapsRoles(t *testing.T) {
	joined := []JoinedMessage{
		{MessageMeta: MessageMeta{SessionID: "s1", MessageID: "m1", Role: "user", CreatedAt: "2026-02-01T12:00:00Z"}, ContentText: "hi"},
	}
	events, warnings := BuildMessageEvents(joined, nil, "run-1")
	assert.Empty(t, warnings)
	require.Len(t, events, 1)
	assert.Equal(t, canon.EventPrompt, events[0].EventType)
	assert.Equal(t, canon.RoleUser, events[0].Role)
}

func TestParseRuntimeLogExtractsTokenUsage(t *testing.T) {
	res := ParseRuntimeLog([]byte("2026-02-01T12:00:00Z INFO opencode.runtime token_usage input_tokens=10 output_tokens=5"), "run-1", "runtime.log")
	require.Len(t, res.Events, 1)
	require.NotNil(t, res.Events[0].InputTokens)
	assert.Equal(t, int64(10), *res.Events[0].InputTokens)
	assert.Nil(t, res.Events[0].TotalTokens)
}

func TestParsePromptHistoryFallbackEventID(t *testing.T) {
	res := ParsePromptHistoryLog([]byte("\t2026-02-01T12:00:00Z\thello there"), "run-1", "prompt-history.log")
	require.Len(t, res.Events, 1)
	assert.Equal(t, "opencode-aux-line-1", res.Events[0].EventID)
	assert.Contains(t, res.Events[0].Tags, "prompt_history_auxiliary")
}
