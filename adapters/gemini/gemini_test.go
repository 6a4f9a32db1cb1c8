/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package gemini

import (
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatJSONRoleMapping(t *testing.T) {
	text := `{"conversationId":"c1","sessionId":"s1","messages":[{"id":"m1","role":"user","content":"hi","timestamp":"2026-02-01T12:00:00Z"},{"id":"m2","role":"model","content":"hello"}]}`
	res := ParseChatJSON([]byte(text), "run-1", "chat.json")
	require.Len(t, res.Events, 2)
	assert.Equal(t, canon.EventPrompt, res.Events[0].EventType)
	assert.Equal(t, canon.EventResponse, res.Events[1].EventType)
}

func TestChatJSONUnknownRoleWarns(t *testing.T) {
	text := `{"messages":[{"id":"m1","role":"bot","content":"x"}]}`
	res := ParseChatJSON([]byte(text), "run-1", "chat.json")
	require.Len(t, res.Events, 1)
	assert.Equal(t, canon.EventDebugLog, res.Events[0].EventType)
	assert.NotEmpty(t, res.Warnings)
}

func TestLogsJSONKindOverridesLevel(t *testing.T) {
	text := `[{"kind":"metric","level":"error","message":"cpu"}]`
	res := ParseLogsJSON([]byte(text), "run-1", "logs.json")
	require.Len(t, res.Events, 1)
	assert.Equal(t, canon.EventMetric, res.Events[0].EventType)
}

func TestLogsJSONFallbackEventID(t *testing.T) {
	text := `[{"level":"debug","message":"x"}]`
	res := ParseLogsJSON([]byte(text), "run-1", "logs.json")
	require.Len(t, res.Events, 1)
	assert.Equal(t, "gemini-log-000001", res.Events[0].EventID)
}
