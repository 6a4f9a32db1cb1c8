/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package claude

import (
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionUserMessage(t *testing.T) {
	line := `{"type":"user","uuid":"u-1","sessionId":"s-1","timestamp":"2026-02-01T12:00:00Z","message":{"role":"user","content":"hi there"}}`
	res := ParseSessionJSONL([]byte(line), "run-1", "session.jsonl")
	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, canon.EventPrompt, ev.EventType)
	assert.Equal(t, "hi there", ev.ContentText)
}

func TestSessionUnknownType(t *testing.T) {
	res := ParseSessionJSONL([]byte(`{"type":"weird","timestamp":"2026-02-01T12:00:00Z"}`), "run-1", "session.jsonl")
	require.Len(t, res.Events, 1)
	assert.Equal(t, canon.EventDebugLog, res.Events[0].EventType)
	assert.NotEmpty(t, res.Warnings)
}
