/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package amp

import (
	"encoding/json"
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizePartsNestedContainer(t *testing.T) {
	raw := []json.RawMessage{
		[]byte(`{"kind":"container","content":[{"kind":"text","text":"a"},{"kind":"text","text":"b"}]}`),
	}
	summary := SummarizeParts(raw)
	assert.Equal(t, 1, summary.PartCount)
	assert.Equal(t, []string{"container", "text", "text"}, summary.PartKinds)
	assert.Equal(t, "a\nb", summary.ContentText)
}

func TestSummarizePartsTableCases(t *testing.T) {
	cases := []struct {
		name        string
		raw         []json.RawMessage
		partCount   int
		partKinds   []string
		contentText string
	}{
		{
			name: "flattens nested typed content arrays without text duplication",
			raw: []json.RawMessage{
				[]byte(`{"type":"container","content":[{"type":"text","text":"First nested line."},{"type":"text","text":"Second nested line."}]}`),
				[]byte(`{"type":"tool_call","name":"grep","content":{"path":"src/main.rs"}}`),
			},
			partCount:   2,
			partKinds:   []string{"container", "text", "text", "tool_call"},
			contentText: "First nested line.\nSecond nested line.",
		},
		{
			name: "concatenates text-bearing parts in path order, including an output-bearing part",
			raw: []json.RawMessage{
				[]byte(`{"type":"text","text":"First line."}`),
				[]byte(`{"type":"tool_result","output":"Second line."}`),
				[]byte(`{"type":"container","content":[{"type":"text","text":"Third line."},{"type":"tool_call","content":{"cmd":"ls"}}]}`),
				[]byte(`{"type":"text","text":"Fourth line."}`),
			},
			partCount:   4,
			partKinds:   []string{"text", "tool_result", "container", "text", "tool_call", "text"},
			contentText: "First line.\nSecond line.\nThird line.\nFourth line.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary := SummarizeParts(tc.raw)
			assert.Equal(t, tc.partCount, summary.PartCount)
			assert.Equal(t, tc.partKinds, summary.PartKinds)
			assert.Equal(t, tc.contentText, summary.ContentText)
		})
	}
}

func TestParseThreadJSONRoleMapping(t *testing.T) {
	text := `{"messages":[{"id":"m1","role":"user","parts":[{"kind":"text","text":"hi"}]}]}`
	res := ParseThreadJSON([]byte(text), "run-1", "thread.json")
	require.Len(t, res.Events, 1)
	assert.Equal(t, canon.EventPrompt, res.Events[0].EventType)
	assert.Equal(t, canon.RoleUser, res.Events[0].Role)
	assert.Equal(t, "hi", res.Events[0].ContentText)
}
