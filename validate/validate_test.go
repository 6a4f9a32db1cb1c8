/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONLReportsMissingRequiredFields(t *testing.T) {
	report := ValidateJSONL([]byte(`{"schema_version":"agentlog.v1"}`), ModeBaseline)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, IssueSchemaViolation, report.Issues[0].Kind)
	assert.Equal(t, 1, report.Issues[0].Line)
	assert.Contains(t, report.Issues[0].Detail, "missing required fields")
}

func TestValidateJSONLInvalidJSON(t *testing.T) {
	report := ValidateJSONL([]byte(`not json`), ModeBaseline)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, IssueInvalidJSON, report.Issues[0].Kind)
}

func TestValidateJSONLEnumViolation(t *testing.T) {
	line := `{"schema_version":"agentlog.v1","event_id":"e1","run_id":"r1","sequence_global":0,"source_kind":"bogus","adapter_name":"codex","source_path":"p","source_record_locator":"line:1","record_format":"message","event_type":"prompt","role":"user","timestamp_utc":"2026-01-01T00:00:00.000Z","timestamp_unix_ms":1,"timestamp_quality":"exact","raw_hash":"a","canonical_hash":"b"}`
	report := ValidateJSONL([]byte(line), ModeBaseline)
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0].Detail, "source_kind")
}

func TestValidateJSONLCompleteRecordPasses(t *testing.T) {
	line := `{"schema_version":"agentlog.v1","event_id":"e1","run_id":"r1","sequence_global":0,"source_kind":"codex","adapter_name":"codex","source_path":"p","source_record_locator":"line:1","record_format":"message","event_type":"prompt","role":"user","timestamp_utc":"2026-01-01T00:00:00.000Z","timestamp_unix_ms":1,"timestamp_quality":"exact","raw_hash":"a","canonical_hash":"b"}`
	report := ValidateJSONL([]byte(line), ModeStrict)
	assert.Empty(t, report.Issues)
	assert.Equal(t, 1, report.TotalLines)
}
