/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tabular

import (
	"testing"

	"github.com/logit-dev/logit/canon"
	"github.com/stretchr/testify/assert"
)

func TestJSONOrNilOmitsEmptyCollections(t *testing.T) {
	assert.Nil(t, jsonOrNil([]string(nil)))
	assert.Nil(t, jsonOrNil(map[string]string{}))
	assert.Equal(t, `["a"]`, jsonOrNil([]string{"a"}))
}

func TestNullableEmptyStringBecomesNil(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", nullable("x"))
}

func TestCompareRequiredDetectsFieldDisagreement(t *testing.T) {
	a := canon.AgentLogEvent{EventID: "e1", SchemaVersion: canon.SchemaVersion, TimestampUTC: "2026-01-01T00:00:00.000Z"}
	b := a
	b.TimestampUTC = "2026-01-02T00:00:00.000Z"
	mismatches := compareRequired(a, b)
	assert.Len(t, mismatches, 1)
	assert.Equal(t, "timestamp_utc", mismatches[0].Field)
	assert.Equal(t, MismatchFieldConflict, mismatches[0].Kind)
}

func TestCompareRequiredAgreesOnIdenticalRows(t *testing.T) {
	a := canon.AgentLogEvent{EventID: "e1", SchemaVersion: canon.SchemaVersion}
	assert.Empty(t, compareRequired(a, a))
}
