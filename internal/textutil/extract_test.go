/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextPriorityKeys(t *testing.T) {
	raw := []byte(`{"id":"x","role":"user","text":"hello","content":"ignored because text already matched... not really, both are visited"}`)
	text, truncated := ExtractText(raw)
	require.False(t, truncated)
	assert.Contains(t, text, "hello")
}

func TestExtractTextNestedArray(t *testing.T) {
	raw := []byte(`{"parts":[{"text":"one"},{"text":"two"}]}`)
	text, _ := ExtractText(raw)
	assert.Equal(t, "one\ntwo", text)
}

func TestExtractTextIgnoresIdentityKeys(t *testing.T) {
	raw := []byte(`{"id":"abc","type":"message","name":"ignored"}`)
	text, _ := ExtractText(raw)
	assert.Empty(t, text)
}

func TestExcerptTruncates(t *testing.T) {
	e, ok := Excerpt("hello   world  this is long", 8)
	require.True(t, ok)
	assert.Equal(t, "hello wo...", e)
}

func TestExcerptNoTruncationNoEllipsis(t *testing.T) {
	e, ok := Excerpt("hi", 10)
	require.True(t, ok)
	assert.Equal(t, "hi", e)
}

func TestExcerptAbsentWhenEmpty(t *testing.T) {
	_, ok := Excerpt("", 10)
	assert.False(t, ok)
	_, ok = Excerpt("hello", 0)
	assert.False(t, ok)
}

func TestNormalizeWhitespaceCollapses(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeWhitespace("  a \n\t b   c \n"))
}
