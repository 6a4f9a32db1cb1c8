/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package textutil implements the content-extraction, excerpt, and
// whitespace-normalization rules shared by every adapter (spec §4.3).
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/buger/jsonparser"
)

// maxRecursionDepth bounds the content-extraction walk so a pathological
// or cyclic-looking JSON document cannot recurse indefinitely (spec §9).
const maxRecursionDepth = 64

// priorityKeys is the order in which object keys are preferred when
// extracting text from a JSON value (spec §4.3).
var priorityKeys = []string{"text", "content", "message", "value", "output", "input", "body", "prompt", "parts"}

// identityKeys are never treated as content, even if present alongside
// content-bearing siblings.
var identityKeys = map[string]bool{
	"id": true, "type": true, "role": true, "name": true, "model": true,
	"provider": true, "timestamp": true,
}

// ExtractText walks a raw JSON value and returns the concatenation of its
// text-bearing fragments, newline-joined in the order priority keys were
// visited, trimmed. truncated reports whether the walk hit the recursion
// limit before finishing.
func ExtractText(raw []byte) (text string, truncated bool) {
	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil {
		return "", false
	}
	var fragments []string
	truncated = walkValue(value, dataType, 0, &fragments)
	text = strings.TrimSpace(strings.Join(fragments, "\n"))
	return text, truncated
}

// walkValue recurses into an already-typed jsonparser value (the shape
// jsonparser.Get/ObjectEach/ArrayEach callbacks hand back: quotes already
// stripped for strings).
func walkValue(value []byte, dataType jsonparser.ValueType, depth int, out *[]string) (truncated bool) {
	if depth >= maxRecursionDepth {
		return true
	}
	switch dataType {
	case jsonparser.String:
		if s, err := jsonparser.ParseString(value); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				*out = append(*out, s)
			}
		}
		return false
	case jsonparser.Array:
		trunc := false
		_, _ = jsonparser.ArrayEach(value, func(elem []byte, elemType jsonparser.ValueType, offset int, err error) {
			if err != nil {
				return
			}
			if walkValue(elem, elemType, depth+1, out) {
				trunc = true
			}
		})
		return trunc
	case jsonparser.Object:
		// Visit priority keys in their declared order; unknown and
		// identity keys are ignored entirely.
		trunc := false
		for _, key := range priorityKeys {
			v, vType, _, err := jsonparser.Get(value, key)
			if err != nil || vType == jsonparser.NotExist {
				continue
			}
			if walkValue(v, vType, depth+1, out) {
				trunc = true
			}
		}
		return trunc
	default:
		// Numbers, booleans, null carry no text.
		return false
	}
}

// IsIdentityKey reports whether a key is one of the metadata keys ignored
// by content extraction.
func IsIdentityKey(key string) bool {
	return identityKeys[key]
}

// NormalizeWhitespace collapses runs of whitespace (including newlines)
// into single spaces and trims the result.
func NormalizeWhitespace(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// Excerpt returns a whitespace-collapsed prefix of at most maxChars UTF-8
// characters, followed by "..." if truncated. Absent (empty string, false)
// when text is empty or maxChars is 0 (spec §4.3, §8's excerpt law).
func Excerpt(text string, maxChars int) (excerpt string, ok bool) {
	if text == "" || maxChars <= 0 {
		return "", false
	}
	normalized := NormalizeWhitespace(text)
	if normalized == "" {
		return "", false
	}
	if utf8.RuneCountInString(normalized) <= maxChars {
		return normalized, true
	}
	runes := []rune(normalized)
	return string(runes[:maxChars]) + "...", true
}
