/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package redact implements the regex-class redaction shared by the
// snapshot profiler and, when enabled, adapter content excerpts (spec §9).
package redact

import (
	"regexp"
	"sort"
)

// Class is one of the closed redaction categories.
type Class string

const (
	ClassEmail           Class = "email"
	ClassPhone           Class = "phone"
	ClassBearerToken     Class = "bearer-token"
	ClassURLQueryToken   Class = "url-query-token"
	ClassSecretAssignment Class = "secret-assignment"
	ClassPrivateKeyBlock Class = "private-key-block"
	ClassBinaryBlob      Class = "binary-blob"
)

type rule struct {
	class Class
	re    *regexp.Regexp
	token string
}

// rules is ordered; order matters only for overlapping matches within a
// single pass, and passes are independent per class so overlap across
// classes cannot happen on the same byte range after the first rewrite.
var rules = []rule{
	{ClassPrivateKeyBlock, regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`), "[REDACTED:private-key-block]"},
	{ClassBearerToken, regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9\-_.=]+`), "[REDACTED:bearer-token]"},
	{ClassSecretAssignment, regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|password|passwd)\s*[:=]\s*["']?[A-Za-z0-9\-_./+=]{6,}["']?`), "[REDACTED:secret-assignment]"},
	{ClassEmail, regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), "[REDACTED:email]"},
	{ClassPhone, regexp.MustCompile(`\+?\d{1,2}[\s.\-]?\(?\d{3}\)?[\s.\-]\d{3}[\s.\-]\d{4}\b`), "[REDACTED:phone]"},
	{ClassURLQueryToken, regexp.MustCompile(`(?i)([?&](?:token|access_token|auth|key|signature)=)[^&\s]+`), "$1[REDACTED:url-query-token]"},
	{ClassBinaryBlob, regexp.MustCompile(`[^\x09\x0A\x0D\x20-\x7E]{8,}`), "[REDACTED:binary-blob]"},
}

// Result is the outcome of redacting a string.
type Result struct {
	Text    string
	Classes []Class // sorted, deduplicated
}

// Apply runs every redaction rule over text and returns the redacted
// string along with the sorted set of classes that matched at least once.
func Apply(text string) Result {
	hit := map[Class]bool{}
	for _, r := range rules {
		if r.re.MatchString(text) {
			hit[r.class] = true
			text = r.re.ReplaceAllString(text, r.token)
		}
	}
	classes := make([]Class, 0, len(hit))
	for c := range hit {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return Result{Text: text, Classes: classes}
}
