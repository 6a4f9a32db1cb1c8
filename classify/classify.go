/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package classify implements the source-file classifier (spec §4.1):
// given a path and up to the first few KiB of a file, decide whether it
// is json, jsonl, a text log, binary, or a directory.
package classify

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format is the closed set of classifications.
type Format string

const (
	FormatJSON      Format = "json"
	FormatJSONL     Format = "jsonl"
	FormatTextLog   Format = "text-log"
	FormatBinary    Format = "binary"
	FormatDirectory Format = "directory"
)

// MaxHeadBytes bounds how much of a file the classifier inspects.
const MaxHeadBytes = 4096

// extensionMap short-circuits classification for well-known extensions
// without inspecting bytes (spec §4.1 step 1).
var extensionMap = map[string]Format{
	".json":  FormatJSON,
	".jsonl": FormatJSONL,
	".log":   FormatTextLog,
}

// Classify determines a file's format from its path and up to
// MaxHeadBytes of content. isDir short-circuits to FormatDirectory.
// hint, if non-empty, overrides the extension map (a discovery format
// hint always wins over step 1, per spec §4.1's final sentence).
func Classify(path string, head []byte, isDir bool, hint Format) Format {
	if isDir {
		return FormatDirectory
	}
	if hint != "" {
		return hint
	}
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensionMap[ext]; ok {
		return f
	}
	if len(head) > MaxHeadBytes {
		head = head[:MaxHeadBytes]
	}
	if bytes.IndexByte(head, 0) != -1 || !utf8.Valid(head) {
		return FormatBinary
	}
	if looksLikeJSONL(head) {
		return FormatJSONL
	}
	if looksLikeWholeJSON(head) {
		return FormatJSON
	}
	return FormatTextLog
}

// looksLikeJSONL reports whether at least two non-empty lines of head
// each independently parse as a JSON value (spec §4.1 step 3). The head
// may be truncated mid-line, so a trailing partial line is tolerated: it
// is simply skipped rather than treated as a parse failure.
func looksLikeJSONL(head []byte) bool {
	lines := bytes.Split(head, []byte("\n"))
	matched := 0
	for i, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if i == len(lines)-1 {
			// Possibly truncated by MaxHeadBytes; don't let a partial
			// trailing line count against jsonl detection either way.
			if !json.Valid(line) {
				continue
			}
		}
		if json.Valid(line) {
			matched++
			if matched >= 2 {
				return true
			}
		}
	}
	return false
}

// looksLikeWholeJSON reports whether the entire trimmed content parses as
// one JSON value (spec §4.1 step 4).
func looksLikeWholeJSON(head []byte) bool {
	trimmed := bytes.TrimSpace(head)
	if len(trimmed) == 0 {
		return false
	}
	return json.Valid(trimmed)
}
