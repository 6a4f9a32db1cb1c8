/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package opencode parses OpenCode's session metadata JSONL, parts JSONL,
// and auxiliary text logs, joining metadata and parts into canonical
// events (spec §4.3.4).
package opencode

import (
	"github.com/logit-dev/logit/canon"
)

// Result mirrors the other adapters' Result shape.
type Result struct {
	Events   []canon.AgentLogEvent
	Warnings []string
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
