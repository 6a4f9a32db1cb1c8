/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package adapterutil holds the timestamp/event-id fallback logic shared
// by every adapter parser (spec §3's "fallback event_id"/"fallback
// timestamp" rules), so each adapter only has to supply its own prefix.
package adapterutil

import (
	"fmt"
	"time"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/hashutil"
)

// FallbackEventID synthesizes a deterministic event_id from the adapter,
// record kind, and line number, per spec §3: "<adapter>-<kind>-line-<n>".
func FallbackEventID(adapter canon.SourceKind, kind string, line int) string {
	return fmt.Sprintf("%s-%s-line-%d", adapter, kind, line)
}

// ParsedTimestamp resolves a source timestamp string (RFC 3339 / ISO-8601)
// to (utc, unixMS, quality). On parse failure or an empty string, it
// falls back to a deterministic synthetic timestamp derived from
// (sourcePath, locator) so that repeated runs over identical bytes agree
// (spec §3).
func ParsedTimestamp(raw, sourcePath, locator string) (utc string, unixMS int64, quality canon.TimestampQuality) {
	if raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return formatUTC(t)
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return formatUTC(t)
		}
	}
	return FallbackTimestamp(sourcePath, locator)
}

func formatUTC(t time.Time) (string, int64, canon.TimestampQuality) {
	u := t.UTC()
	return u.Format("2006-01-02T15:04:05.000Z"), u.UnixMilli(), canon.TimestampExact
}

// fallbackEpoch anchors synthetic timestamps; it carries no meaning
// beyond being a fixed point every run agrees on (spec §3: "deterministic
// fallback derived from (source_path, source_record_locator) order").
var fallbackEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// FallbackTimestamp derives a synthetic timestamp from a stable hash of
// (sourcePath, locator), offset from a fixed epoch. It is deterministic
// across runs and does not depend on wall-clock time.
func FallbackTimestamp(sourcePath, locator string) (string, int64, canon.TimestampQuality) {
	h := hashutil.Sum64Hex([]byte(sourcePath + "\x1f" + locator))
	var offsetMS int64
	for i := 0; i < len(h) && i < 16; i++ {
		offsetMS = offsetMS*16 + int64(hexDigit(h[i]))
	}
	// Keep the offset within ~50 years so the synthetic timestamp stays
	// a plausible, sortable value rather than overflowing.
	offsetMS = offsetMS % (1000 * 60 * 60 * 24 * 365 * 50)
	t := fallbackEpoch.Add(time.Duration(offsetMS) * time.Millisecond)
	utc, unixMS, _ := formatUTC(t)
	return utc, unixMS, canon.TimestampFallback
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return 0
	}
}
