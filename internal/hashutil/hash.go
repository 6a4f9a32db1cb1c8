/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package hashutil computes the stable 64-bit hashes carried in every
// AgentLogEvent as raw_hash and canonical_hash (spec §3, §9). Both use
// HighwayHash-128 under a fixed, package-private key: the same keyed-hash
// family the teacher uses for its own field-level dedup filters
// (ingest/processors/jsonfilter.go), truncated to 64 bits so the hex
// encoding matches the spec's "64-bit stable hashing" contract.
package hashutil

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/minio/highwayhash"
)

// fixedKey is part of the artifact contract: canonical_hash values appear
// in persisted artifacts and must be reproducible across runs and
// machines, so the key is a compile-time constant, never derived from
// runtime entropy.
var fixedKey = [32]byte{
	0x6c, 0x6f, 0x67, 0x69, 0x74, 0x2e, 0x61, 0x67,
	0x65, 0x6e, 0x74, 0x6c, 0x6f, 0x67, 0x2e, 0x76,
	0x31, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Sum64Hex returns the lower 64 bits of HighwayHash-128 over b, hex
// encoded as 16 digits.
func Sum64Hex(b []byte) string {
	sum := highwayhash.Sum128(b, fixedKey[:])
	v := binary.LittleEndian.Uint64(sum[:8])
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, v)
	return hex.EncodeToString(out)
}

// RawHash hashes the raw bytes of a source record. Distinct bytes always
// produce a distinct hash (modulo collision), per spec §3.
func RawHash(raw []byte) string {
	return Sum64Hex(raw)
}

// CanonicalParts is the ordered tuple canonical_hash is computed over, per
// spec §3: adapter_name, event_type, role, the session/conversation/turn
// identifiers if present, timestamp_utc, and content_text if present.
// Field order and the separator are part of the hash's contract: changing
// either changes every canonical_hash ever emitted.
type CanonicalParts struct {
	AdapterName    string
	EventType      string
	Role           string
	SessionID      string
	ConversationID string
	TurnID         string
	TimestampUTC   string
	ContentText    string
}

const fieldSep = "\x1f" // unit separator; never appears in the source fields above

// CanonicalHash computes canonical_hash from the fields two semantically
// identical events must agree on regardless of which adapter or file
// surfaced them (spec §3, §8).
func CanonicalHash(p CanonicalParts) string {
	buf := make([]byte, 0, 256)
	join := func(s string) {
		buf = append(buf, s...)
		buf = append(buf, fieldSep...)
	}
	join(p.AdapterName)
	join(p.EventType)
	join(p.Role)
	join(p.SessionID)
	join(p.ConversationID)
	join(p.TurnID)
	join(p.TimestampUTC)
	join(p.ContentText)
	return Sum64Hex(buf)
}
