/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package opencode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/logit-dev/logit/canon"
	"github.com/logit-dev/logit/internal/adapterutil"
	"github.com/logit-dev/logit/internal/hashutil"
	"github.com/logit-dev/logit/internal/textutil"
)

// JoinedMessage is a message's metadata combined with the text of its
// parts, concatenated in partID order.
type JoinedMessage struct {
	MessageMeta
	ContentText string
	PartKinds   []string
}

// JoinMessageMetadataWithParts combines message metadata rows with their
// parts (spec §4.3.4). Messages are iterated in stable order (sorted by
// sessionID, createdAt, messageID); parts within a message are sorted by
// partID. The result is idempotent under input permutation: sorting both
// inputs before matching means slice order never leaks into the output.
func JoinMessageMetadataWithParts(messages []MessageMeta, parts []Part) (joined []JoinedMessage, messagesWithoutParts []MessageMeta, orphanParts []Part, warnings []string) {
	sortedMessages := append([]MessageMeta(nil), messages...)
	sort.Slice(sortedMessages, func(i, j int) bool {
		if sortedMessages[i].SessionID != sortedMessages[j].SessionID {
			return sortedMessages[i].SessionID < sortedMessages[j].SessionID
		}
		if sortedMessages[i].CreatedAt != sortedMessages[j].CreatedAt {
			return sortedMessages[i].CreatedAt < sortedMessages[j].CreatedAt
		}
		return sortedMessages[i].MessageID < sortedMessages[j].MessageID
	})

	partsByKey := map[string][]Part{}
	for _, p := range parts {
		key := messageKey(p.SessionID, p.MessageID)
		partsByKey[key] = append(partsByKey[key], p)
	}
	for key := range partsByKey {
		group := partsByKey[key]
		sort.Slice(group, func(i, j int) bool { return group[i].PartID < group[j].PartID })
		partsByKey[key] = group
	}

	messageKeys := map[string]bool{}
	for _, m := range messages {
		messageKeys[messageKey(m.SessionID, m.MessageID)] = true
	}

	for _, m := range sortedMessages {
		key := messageKey(m.SessionID, m.MessageID)
		group := partsByKey[key]
		if len(group) == 0 {
			messagesWithoutParts = append(messagesWithoutParts, m)
			continue
		}
		var fragments []string
		var kinds []string
		for _, p := range group {
			kinds = append(kinds, p.Kind)
			if t := strings.TrimSpace(p.Text); t != "" {
				fragments = append(fragments, t)
			}
		}
		joined = append(joined, JoinedMessage{
			MessageMeta: m,
			ContentText: strings.Join(fragments, "\n"),
			PartKinds:   kinds,
		})
	}

	var keysSorted []string
	for k := range partsByKey {
		keysSorted = append(keysSorted, k)
	}
	sort.Strings(keysSorted)
	for _, k := range keysSorted {
		if messageKeys[k] {
			continue
		}
		for _, p := range partsByKey[k] {
			orphanParts = append(orphanParts, p)
			warnings = append(warnings, fmt.Sprintf("%s: orphan part for unknown message `%s`/`%s`", p.Locator, p.SessionID, p.MessageID))
		}
	}
	return joined, messagesWithoutParts, orphanParts, warnings
}

var messageRoleMapping = map[string]struct {
	eventType canon.EventType
	role      canon.Role
	format    canon.RecordFormat
}{
	"user":      {canon.EventPrompt, canon.RoleUser, canon.RecordMessage},
	"assistant": {canon.EventResponse, canon.RoleAssistant, canon.RecordMessage},
	"tool":      {canon.EventToolOutput, canon.RoleTool, canon.RecordToolResult},
	"system":    {canon.EventSystemNotice, canon.RoleSystem, canon.RecordSystem},
}

// BuildMessageEvents maps joined (and part-less) message metadata to
// canonical events, sorted by (sessionID, createdAt, messageID) so the
// adapter's own emission order is deterministic independent of how the
// caller ordered its join inputs.
func BuildMessageEvents(joined []JoinedMessage, messagesWithoutParts []MessageMeta, runID string) (events []canon.AgentLogEvent, warnings []string) {
	all := make([]JoinedMessage, 0, len(joined)+len(messagesWithoutParts))
	all = append(all, joined...)
	for _, m := range messagesWithoutParts {
		all = append(all, JoinedMessage{MessageMeta: m})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].SessionID != all[j].SessionID {
			return all[i].SessionID < all[j].SessionID
		}
		if all[i].CreatedAt != all[j].CreatedAt {
			return all[i].CreatedAt < all[j].CreatedAt
		}
		return all[i].MessageID < all[j].MessageID
	})
	for _, jm := range all {
		ev, warns := buildMessageEvent(jm, runID)
		events = append(events, ev)
		warnings = append(warnings, warns...)
	}
	return events, warnings
}

func buildMessageEvent(jm JoinedMessage, runID string) (canon.AgentLogEvent, []string) {
	var warnings []string
	mapping, known := messageRoleMapping[jm.Role]
	if !known {
		mapping = struct {
			eventType canon.EventType
			role      canon.Role
			format    canon.RecordFormat
		}{canon.EventDebugLog, canon.RoleRuntime, canon.RecordDiagnostic}
		if jm.Role == "unknown" || jm.Role == "" {
			warnings = append(warnings, fmt.Sprintf("%s: missing required `role`", jm.Locator))
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: unrecognized `role` `%s`", jm.Locator, jm.Role))
		}
	}

	if jm.ContentText == "" {
		warnings = append(warnings, fmt.Sprintf("%s: missing message content text", jm.Locator))
	}

	eventID := jm.MessageID
	if eventID == "" {
		eventID = adapterutil.FallbackEventID(canon.SourceOpenCode, "message", jm.LineNo)
	}
	utc, unixMS, quality := adapterutil.ParsedTimestamp(jm.CreatedAt, jm.SourcePath, jm.Locator)
	if jm.CreatedAt != "" && quality == canon.TimestampFallback {
		warnings = append(warnings, fmt.Sprintf("%s: invalid timestamp `%s`", jm.Locator, jm.CreatedAt))
	}

	excerpt, hasExcerpt := textutil.Excerpt(jm.ContentText, 280)
	ev := canon.AgentLogEvent{
		SchemaVersion:       canon.SchemaVersion,
		EventID:             eventID,
		RunID:               runID,
		SourceKind:          canon.SourceOpenCode,
		AdapterName:         canon.SourceOpenCode,
		SourcePath:          jm.SourcePath,
		SourceRecordLocator: jm.Locator,
		RecordFormat:        mapping.format,
		EventType:           mapping.eventType,
		Role:                mapping.role,
		TimestampUTC:        utc,
		TimestampUnixMS:     unixMS,
		TimestampQuality:    quality,
		RawHash:             hashutil.RawHash([]byte(jm.SessionID + "\x1f" + jm.MessageID + "\x1f" + jm.ContentText)),
		SessionID:           jm.SessionID,
		Model:               jm.Model,
		Provider:            jm.Provider,
	}
	if jm.ContentText != "" {
		ev.ContentText = jm.ContentText
	}
	if hasExcerpt {
		ev.ContentExcerpt = excerpt
	}
	if len(jm.PartKinds) > 0 {
		ev.Metadata = map[string]string{"opencode_part_kinds": strings.Join(jm.PartKinds, ",")}
	}
	ev.CanonicalHash = hashutil.CanonicalHash(hashutil.CanonicalParts{
		AdapterName:  string(ev.AdapterName),
		EventType:    string(ev.EventType),
		Role:         string(ev.Role),
		SessionID:    ev.SessionID,
		TimestampUTC: ev.TimestampUTC,
		ContentText:  ev.ContentText,
	})
	return ev, warnings
}
