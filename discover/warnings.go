/*************************************************************************
 * Copyright 2026 The logit Authors. All rights reserved.
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package discover

import "fmt"

// ErrUnreadableFatal is returned by ResolveUnreadable in fail-fast mode so
// the orchestrator can abort the run (spec §4.2, §7).
type ErrUnreadableFatal struct {
	Path string
}

func (e *ErrUnreadableFatal) Error() string {
	return fmt.Sprintf("source path unreadable: %s", e.Path)
}

// ResolveUnreadable reports the warning text for an unreadable candidate
// path, and, in fail-fast mode, a non-nil error the caller must treat as
// fatal.
func ResolveUnreadable(path string, failFast bool) (warning string, err error) {
	warning = fmt.Sprintf("source path unreadable: %s", path)
	if failFast {
		err = &ErrUnreadableFatal{Path: path}
	}
	return warning, err
}
