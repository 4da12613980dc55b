// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"fmt"
	"regexp"
)

// Swipe frame layout produced by the lab's magnetic card readers: a
// 16-character burst with fixed sentinel positions and the university
// ID digits embedded between them.
const (
	frameLength        = 16
	frameStartSentinel = ';'
	frameFieldSentinel = '='
	frameEndSentinel   = '?'

	// IdentifierLength is the exact number of digits in a valid
	// university ID.
	IdentifierLength = 9
)

// InvalidIDMessage is the inline error shown when manual input does
// not contain a valid university ID.
const InvalidIDMessage = "Id is not valid. Expected 9 digits."

var digitRun = regexp.MustCompile(`[0-9]+`)

// ValidationError reports input that does not contain a valid
// 9-digit university ID.
type ValidationError struct {
	// Input is the rejected raw input.
	Input string
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("identity: no 9-digit identifier in %q", err.Input)
}

// IsCompleteFrame reports whether s is a complete swipe frame: 16
// characters with the reader's sentinels at positions 0, 10, and 15.
func IsCompleteFrame(s string) bool {
	return len(s) == frameLength &&
		s[0] == frameStartSentinel &&
		s[10] == frameFieldSentinel &&
		s[15] == frameEndSentinel
}

// Extract returns the university ID embedded in raw input: the first
// run of consecutive digits, which must be exactly 9 digits long.
// Works for both swipe frames and manually typed input.
func Extract(raw string) (string, error) {
	run := digitRun.FindString(raw)
	if len(run) != IdentifierLength {
		return "", &ValidationError{Input: raw}
	}
	return run, nil
}
