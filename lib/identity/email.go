// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package identity

import "strings"

// Accepted email domains. All of them collapse to the canonical
// @rit.edu form; anything else is rejected rather than guessed at.
const canonicalDomain = "@rit.edu"

var acceptedDomains = []string{"@rit.edu", "@g.rit.edu", "@mail.rit.edu"}

// NormalizeEmail lowercases and canonicalizes a university email
// address. Bare usernames gain the canonical domain; accepted alternate
// domains (g.rit.edu, mail.rit.edu) are rewritten to it. Returns false
// for empty input, foreign domains, or a local part with characters
// the accounting service does not accept.
//
// Normalization is idempotent: applying it to its own output yields
// the same result.
func NormalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))

	// Split off and verify the domain if one was given.
	if at := strings.IndexByte(email, '@'); at != -1 {
		domain := email[at:]
		email = email[:at]
		accepted := false
		for _, candidate := range acceptedDomains {
			if domain == candidate {
				accepted = true
				break
			}
		}
		if !accepted {
			return "", false
		}
	}

	if email == "" {
		return "", false
	}
	for _, r := range email {
		if !validLocalRune(r) {
			return "", false
		}
	}

	return email + canonicalDomain, true
}

// validLocalRune reports whether r may appear in the local part of a
// university email. Input is already lowercased, so the accepted set
// is digits, lowercase letters, underscore, and the +-./ punctuation
// range.
func validLocalRune(r rune) bool {
	switch {
	case r < '+':
		return false
	case r >= ':' && r <= 'A':
		return false
	case r >= '[' && r <= '`' && r != '_':
		return false
	case r > 'z':
		return false
	}
	return true
}
