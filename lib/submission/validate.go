// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package submission

import "strings"

// ValidateBillingNumber canonicalizes a billing number field. An empty
// field is valid and means no billing number. A non-empty field must
// be a "P" followed by digits; it is returned uppercased. The second
// result is false for anything else.
func ValidateBillingNumber(raw string) (string, bool) {
	billingNumber := strings.ToUpper(strings.TrimSpace(raw))
	if billingNumber == "" {
		return "", true
	}
	if billingNumber[0] != 'P' || len(billingNumber) == 1 {
		return "", false
	}
	for _, character := range billingNumber[1:] {
		if character < '0' || character > '9' {
			return "", false
		}
	}
	return billingNumber, true
}
