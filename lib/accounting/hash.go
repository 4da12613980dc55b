// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package accounting

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashIdentifier returns the stable one-way digest of a university ID
// used on the wire: lowercase hex SHA-256 of the UTF-8 identifier.
// Raw IDs are never transmitted for authorization or lookup.
func HashIdentifier(universityID string) string {
	digest := sha256.Sum256([]byte(universityID))
	return hex.EncodeToString(digest[:])
}
