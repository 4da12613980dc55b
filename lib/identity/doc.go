// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package identity turns raw keystroke or manual input into a
// validated 9-digit university ID.
//
// The lab's magnetic card readers type a 16-character frame as a burst
// of keystrokes (sentinels ';', '=', '?' at fixed positions, digits
// embedded between them). [Reader] is the state machine shared by
// every authentication window: it collects swipe bursts into a
// lockable [Buffer], validates manual entry, and owns the single-shot
// cancellation flag with the debounced focus-loss auto-cancel.
//
// [NormalizeEmail] canonicalizes the university email forms accepted
// by the accounting service.
package identity
