// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"sync"
	"time"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/clock"
)

// Mode is the identity-input mode of a Reader.
type Mode int

const (
	// ModeSwipe accepts card-reader keystroke bursts. Invalid input
	// is silently ignored; the buffer rolls on.
	ModeSwipe Mode = iota
	// ModeManual accepts a typed ID submitted explicitly. Invalid
	// input produces an inline validation error.
	ModeManual
)

// cancelDebounce is how long a focus loss in swipe mode must persist
// before it counts as the user abandoning the window. A programmatic
// mode switch also fires a focus loss; the delay keeps it from being
// mistaken for a cancel.
const cancelDebounce = 250 * time.Millisecond

// Config configures a Reader.
type Config struct {
	// Clock provides time operations. Defaults to clock.Real().
	Clock clock.Clock

	// OnCancelled is invoked exactly once when the reader is
	// cancelled, whether explicitly or by the focus-loss debounce.
	// May be nil. Called without internal locks held; the callback
	// may run on the debounce timer's goroutine.
	OnCancelled func()
}

// Reader is the swipe/manual identity-input state machine shared by
// every authentication window. It owns the lockable input buffer and
// the single-shot cancellation flag that guards the close/focus-loss
// race.
type Reader struct {
	clock       clock.Clock
	onCancelled func()

	mu        sync.Mutex
	mode      Mode
	buffer    *Buffer
	emitted   bool
	cancelled bool
}

// NewReader creates a reader in swipe mode with an empty buffer.
func NewReader(config Config) *Reader {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Reader{
		clock:       clk,
		onCancelled: config.OnCancelled,
		buffer:      NewBuffer(frameLength),
	}
}

// Mode returns the current input mode.
func (reader *Reader) Mode() Mode {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	return reader.mode
}

// Buffer returns the reader's input buffer. Verification flows lock it
// while a pending identifier is checked.
func (reader *Reader) Buffer() *Buffer {
	return reader.buffer
}

// Press feeds one swipe-mode keystroke to the buffer. When the buffer
// holds a complete swipe frame with a valid embedded ID, the ID is
// returned with true and the reader records the emission. Incomplete
// or invalid frames return false; the buffer rolls on.
func (reader *Reader) Press(key rune) (string, bool) {
	// Card readers only produce 7-bit characters; anything else is
	// terminal noise.
	if key >= 128 {
		return "", false
	}
	reader.buffer.Append(key)

	frame := reader.buffer.String()
	if !IsCompleteFrame(frame) {
		return "", false
	}
	id, err := Extract(frame)
	if err != nil {
		return "", false
	}

	reader.mu.Lock()
	reader.emitted = true
	reader.mu.Unlock()
	return id, true
}

// Submit validates manually entered input. A valid 9-digit ID is
// returned and recorded as emitted; anything else returns a
// *ValidationError and the reader stays in manual mode.
func (reader *Reader) Submit(raw string) (string, error) {
	id, err := Extract(raw)
	if err != nil {
		return "", err
	}

	reader.mu.Lock()
	reader.emitted = true
	reader.mu.Unlock()
	return id, nil
}

// ToggleMode switches between swipe and manual input and returns the
// new mode. The buffer is preserved across the switch.
func (reader *Reader) ToggleMode() Mode {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	if reader.mode == ModeSwipe {
		reader.mode = ModeManual
	} else {
		reader.mode = ModeSwipe
	}
	return reader.mode
}

// FocusLost reports that the window lost input focus. In swipe mode
// this arms the debounced auto-cancel: if the reader is still in swipe
// mode with nothing emitted and no cancel recorded once the debounce
// elapses, the reader cancels itself. A focus loss in manual mode is
// ignored (the manual input field steals focus legitimately).
func (reader *Reader) FocusLost() {
	reader.mu.Lock()
	if reader.mode == ModeManual || reader.cancelled {
		reader.mu.Unlock()
		return
	}
	reader.mu.Unlock()

	reader.clock.AfterFunc(cancelDebounce, reader.debouncedCancel)
}

// debouncedCancel fires after the focus-loss debounce. Re-checks the
// state because a mode switch or an emission may have happened while
// the timer was pending.
func (reader *Reader) debouncedCancel() {
	reader.mu.Lock()
	if reader.mode == ModeManual || reader.cancelled || reader.emitted {
		reader.mu.Unlock()
		return
	}
	reader.cancelled = true
	reader.mu.Unlock()

	if reader.onCancelled != nil {
		reader.onCancelled()
	}
}

// Cancel records an explicit cancellation (window close). Returns true
// if this call performed the cancel. The flag is single-shot: a close
// racing a focus-loss timeout fires the cancellation callback exactly
// once, and a reader that already emitted an identifier never cancels.
func (reader *Reader) Cancel() bool {
	reader.mu.Lock()
	if reader.cancelled || reader.emitted {
		reader.mu.Unlock()
		return false
	}
	reader.cancelled = true
	reader.mu.Unlock()

	if reader.onCancelled != nil {
		reader.onCancelled()
	}
	return true
}

// Cancelled reports whether the reader has been cancelled.
func (reader *Reader) Cancelled() bool {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	return reader.cancelled
}

// Emitted reports whether the reader has emitted an identifier.
func (reader *Reader) Emitted() bool {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	return reader.emitted
}
