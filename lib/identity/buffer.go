// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"strings"
	"sync"
)

// Buffer is a bounded FIFO buffer of received characters with a lock
// flag. Card readers emit the swipe frame as a burst of keystrokes;
// the buffer collects them and rolls old characters out once capacity
// is exceeded, so garbage before a swipe never blocks a later one.
//
// Locking the buffer rejects all appends. Verification flows lock it
// while a pending identifier is checked against the accounting service
// so a spurious second swipe cannot interleave with the first.
type Buffer struct {
	mu      sync.Mutex
	maxSize int
	runes   []rune
	locked  bool
}

// NewBuffer creates a buffer that holds at most maxSize characters.
func NewBuffer(maxSize int) *Buffer {
	return &Buffer{maxSize: maxSize}
}

// Append adds a character to the buffer. Ignored while the buffer is
// locked. If the buffer exceeds its capacity the oldest character is
// evicted.
func (b *Buffer) Append(r rune) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.locked {
		b.runes = append(b.runes, r)
	}
	if len(b.runes) > b.maxSize {
		b.runes = b.runes[1:]
	}
}

// Lock makes the buffer reject all appends until Unlock.
func (b *Buffer) Lock() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locked = true
}

// Unlock re-enables appends.
func (b *Buffer) Unlock() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locked = false
}

// Locked reports whether the buffer is currently rejecting appends.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Clear discards all buffered characters. The lock flag is unchanged.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runes = nil
}

// String returns the buffered characters concatenated in arrival order.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var builder strings.Builder
	for _, r := range b.runes {
		builder.WriteRune(r)
	}
	return builder.String()
}

// Len returns the number of buffered characters.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.runes)
}
