// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"strings"
	"testing"
)

func TestIsCompleteFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  bool
	}{
		{"valid frame", ";123456789=01234?", false}, // 17 chars, too long
		{"swipe frame", ";123456789=0123?", true},
		{"too short", ";12345678=0123?", false},
		{"wrong start", ":123456789=123?", false},
		{"wrong separator", ";1234567890123-?", false},
		{"wrong end", ";123456789=0123!", false},
		{"empty", "", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsCompleteFrame(test.frame); got != test.want {
				t.Errorf("IsCompleteFrame(%q) = %v, want %v", test.frame, got, test.want)
			}
		})
	}
}

// TestSwipeFrameExtraction covers the frame property: for any
// 16-character string with the sentinels in place, the embedded ID is
// emitted iff the first digit run is exactly 9 digits long.
func TestSwipeFrameExtraction(t *testing.T) {
	tests := []struct {
		name   string
		frame  string
		wantID string
	}{
		{"nine digit run", ";123456789=0123?", "123456789"},
		{"eight digit run", ";12345678x=0123?", ""},
		{"split digit run", ";1234x6789=0123?", ""},
		{"letters in trailing field", ";123456789=ab1c?", "123456789"},
		{"no digits", ";abcdefghi=jklm?", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if !IsCompleteFrame(test.frame) {
				t.Fatalf("test frame %q is not a complete frame", test.frame)
			}
			id, err := Extract(test.frame)
			if test.wantID == "" {
				if err == nil {
					t.Fatalf("Extract(%q) = %q, want error", test.frame, id)
				}
				var validationError *ValidationError
				if !errors.As(err, &validationError) {
					t.Errorf("Extract error = %T, want *ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract(%q): %v", test.frame, err)
			}
			if id != test.wantID {
				t.Errorf("Extract(%q) = %q, want %q", test.frame, id, test.wantID)
			}
		})
	}
}

func TestExtractManualInput(t *testing.T) {
	// First digit run wins, even when a later run has 9 digits.
	if id, err := Extract("id: 123456789"); err != nil || id != "123456789" {
		t.Errorf("Extract = %q, %v; want 123456789, nil", id, err)
	}
	if _, err := Extract("12345 123456789"); err == nil {
		t.Error("Extract accepted a 5-digit first run")
	}
	if _, err := Extract(strings.Repeat("9", 10)); err == nil {
		t.Error("Extract accepted a 10-digit run")
	}
	if _, err := Extract("no digits here"); err == nil {
		t.Error("Extract accepted input with no digits")
	}
}
