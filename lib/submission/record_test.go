// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package submission

import (
	"path/filepath"
	"testing"
)

func TestNewRecordDerivesFigures(t *testing.T) {
	record := NewRecord("/media/sd/benchy.gcode", 41.2, 3.5, "PLA", 0, 0.03)

	if record.FileName != "benchy.gcode" {
		t.Errorf("FileName = %q, want benchy.gcode", record.FileName)
	}
	if record.WeightGrams != 42 {
		t.Errorf("WeightGrams = %d, want 42 (rounded up)", record.WeightGrams)
	}
	if record.Cost != 42*0.03 {
		t.Errorf("Cost = %v, want %v", record.Cost, 42*0.03)
	}
	if record.DurationHours != 3.5 {
		t.Errorf("DurationHours = %v, want 3.5", record.DurationHours)
	}
}

func TestNewRecordTruncatesLongNames(t *testing.T) {
	longName := "a_very_long_print_file_name_for_testing.gcode"
	record := NewRecord(filepath.Join("/media/sd", longName), 10, 1, "PLA", 31, 0.03)

	if got := len(record.FileName); got != 31 {
		t.Fatalf("truncated name length = %d (%q), want 31", got, record.FileName)
	}
	if filepath.Ext(record.FileName) != ".gcode" {
		t.Errorf("truncation lost the extension: %q", record.FileName)
	}
	if want := filepath.Join("/media/sd", record.FileName); record.FileLocation != want {
		t.Errorf("FileLocation = %q, want %q", record.FileLocation, want)
	}
}

func TestNewRecordTruncatesOversizedExtensions(t *testing.T) {
	// The extension alone exceeds the machine's limit, so it cannot be
	// preserved; the name is cut flat instead.
	record := NewRecord("/media/sd/a.thisisaveryverylongextension", 10, 1, "PLA", 10, 0.03)

	if got := len(record.FileName); got != 10 {
		t.Fatalf("truncated name length = %d (%q), want 10", got, record.FileName)
	}
	if record.FileName != "a.thisisav" {
		t.Errorf("FileName = %q, want a.thisisav", record.FileName)
	}
}

func TestNewRecordTruncatesExtensionlessNames(t *testing.T) {
	record := NewRecord("/media/sd/averylongnamewithnodot", 10, 1, "PLA", 10, 0.03)
	if record.FileName != "averylongn" {
		t.Errorf("FileName = %q, want averylongn", record.FileName)
	}
}

func TestNewRecordKeepsShortNames(t *testing.T) {
	record := NewRecord("/media/sd/benchy.gcode", 10, 1, "PLA", 31, 0.03)
	if record.FileName != "benchy.gcode" {
		t.Errorf("FileName = %q, want benchy.gcode untouched", record.FileName)
	}
	if record.FileLocation != "/media/sd/benchy.gcode" {
		t.Errorf("FileLocation = %q, want unchanged", record.FileLocation)
	}
}

func TestFormattedWeight(t *testing.T) {
	if got := (Record{WeightGrams: 1}).FormattedWeight(); got != "1 gram" {
		t.Errorf("FormattedWeight(1) = %q, want %q", got, "1 gram")
	}
	if got := (Record{WeightGrams: 42}).FormattedWeight(); got != "42 grams" {
		t.Errorf("FormattedWeight(42) = %q, want %q", got, "42 grams")
	}
}

func TestFormattedCost(t *testing.T) {
	if got := (Record{Cost: 1.26}).FormattedCost(); got != "$1.26" {
		t.Errorf("FormattedCost = %q, want $1.26", got)
	}
}

func TestValidateBillingNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"", "", true},
		{"   ", "", true},
		{"P12345", "P12345", true},
		{"p12345", "P12345", true},
		{" p007 ", "P007", true},
		{"P", "", false},
		{"12345", "", false},
		{"P12a45", "", false},
		{"X12345", "", false},
	}
	for _, test := range tests {
		got, ok := ValidateBillingNumber(test.input)
		if got != test.want || ok != test.ok {
			t.Errorf("ValidateBillingNumber(%q) = %q, %v; want %q, %v",
				test.input, got, ok, test.want, test.ok)
		}
	}
}
