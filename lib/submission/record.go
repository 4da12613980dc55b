// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package submission

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Record is one print being exported: the sliced file plus the
// figures shown to and charged against the user.
type Record struct {
	// FileLocation is where the sliced file will be written. If the
	// name was truncated, this already points at the shortened name.
	FileLocation string

	// FileName is the base name of FileLocation.
	FileName string

	// Material is the material name.
	Material string

	// WeightGrams is the print weight, rounded up to whole grams.
	WeightGrams int

	// DurationHours is the estimated print length.
	DurationHours float64

	// Cost is WeightGrams times the per-gram rate.
	Cost float64
}

// NewRecord derives a record from the slicer's output. maxNameLength
// is the machine's file name limit (0 for no limit); names over the
// limit are truncated with the extension preserved, since the printer
// needs it to recognize the file.
func NewRecord(fileLocation string, weightGrams, durationHours float64, material string, maxNameLength int, costPerGram float64) Record {
	fileName := filepath.Base(fileLocation)
	if maxNameLength > 0 && len(fileName) > maxNameLength {
		extensionIndex := strings.LastIndex(fileName, ".")
		keep := 0
		if extensionIndex >= 0 {
			keep = maxNameLength - (len(fileName) - extensionIndex)
		}
		if keep > 0 {
			fileName = fileName[:keep] + fileName[extensionIndex:]
		} else {
			// No extension, or one too long to preserve within the
			// limit.
			fileName = fileName[:maxNameLength]
		}
		fileLocation = filepath.Join(filepath.Dir(fileLocation), fileName)
	}

	wholeGrams := int(math.Ceil(weightGrams))
	return Record{
		FileLocation:  fileLocation,
		FileName:      fileName,
		Material:      material,
		WeightGrams:   wholeGrams,
		DurationHours: durationHours,
		Cost:          float64(wholeGrams) * costPerGram,
	}
}

// FormattedWeight returns the weight as shown in the export window.
func (record Record) FormattedWeight() string {
	if record.WeightGrams == 1 {
		return "1 gram"
	}
	return fmt.Sprintf("%d grams", record.WeightGrams)
}

// FormattedCost returns the cost as shown in the export window.
func (record Record) FormattedCost() string {
	return fmt.Sprintf("$%.2f", record.Cost)
}
