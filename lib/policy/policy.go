// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package policy evaluates the lab's print throttling rules: schedule
// based length limits and the weight based cooldown between prints.
//
// The evaluators are pure functions of their inputs plus an explicit
// "now"; callers inject the time so tests can pin it.
package policy

import (
	"fmt"
	"math"
	"time"
)

// cooldownMessage is shown when a user's previous print is too recent.
const cooldownMessage = "Your last print was too recent. Make sure you are using only 1 printer."

// TimeLimitRule bounds print length during part of the day. The rule
// is active while the fractional local hour (hour + minute/60) lies in
// the half-open range [StartHour, EndHour).
type TimeLimitRule struct {
	// PrintHoursLimit is the maximum allowed print length in hours.
	PrintHoursLimit float64 `yaml:"printHoursLimit"`

	// StartHour is the inclusive start of the active window.
	StartHour float64 `yaml:"startHour"`

	// EndHour is the exclusive end of the active window. Values of 24
	// or more make the rule's message unconditional ("All prints...")
	// rather than naming a cutoff time.
	EndHour float64 `yaml:"endHour"`
}

// Limit is an active print length limit.
type Limit struct {
	// PrintHoursLimit is the maximum allowed print length in hours.
	PrintHoursLimit float64

	// EndHour is when the limit stops applying.
	EndHour float64
}

// Evaluator applies an ordered rule list. Rules are checked in list
// order and the first active one wins.
type Evaluator struct {
	rules []TimeLimitRule
}

// NewEvaluator creates an evaluator over the given rules. The slice is
// used as ordered; callers list more specific windows first.
func NewEvaluator(rules []TimeLimitRule) *Evaluator {
	return &Evaluator{rules: rules}
}

// fractionalHour converts a wall time to the fractional hour the rules
// are expressed in.
func fractionalHour(now time.Time) float64 {
	return float64(now.Hour()) + float64(now.Minute())/60.0
}

// CurrentTimeLimit returns the limit active at now, if any.
func (evaluator *Evaluator) CurrentTimeLimit(now time.Time) (Limit, bool) {
	currentHour := fractionalHour(now)
	for _, rule := range evaluator.rules {
		if rule.StartHour <= currentHour && currentHour < rule.EndHour {
			return Limit{PrintHoursLimit: rule.PrintHoursLimit, EndHour: rule.EndHour}, true
		}
	}
	return Limit{}, false
}

// PrintLengthError returns the message to show when a print of
// printHours exceeds the limit active at now, or "" when no limit is
// active or the print fits within it.
func (evaluator *Evaluator) PrintLengthError(printHours float64, now time.Time) string {
	limit, active := evaluator.CurrentTimeLimit(now)
	if !active || printHours <= limit.PrintHoursLimit {
		return ""
	}

	hoursLimit := int(limit.PrintHoursLimit)
	endHour := int(limit.EndHour)
	formattedLimit := fmt.Sprintf("%d hour", hoursLimit)
	if hoursLimit != 1 {
		formattedLimit += "s"
	}

	if endHour >= 24 {
		return "All prints must be less than " + formattedLimit + ". Talk to a lab manager."
	}

	var formattedEnd string
	switch {
	case endHour == 12:
		formattedEnd = "12:00 PM"
	case endHour > 12:
		formattedEnd = fmt.Sprintf("%d:00 PM", endHour-12)
	default:
		formattedEnd = fmt.Sprintf("%d:00 AM", endHour)
	}
	return "Prints before " + formattedEnd + " must be less than " + formattedLimit + ". Talk to a lab manager."
}

// LastPrintTooRecentError returns the message to show when the user's
// previous print is still inside its cooldown at now, or "" when
// enough time has passed. A zero lastPrint time or a non-positive
// weight means there is nothing to cool down from.
//
// The cooldown is (ln(weightGrams)*8 + 8) minutes. Heavier prints
// imply longer machine occupancy, so the spacing grows with weight.
func (evaluator *Evaluator) LastPrintTooRecentError(lastPrint time.Time, weightGrams float64, now time.Time) string {
	if lastPrint.IsZero() || weightGrams <= 0 {
		return ""
	}
	requiredSeconds := ((math.Log(weightGrams) * 8) + 8) * 60
	elapsed := now.Sub(lastPrint).Seconds()
	if elapsed < requiredSeconds {
		return cooldownMessage
	}
	return ""
}
