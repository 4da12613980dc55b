// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package accounting

import "time"

// LastPrint is a user's most recent logged print.
type LastPrint struct {
	// Timestamp is when the print was logged.
	Timestamp time.Time

	// WeightGrams is the logged material weight.
	WeightGrams float64
}

// Summary is the information imported into the export window when a
// user swipes: their email plus whatever their last print recorded.
type Summary struct {
	// Email is the account's registered email.
	Email string

	// LastPurpose is the purpose of the most recent print, if any.
	LastPurpose string

	// LastBillingNumber is the billing number of the most recent
	// print, if any.
	LastBillingNumber string
}

// LogPrintRequest describes one print to record with the accounting
// service.
type LogPrintRequest struct {
	// Email is the registered email of the user exporting the print.
	Email string

	// FileName is the exported file's name (already truncated to the
	// machine's limit).
	FileName string

	// Material is the material name.
	Material string

	// WeightGrams is the print weight.
	WeightGrams float64

	// Purpose is the selected print purpose.
	Purpose string

	// BillingNumber is sent only when Purpose is the reimbursed
	// project purpose; otherwise the wire field is null.
	BillingNumber string

	// PaymentOwed is false when a lab manager ignored the payment.
	PaymentOwed bool
}

// userResponse is the wire shape of GET /user/get.
type userResponse struct {
	Permissions []string `json:"permissions"`
	Email       *string  `json:"email"`
	Name        *string  `json:"name"`
}

// findResponse is the wire shape of GET /user/find.
type findResponse struct {
	HashedID *string `json:"hashedId"`
}

// lastPrintResponse is the wire shape of GET /print/last.
type lastPrintResponse struct {
	TimeStamp *float64 `json:"timeStamp"`
	Weight    *float64 `json:"weight"`
	Purpose   *string  `json:"purpose"`
	BillTo    *string  `json:"billTo"`
}

// addPrintRequest is the wire shape of the POST /print/add body.
type addPrintRequest struct {
	HashedID string  `json:"hashedId"`
	FileName string  `json:"fileName"`
	Material string  `json:"material"`
	Weight   float64 `json:"weight"`
	Purpose  string  `json:"purpose"`
	BillTo   *string `json:"billTo"`
	Owed     bool    `json:"owed"`
}

// addPrintResponse is the wire shape of the POST /print/add response.
type addPrintResponse struct {
	Status string `json:"status"`
}
