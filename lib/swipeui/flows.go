// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package swipeui

import (
	"context"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/accounting"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/session"
)

// Messages shared by the verification flows.
const (
	messageAuthenticating   = "Authenticating. Please wait..."
	messageImporting        = "Importing data. Please wait..."
	messageImportingProfile = "Importing information. Please wait..."
	messageRetry            = "Error occurred. Try again."
	messageAuthAccepted     = "Authorization accepted."
	messageAuthFailed       = "Authorization failed."
	messageInfoFound        = "Information found."
	messageNoInfo           = "No information found."
	messageNoProfile        = "No user information found."
)

// AccountingService is the slice of the accounting client the swipe
// flows need.
type AccountingService interface {
	IsAuthorized(ctx context.Context, universityID string) (bool, error)
	LastPrintSummary(ctx context.Context, universityID string) (*accounting.Summary, error)
	DisplayName(ctx context.Context, universityID string) (string, bool, error)
}

// NewIdentityWindow captures a university ID with no verification.
// The DoneMsg payload is the identifier string.
func NewIdentityWindow(title string) Model {
	return NewModel(Config{Title: title})
}

// NewLabManagerWindow authenticates a lab manager swipe. The DoneMsg
// payload is the authorized identifier. A failed authorization keeps
// the window open for another swipe.
func NewLabManagerWindow(service AccountingService) Model {
	return NewModel(Config{
		Title:            "Authenticate",
		VerifyingMessage: messageAuthenticating,
		Verify: func(ctx context.Context, universityID string) Outcome {
			authorized, err := service.IsAuthorized(ctx, universityID)
			if err != nil {
				return Outcome{Message: messageRetry}
			}
			if !authorized {
				return Outcome{Message: messageAuthFailed}
			}
			return Outcome{Close: true, Message: messageAuthAccepted, Payload: universityID}
		},
	})
}

// NewImportWindow loads a user's export form data from a swipe. The
// DoneMsg payload is an accounting.Summary. An ID with no account
// closes the window as cancelled.
func NewImportWindow(service AccountingService) Model {
	return NewModel(Config{
		Title:            "Import",
		VerifyingMessage: messageImporting,
		Verify: func(ctx context.Context, universityID string) Outcome {
			summary, err := service.LastPrintSummary(ctx, universityID)
			if err != nil {
				return Outcome{Message: messageRetry}
			}
			if summary == nil {
				return Outcome{Close: true, Cancelled: true, Message: messageNoInfo}
			}
			return Outcome{Close: true, Message: messageInfoFound, Payload: *summary}
		},
	})
}

// NewJobModeWindow authenticates a lab worker for job mode and loads
// their profile. The DoneMsg payload is a session.User.
func NewJobModeWindow(service AccountingService) Model {
	return NewModel(Config{
		Title:            "Start Job Mode",
		VerifyingMessage: messageAuthenticating,
		Verify: func(ctx context.Context, universityID string) Outcome {
			authorized, err := service.IsAuthorized(ctx, universityID)
			if err != nil {
				return Outcome{Message: messageRetry}
			}
			if !authorized {
				return Outcome{Message: messageAuthFailed}
			}

			summary, err := service.LastPrintSummary(ctx, universityID)
			if err != nil {
				return Outcome{Message: messageRetry}
			}
			name, known, err := service.DisplayName(ctx, universityID)
			if err != nil {
				return Outcome{Message: messageRetry}
			}
			if summary == nil || !known {
				return Outcome{Message: messageNoProfile}
			}
			return Outcome{
				Close:   true,
				Message: messageAuthAccepted,
				Payload: session.User{Email: summary.Email, Name: name},
			}
		},
	})
}
