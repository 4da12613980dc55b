// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package submission runs the print export workflow: validate the
// export form, probe the environment and the user's standing, then log
// the print and hand the file off for export.
//
// The probe sequence runs on the workflow engine so the export window
// stays responsive while the accounting service is consulted. Every
// probe reports back on the UI loop; a failed probe restores the
// window's buttons, shows the specific error, and stops the chain.
package submission

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/accounting"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/clock"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/identity"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/policy"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/session"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/workflow"
)

// Messages shown by the export workflow. The transport/protocol split
// mirrors the accounting client's error taxonomy.
const (
	messageWriteLocked        = "Can't write file. Is the slider on the SD card set to be locked?"
	messageNotRegistered      = "Your email isn't registered. Please swipe in the main lab to continue."
	messageInvalidEmail       = "Email is invalid."
	messageNoPurpose          = "Select a print purpose."
	messageInvalidBilling     = "Billing number is invalid."
	messageLogging            = "Logging print..."
	messageAccepted           = "Print accepted. Exporting print."
	messagePaymentOwed        = "Payment will be owed."
	messagePaymentIgnored     = "Payment will not be owed."
	messageTimeRestored       = "Time no longer ignored."
	messageLongPrintApproved  = "Long print authorized."
	messageNotRecorded        = "An error occurred logging print. (Print was not recorded)"
	registrationCheckFailure  = "An error occurred checking if you are registered."
	throttleCheckFailure      = "An error occurred checking your last print."
	loggingFailure            = "An error occurred logging print."
	transportFailureSuffix    = " (Server can't be reached)"
	protocolFailureSuffix     = " (Internal server error)"
	defaultNetworkStepTimeout = 15 * time.Second
)

// AccountingService is the slice of the accounting client the
// workflow needs.
type AccountingService interface {
	FindIdentifierHash(ctx context.Context, email string) (string, bool, error)
	LastPrint(ctx context.Context, email string) (*accounting.LastPrint, error)
	LogPrint(ctx context.Context, request accounting.LogPrintRequest) (bool, error)
}

// View is the export window surface the workflow drives. All methods
// must be safe to call from any goroutine; the window marshals onto
// its own loop.
type View interface {
	// SetStatus shows a neutral progress message.
	SetStatus(message string)

	// SetError shows an error message.
	SetError(message string)

	// HideButtons disables the form while a submission is in flight.
	HideButtons()

	// ShowButtons restores the form after a failed submission.
	ShowButtons()

	// ExtendPurposes appends purposes to the purpose selector, and
	// optionally resets the current selection to the placeholder.
	ExtendPurposes(purposes []string, resetSelection bool)

	// PaymentIgnoredChanged reflects the payment override state.
	PaymentIgnoredChanged(ignored bool)

	// TimeIgnoredChanged reflects the time override state.
	TimeIgnoredChanged(ignored bool)

	// Complete hands the file off for export. Called at most once per
	// submission, only after the print was logged.
	Complete(fileLocation string)
}

// Authorizer gates override toggles behind a lab manager approval.
// Implementations prompt for a swipe and call onAuthorized if it
// checks out; a declined or cancelled prompt simply never calls it.
type Authorizer interface {
	RequestAuthorization(onAuthorized func())
}

// Config holds configuration for creating a Submitter.
type Config struct {
	// Record is the print being exported. Required.
	Record Record

	// Accounting talks to the accounting service. Required.
	Accounting AccountingService

	// Policy evaluates throttling rules. Required.
	Policy *policy.Evaluator

	// View is the export window. Required.
	View View

	// Dispatcher marshals UI-bound steps onto the window's loop.
	// Required.
	Dispatcher workflow.Dispatcher

	// Authorizer gates the override toggles. Required.
	Authorizer Authorizer

	// Session is the elevated job-mode session; an active session
	// bypasses the Authorizer. Optional.
	Session *session.Session

	// IgnoredPaymentPurposes are appended to the purpose selector the
	// first time payment is ignored.
	IgnoredPaymentPurposes []string

	// ResetPurposeOnIgnore resets the purpose selection when the
	// extra purposes are added.
	ResetPurposeOnIgnore bool

	// ReimbursedPurpose is the purpose that carries a billing number.
	ReimbursedPurpose string

	// WriteProbe checks that the export location is writable.
	// Defaults to creating and closing the file.
	WriteProbe func(location string) error

	// Clock provides time operations. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Submitter owns one export window's submission workflow and override
// state.
type Submitter struct {
	record     Record
	accounting AccountingService
	policy     *policy.Evaluator
	view       View
	dispatcher workflow.Dispatcher
	authorizer Authorizer
	session    *session.Session
	clock      clock.Clock
	logger     *slog.Logger
	writeProbe func(string) error

	ignoredPaymentPurposes []string
	resetPurposeOnIgnore   bool
	reimbursedPurpose      string

	chain *workflow.Chain

	mu               sync.Mutex
	ignorePayment    bool
	ignoreTime       bool
	purposesExtended bool
	current          submitInput
}

// submitInput is the validated form state for one submission.
type submitInput struct {
	email         string
	purpose       string
	billingNumber string
}

// NewSubmitter creates the workflow for one export window. The probe
// chain is composed here, once; Submit starts a fresh traversal each
// time.
func NewSubmitter(config Config) *Submitter {
	submitter := &Submitter{
		record:                 config.Record,
		accounting:             config.Accounting,
		policy:                 config.Policy,
		view:                   config.View,
		dispatcher:             config.Dispatcher,
		authorizer:             config.Authorizer,
		session:                config.Session,
		clock:                  config.Clock,
		logger:                 config.Logger,
		writeProbe:             config.WriteProbe,
		ignoredPaymentPurposes: config.IgnoredPaymentPurposes,
		resetPurposeOnIgnore:   config.ResetPurposeOnIgnore,
		reimbursedPurpose:      config.ReimbursedPurpose,
	}
	if submitter.clock == nil {
		submitter.clock = clock.Real()
	}
	if submitter.logger == nil {
		submitter.logger = slog.Default()
	}
	if submitter.writeProbe == nil {
		submitter.writeProbe = func(location string) error {
			file, err := os.Create(location)
			if err != nil {
				return err
			}
			return file.Close()
		}
	}

	submitter.chain = workflow.NewChain(
		workflow.Do(submitter.checkWrite),
		workflow.OnUI(submitter.writeChecked),
		workflow.Do(submitter.checkRegistration),
		workflow.OnUI(submitter.registrationChecked),
		workflow.Do(submitter.checkThrottle),
		workflow.OnUI(submitter.throttleChecked),
		workflow.Do(submitter.logPrint),
		workflow.OnUI(submitter.completeExport),
	)
	return submitter
}

// Record returns the print being exported.
func (submitter *Submitter) Record() Record {
	return submitter.record
}

// PaymentIgnored reports whether the payment override is on.
func (submitter *Submitter) PaymentIgnored() bool {
	submitter.mu.Lock()
	defer submitter.mu.Unlock()
	return submitter.ignorePayment
}

// TimeIgnored reports whether the time override is on.
func (submitter *Submitter) TimeIgnored() bool {
	submitter.mu.Lock()
	defer submitter.mu.Unlock()
	return submitter.ignoreTime
}

// Submit validates the form and, if it checks out, disables the form
// and starts the probe chain. Validation failures surface as inline
// errors and the chain does not start. Call from the UI loop.
func (submitter *Submitter) Submit(emailRaw, purpose, billingRaw string) {
	if !submitter.TimeIgnored() {
		if message := submitter.policy.PrintLengthError(submitter.record.DurationHours, submitter.clock.Now()); message != "" {
			submitter.view.SetError(message)
			return
		}
	}

	email, validEmail := identity.NormalizeEmail(emailRaw)
	if !validEmail {
		submitter.view.SetError(messageInvalidEmail)
		return
	}
	if purpose == "" {
		submitter.view.SetError(messageNoPurpose)
		return
	}
	billingNumber, validBilling := ValidateBillingNumber(billingRaw)
	if !validBilling {
		submitter.view.SetError(messageInvalidBilling)
		return
	}

	submitter.mu.Lock()
	submitter.current = submitInput{
		email:         email,
		purpose:       purpose,
		billingNumber: billingNumber,
	}
	submitter.mu.Unlock()

	submitter.view.HideButtons()
	submitter.chain.Start(submitter.dispatcher)
}

// input returns the submission currently in flight.
func (submitter *Submitter) input() submitInput {
	submitter.mu.Lock()
	defer submitter.mu.Unlock()
	return submitter.current
}

// networkContext bounds a network probe.
func networkContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultNetworkStepTimeout)
}

// serviceFailure phrases a probe failure according to the accounting
// error taxonomy.
func serviceFailure(prefix string, err error) string {
	if accounting.IsTransport(err) {
		return prefix + transportFailureSuffix
	}
	return prefix + protocolFailureSuffix
}

// checkWrite probes the export location for writability.
func (submitter *Submitter) checkWrite(cursor *workflow.Cursor, args ...any) {
	err := submitter.writeProbe(submitter.record.FileLocation)
	cursor.Next(err == nil)
}

func (submitter *Submitter) writeChecked(cursor *workflow.Cursor, args ...any) {
	if writable := args[0].(bool); !writable {
		submitter.view.ShowButtons()
		submitter.view.SetError(messageWriteLocked)
		return
	}
	cursor.Next()
}

// checkRegistration verifies the email belongs to a registered
// account.
func (submitter *Submitter) checkRegistration(cursor *workflow.Cursor, args ...any) {
	ctx, cancel := networkContext()
	defer cancel()

	_, registered, err := submitter.accounting.FindIdentifierHash(ctx, submitter.input().email)
	if err != nil {
		cursor.Next(false, serviceFailure(registrationCheckFailure, err))
		return
	}
	if !registered {
		cursor.Next(false, messageNotRegistered)
		return
	}
	cursor.Next(true, "")
}

func (submitter *Submitter) registrationChecked(cursor *workflow.Cursor, args ...any) {
	if valid := args[0].(bool); !valid {
		submitter.view.ShowButtons()
		submitter.view.SetError(args[1].(string))
		return
	}
	cursor.Next()
}

// checkThrottle verifies the user's previous print has cooled down.
// Skipped entirely when the time override is on.
func (submitter *Submitter) checkThrottle(cursor *workflow.Cursor, args ...any) {
	if submitter.TimeIgnored() {
		cursor.Next(true, "")
		return
	}

	ctx, cancel := networkContext()
	defer cancel()

	lastPrint, err := submitter.accounting.LastPrint(ctx, submitter.input().email)
	if err != nil {
		cursor.Next(false, serviceFailure(throttleCheckFailure, err))
		return
	}
	if lastPrint != nil {
		message := submitter.policy.LastPrintTooRecentError(
			lastPrint.Timestamp, lastPrint.WeightGrams, submitter.clock.Now())
		if message != "" {
			cursor.Next(false, message)
			return
		}
	}
	cursor.Next(true, "")
}

func (submitter *Submitter) throttleChecked(cursor *workflow.Cursor, args ...any) {
	if valid := args[0].(bool); !valid {
		submitter.view.ShowButtons()
		submitter.view.SetError(args[1].(string))
		return
	}
	cursor.Next()
}

// logPrint records the print with the accounting service. Only a
// logged print is exported.
func (submitter *Submitter) logPrint(cursor *workflow.Cursor, args ...any) {
	submitter.view.SetStatus(messageLogging)

	ctx, cancel := networkContext()
	defer cancel()

	input := submitter.input()
	logged, err := submitter.accounting.LogPrint(ctx, accounting.LogPrintRequest{
		Email:         input.email,
		FileName:      submitter.record.FileName,
		Material:      submitter.record.Material,
		WeightGrams:   float64(submitter.record.WeightGrams),
		Purpose:       input.purpose,
		BillingNumber: input.billingNumber,
		PaymentOwed:   !submitter.PaymentIgnored(),
	})
	if err != nil {
		submitter.logger.Error("logging print failed", "file", submitter.record.FileName, "error", err)
		submitter.view.ShowButtons()
		submitter.view.SetError(serviceFailure(loggingFailure, err))
		return
	}
	if !logged {
		submitter.logger.Error("print not recorded", "file", submitter.record.FileName)
		submitter.view.ShowButtons()
		submitter.view.SetError(messageNotRecorded)
		return
	}
	submitter.view.SetStatus(messageAccepted)
	cursor.Next()
}

func (submitter *Submitter) completeExport(cursor *workflow.Cursor, args ...any) {
	submitter.view.Complete(submitter.record.FileLocation)
}

// RequestIgnorePayment toggles the payment override. Turning it off is
// immediate; turning it on requires an active elevated session or a
// lab manager authorization. Call from the UI loop.
func (submitter *Submitter) RequestIgnorePayment() {
	submitter.mu.Lock()
	ignored := submitter.ignorePayment
	if ignored {
		submitter.ignorePayment = false
	}
	submitter.mu.Unlock()

	if ignored {
		submitter.view.PaymentIgnoredChanged(false)
		submitter.view.SetStatus(messagePaymentOwed)
		return
	}
	submitter.authorize(submitter.setPaymentIgnored)
}

// setPaymentIgnored applies an approved payment override. The extra
// purposes are added only on the first approval; toggling later does
// not add them again.
func (submitter *Submitter) setPaymentIgnored() {
	submitter.mu.Lock()
	extendPurposes := !submitter.purposesExtended
	submitter.purposesExtended = true
	submitter.ignorePayment = true
	submitter.mu.Unlock()

	if extendPurposes {
		submitter.view.ExtendPurposes(submitter.ignoredPaymentPurposes, submitter.resetPurposeOnIgnore)
	}
	submitter.view.PaymentIgnoredChanged(true)
	submitter.view.SetStatus(messagePaymentIgnored)
}

// RequestIgnoreTime toggles the time override. Turning it off is
// immediate; turning it on requires an active elevated session or a
// lab manager authorization. Call from the UI loop.
func (submitter *Submitter) RequestIgnoreTime() {
	submitter.mu.Lock()
	ignored := submitter.ignoreTime
	if ignored {
		submitter.ignoreTime = false
	}
	submitter.mu.Unlock()

	if ignored {
		submitter.view.TimeIgnoredChanged(false)
		submitter.view.SetStatus(messageTimeRestored)
		return
	}
	submitter.authorize(submitter.setTimeIgnored)
}

func (submitter *Submitter) setTimeIgnored() {
	submitter.mu.Lock()
	submitter.ignoreTime = true
	submitter.mu.Unlock()

	submitter.view.TimeIgnoredChanged(true)
	submitter.view.SetStatus(messageLongPrintApproved)
}

// authorize runs grant immediately under an elevated session,
// otherwise routes it through the lab manager gate. The grant lands
// back on the UI loop either way.
func (submitter *Submitter) authorize(grant func()) {
	if submitter.session != nil && submitter.session.Active() != nil {
		grant()
		return
	}
	submitter.authorizer.RequestAuthorization(func() {
		submitter.dispatcher.Dispatch(grant)
	})
}
