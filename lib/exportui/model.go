// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package exportui is the export window: the form a user fills in to
// pay for and export a sliced print.
//
// The window shows the print's figures, collects email, purpose, and
// billing number, and drives the submission workflow. Workflow
// callbacks arrive over an internal event channel that the model
// drains through its Init/Update loop, so every mutation happens on
// the bubbletea loop regardless of which goroutine produced it.
package exportui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/accounting"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/clock"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/labconfig"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/policy"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/session"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/submission"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/swipeui"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/workflow"
)

// placeholderPurpose is the unselected purpose entry.
const placeholderPurpose = "Please Select..."

// jobModePurpose is preselected when the window opens under an
// elevated session.
const jobModePurpose = "Job Mode"

// closeDelay keeps the final status visible before the window reports
// completion.
const closeDelay = 500 * time.Millisecond

// eventBuffer sizes the workflow event channel. Submission steps
// produce a handful of events each; the buffer just has to absorb a
// burst while the loop catches up.
const eventBuffer = 64

// AccountingService combines the accounting operations the window and
// its swipe overlays need. *accounting.Client satisfies it.
type AccountingService interface {
	submission.AccountingService
	swipeui.AccountingService
}

// CompletedMsg reports that the print was logged and the file should
// be exported to FileLocation. The program hosting the window handles
// the actual write and quits.
type CompletedMsg struct {
	FileLocation string
}

// ClosedMsg reports that the user cancelled the window.
type ClosedMsg struct{}

// Workflow event messages, produced by the view adapter and the
// dispatcher off the UI loop and drained through the event channel.
type (
	taskMsg           struct{ run func() }
	statusMsg         struct{ text string }
	errorMsg          struct{ text string }
	hideButtonsMsg    struct{}
	showButtonsMsg    struct{}
	extendPurposesMsg struct {
		purposes       []string
		resetSelection bool
	}
	paymentToggledMsg struct{ ignored bool }
	timeToggledMsg    struct{ ignored bool }
	completeMsg       struct{ fileLocation string }
	authPromptMsg     struct{ grant func() }
	closeTickMsg      struct{}
)

// focus targets, cycled with tab. The email and billing inputs only
// take part when they are editable/visible.
const (
	focusEmail = iota
	focusPurpose
	focusBilling
	focusImport
	focusCancel
	focusSubmit
	focusAdmin
	focusIgnorePayment
	focusIgnoreTime
	focusCount
)

// Config holds configuration for creating an export window.
type Config struct {
	// Record is the print being exported. Required.
	Record submission.Record

	// Accounting talks to the accounting service. Required.
	Accounting AccountingService

	// LabConfig is the loaded lab configuration. Required.
	LabConfig labconfig.Config

	// Session is the elevated job-mode session. Optional.
	Session *session.Session

	// Clock provides time operations. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// WriteProbe overrides the export location writability check.
	// Tests inject this; production uses the submitter's default.
	WriteProbe func(location string) error
}

// Model is the export window.
type Model struct {
	record    submission.Record
	service   AccountingService
	labConfig labconfig.Config
	session   *session.Session
	submitter *submission.Submitter

	events chan tea.Msg

	emailInput   textinput.Model
	billingInput textinput.Model
	purposes     []string
	purposeIndex int
	focus        int

	adminVisible   bool
	buttonsHidden  bool
	paymentIgnored bool
	timeIgnored    bool
	statusLine     string
	statusIsError  bool
	closing        bool

	overlay      *swipeui.Model
	pendingGrant func()
}

// channelView adapts the event channel to submission.View. Safe from
// any goroutine.
type channelView struct {
	events chan<- tea.Msg
}

func (view channelView) SetStatus(message string) { view.events <- statusMsg{text: message} }
func (view channelView) SetError(message string)  { view.events <- errorMsg{text: message} }
func (view channelView) HideButtons()             { view.events <- hideButtonsMsg{} }
func (view channelView) ShowButtons()             { view.events <- showButtonsMsg{} }

func (view channelView) ExtendPurposes(purposes []string, resetSelection bool) {
	view.events <- extendPurposesMsg{purposes: purposes, resetSelection: resetSelection}
}

func (view channelView) PaymentIgnoredChanged(ignored bool) {
	view.events <- paymentToggledMsg{ignored: ignored}
}

func (view channelView) TimeIgnoredChanged(ignored bool) {
	view.events <- timeToggledMsg{ignored: ignored}
}

func (view channelView) Complete(fileLocation string) {
	view.events <- completeMsg{fileLocation: fileLocation}
}

// channelAuthorizer routes lab-manager authorization prompts through
// the event channel so the window can open its swipe overlay.
type channelAuthorizer struct {
	events chan<- tea.Msg
}

func (authorizer channelAuthorizer) RequestAuthorization(onAuthorized func()) {
	authorizer.events <- authPromptMsg{grant: onAuthorized}
}

// NewModel creates an export window for one print.
func NewModel(config Config) Model {
	events := make(chan tea.Msg, eventBuffer)
	dispatcher := workflow.DispatchFunc(func(task func()) {
		events <- taskMsg{run: task}
	})

	submitter := submission.NewSubmitter(submission.Config{
		Record:                 config.Record,
		Accounting:             config.Accounting,
		Policy:                 policy.NewEvaluator(config.LabConfig.TimeLimits),
		View:                   channelView{events: events},
		Dispatcher:             dispatcher,
		Authorizer:             channelAuthorizer{events: events},
		Session:                config.Session,
		IgnoredPaymentPurposes: config.LabConfig.IgnoredPaymentPurposes,
		ResetPurposeOnIgnore:   config.LabConfig.ResetPurposeOnIgnore,
		ReimbursedPurpose:      config.LabConfig.ReimbursedPurpose,
		WriteProbe:             config.WriteProbe,
		Clock:                  config.Clock,
		Logger:                 config.Logger,
	})

	emailInput := textinput.New()
	emailInput.Placeholder = "username"
	emailInput.Width = 30
	billingInput := textinput.New()
	billingInput.Placeholder = "P#####"
	billingInput.Width = 12

	model := Model{
		record:    config.Record,
		service:   config.Accounting,
		labConfig: config.LabConfig,
		session:   config.Session,
		submitter: submitter,
		events:    events,

		emailInput:   emailInput,
		billingInput: billingInput,
		purposes:     append([]string{placeholderPurpose}, config.LabConfig.NormalPurposes...),
		focus:        focusImport,
		statusLine:   "",
	}
	if config.LabConfig.DisableManualEmailEntry && activeUser(config.Session) == nil {
		// The field fills only via Import Information.
		model.focus = focusImport
	} else {
		model.focus = focusEmail
		model.emailInput.Focus()
	}

	if user := activeUser(config.Session); user != nil {
		// Job mode: overrides on, email and purpose preset.
		submitter.RequestIgnorePayment()
		submitter.RequestIgnoreTime()
		model.emailInput.SetValue(user.Email)
		events <- statusMsg{text: "Job mode defaults set."}
	}
	return model
}

func activeUser(labSession *session.Session) *session.User {
	if labSession == nil {
		return nil
	}
	return labSession.Active()
}

// Submitter exposes the submission workflow, mainly for tests.
func (model Model) Submitter() *submission.Submitter {
	return model.submitter
}

// listen re-arms the event channel drain.
func (model Model) listen() tea.Cmd {
	events := model.events
	return func() tea.Msg { return <-events }
}

func (model Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, model.listen())
}

func (model Model) Update(message tea.Msg) (Model, tea.Cmd) {
	// An open swipe overlay captures everything except workflow
	// events and its own terminal messages.
	if model.overlay != nil {
		switch message := message.(type) {
		case swipeui.DoneMsg:
			model.overlay = nil
			return model.overlayDone(message.Payload)
		case swipeui.CancelledMsg:
			model.overlay = nil
			model.pendingGrant = nil
			return model, nil
		}
		if isWorkflowEvent(message) {
			return model.handleEvent(message)
		}
		overlay, cmd := model.overlay.Update(message)
		model.overlay = &overlay
		return model, cmd
	}

	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)
	case closeTickMsg:
		return model, emit(CompletedMsg{FileLocation: model.record.FileLocation})
	}
	if isWorkflowEvent(message) {
		return model.handleEvent(message)
	}
	return model.updateFocusedInput(message)
}

func isWorkflowEvent(message tea.Msg) bool {
	switch message.(type) {
	case taskMsg, statusMsg, errorMsg, hideButtonsMsg, showButtonsMsg,
		extendPurposesMsg, paymentToggledMsg, timeToggledMsg,
		completeMsg, authPromptMsg:
		return true
	}
	return false
}

// handleEvent applies one workflow event and re-arms the drain.
func (model Model) handleEvent(message tea.Msg) (Model, tea.Cmd) {
	switch message := message.(type) {
	case taskMsg:
		message.run()

	case statusMsg:
		model.statusLine = message.text
		model.statusIsError = false

	case errorMsg:
		model.statusLine = message.text
		model.statusIsError = true

	case hideButtonsMsg:
		model.buttonsHidden = true

	case showButtonsMsg:
		model.buttonsHidden = false

	case extendPurposesMsg:
		model.purposes = append(model.purposes, message.purposes...)
		if message.resetSelection {
			model.purposeIndex = 0
		}
		// Under job mode the preset purpose arrives with this
		// extension.
		if activeUser(model.session) != nil {
			model.selectPurpose(jobModePurpose)
		}

	case paymentToggledMsg:
		model.paymentIgnored = message.ignored

	case timeToggledMsg:
		model.timeIgnored = message.ignored

	case completeMsg:
		model.closing = true
		return model, tea.Batch(
			tea.Tick(closeDelay, func(time.Time) tea.Msg { return closeTickMsg{} }),
			model.listen(),
		)

	case authPromptMsg:
		overlay := swipeui.NewLabManagerWindow(model.service)
		model.overlay = &overlay
		model.pendingGrant = message.grant
		return model, tea.Batch(overlay.Init(), model.listen())
	}
	return model, model.listen()
}

// overlayDone routes a finished swipe overlay's payload.
func (model Model) overlayDone(payload any) (Model, tea.Cmd) {
	switch payload := payload.(type) {
	case string:
		// Lab manager authorization for an override.
		if model.pendingGrant != nil {
			grant := model.pendingGrant
			model.pendingGrant = nil
			grant()
		}
	default:
		return model.importSummary(payload)
	}
	return model, nil
}

func (model *Model) selectPurpose(purpose string) {
	for index, candidate := range model.purposes {
		if candidate == purpose {
			model.purposeIndex = index
			return
		}
	}
}

func emit(message tea.Msg) tea.Cmd {
	return func() tea.Msg { return message }
}

// handleKey processes keyboard input for the form.
func (model Model) handleKey(message tea.KeyMsg) (Model, tea.Cmd) {
	if model.closing {
		return model, nil
	}

	switch message.String() {
	case "ctrl+c", "esc":
		return model, emit(ClosedMsg{})

	case "tab":
		model.cycleFocus(1)
		return model, nil

	case "shift+tab":
		model.cycleFocus(-1)
		return model, nil

	case "left", "right":
		if model.focus == focusPurpose {
			model.movePurpose(message.String() == "right")
			return model, nil
		}

	case "enter":
		return model.activateFocused()
	}
	return model.updateFocusedInput(message)
}

// activateFocused triggers the focused button.
func (model Model) activateFocused() (Model, tea.Cmd) {
	if model.buttonsHidden {
		return model, nil
	}
	switch model.focus {
	case focusImport:
		overlay := swipeui.NewImportWindow(model.service)
		model.overlay = &overlay
		return model, overlay.Init()

	case focusCancel:
		return model, emit(ClosedMsg{})

	case focusSubmit:
		model.submitter.Submit(model.emailInput.Value(), model.selectedPurpose(), model.billingInput.Value())
		return model, nil

	case focusAdmin:
		model.adminVisible = true
		model.focus = focusIgnorePayment
		return model, nil

	case focusIgnorePayment:
		model.submitter.RequestIgnorePayment()
		return model, nil

	case focusIgnoreTime:
		model.submitter.RequestIgnoreTime()
		return model, nil
	}
	return model, nil
}

// selectedPurpose returns the chosen purpose, or "" for the
// placeholder.
func (model Model) selectedPurpose() string {
	if model.purposeIndex == 0 || model.purposeIndex >= len(model.purposes) {
		return ""
	}
	return model.purposes[model.purposeIndex]
}

// billingVisible reports whether the billing number field applies to
// the selected purpose.
func (model Model) billingVisible() bool {
	return model.selectedPurpose() == model.labConfig.ReimbursedPurpose
}

// emailEditable reports whether the email field takes typed input.
func (model Model) emailEditable() bool {
	return !model.labConfig.DisableManualEmailEntry
}

// focusTargets returns the cyclable targets in display order.
func (model Model) focusTargets() []int {
	targets := []int{focusImport}
	if model.emailEditable() {
		targets = append(targets, focusEmail)
	}
	targets = append(targets, focusPurpose)
	if model.billingVisible() {
		targets = append(targets, focusBilling)
	}
	if !model.buttonsHidden {
		targets = append(targets, focusCancel, focusSubmit)
		if model.adminVisible {
			targets = append(targets, focusIgnorePayment, focusIgnoreTime)
		} else {
			targets = append(targets, focusAdmin)
		}
	}
	return targets
}

func (model *Model) cycleFocus(direction int) {
	targets := model.focusTargets()
	position := 0
	for index, target := range targets {
		if target == model.focus {
			position = index
			break
		}
	}
	position = (position + direction + len(targets)) % len(targets)
	model.setFocus(targets[position])
}

func (model *Model) setFocus(target int) {
	model.focus = target
	if target == focusEmail {
		model.emailInput.Focus()
	} else {
		model.emailInput.Blur()
	}
	if target == focusBilling {
		model.billingInput.Focus()
	} else {
		model.billingInput.Blur()
	}
}

func (model *Model) movePurpose(forward bool) {
	if forward {
		model.purposeIndex = (model.purposeIndex + 1) % len(model.purposes)
	} else {
		model.purposeIndex = (model.purposeIndex - 1 + len(model.purposes)) % len(model.purposes)
	}
}

// updateFocusedInput routes remaining messages to the focused text
// input.
func (model Model) updateFocusedInput(message tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch model.focus {
	case focusEmail:
		if model.emailEditable() {
			model.emailInput, cmd = model.emailInput.Update(message)
		}
	case focusBilling:
		model.billingInput, cmd = model.billingInput.Update(message)
	}
	return model, cmd
}

// importSummary prefills the form from a swiped account summary.
func (model Model) importSummary(payload any) (Model, tea.Cmd) {
	summary, isSummary := payload.(accounting.Summary)
	if !isSummary {
		return model, nil
	}
	model.emailInput.SetValue(summary.Email)
	if summary.LastPurpose != "" {
		model.selectPurpose(summary.LastPurpose)
	}
	if summary.LastBillingNumber != "" {
		model.billingInput.SetValue(summary.LastBillingNumber)
	}
	return model, nil
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	statusStyle  = lipgloss.NewStyle().Bold(true)
	buttonStyle  = lipgloss.NewStyle().Padding(0, 1)
	focusedStyle = lipgloss.NewStyle().Padding(0, 1).Reverse(true)
)

// button renders one labeled button, highlighted when focused.
func (model Model) button(target int, label string) string {
	if model.focus == target {
		return focusedStyle.Render("[ " + label + " ]")
	}
	return buttonStyle.Render("[ " + label + " ]")
}

func (model Model) View() string {
	if model.overlay != nil {
		return model.overlay.View()
	}

	cost := model.record.FormattedCost()
	if model.paymentIgnored {
		cost = "$0.00 (Payment ignored)"
	}

	view := headerStyle.Render("File name: "+model.record.FileName) + "\n"
	view += headerStyle.Render("Print weight: "+model.record.FormattedWeight()) + "\n"
	view += headerStyle.Render("Print material: "+model.record.Material) + "\n"
	view += headerStyle.Render("Expected cost: "+cost) + "\n\n"

	view += headerStyle.Render("Already swiped in the main lab?") + "\n"
	view += model.button(focusImport, "Import Information") + "\n\n"

	view += headerStyle.Render("RIT Username/Email?") + "\n"
	if model.emailEditable() {
		view += model.emailInput.View() + "\n"
	} else {
		view += model.emailInput.Value() + "\n"
	}

	view += headerStyle.Render("Print Purpose?") + "\n"
	purposeLine := "< " + model.purposes[model.purposeIndex] + " >"
	if model.focus == focusPurpose {
		purposeLine = focusedStyle.Render(purposeLine)
	}
	view += purposeLine + "\n"

	if model.billingVisible() {
		view += headerStyle.Render("Billing Number (if any)? (P#####)") + "\n"
		view += model.billingInput.View() + "\n"
	}

	view += "\n"
	if model.statusLine != "" {
		if model.statusIsError {
			view += errorStyle.Render(model.statusLine) + "\n"
		} else {
			view += statusStyle.Render(model.statusLine) + "\n"
		}
	}

	if !model.buttonsHidden {
		view += model.button(focusCancel, "Cancel") + " " + model.button(focusSubmit, "Submit") + "\n"
		if model.adminVisible {
			paymentLabel := "Ignore Payment"
			if model.paymentIgnored {
				paymentLabel = "Unignore Payment"
			}
			timeLabel := "Ignore Time"
			if model.timeIgnored {
				timeLabel = "Unignore Time"
			}
			view += model.button(focusIgnorePayment, paymentLabel) + " " + model.button(focusIgnoreTime, timeLabel) + "\n"
		} else {
			view += model.button(focusAdmin, "Administrate") + "\n"
		}
	}
	return view
}
