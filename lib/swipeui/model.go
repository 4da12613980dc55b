// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package swipeui is the university ID capture window: a bubbletea
// model that reads card swipes in its default mode and typed IDs in
// manual mode.
//
// The model is embedded by a parent model (or run standalone by a
// command). It reports through messages: [DoneMsg] once an identifier
// is captured and verified, [CancelledMsg] when the window is
// dismissed or loses focus mid-swipe. The parent decides whether to
// quit or to remove the overlay.
package swipeui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/clock"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/identity"
)

// closeDelay keeps the final message visible before the window
// reports its result.
const closeDelay = 500 * time.Millisecond

// focusPollDelay is when the model checks whether a focus loss turned
// into a cancellation. Slightly past the reader's own debounce.
const focusPollDelay = 300 * time.Millisecond

// Prompts for the two input modes.
const (
	swipePrompt  = "Swipe your university id."
	manualPrompt = "Enter your university id."
)

// Outcome is a verifier's judgement of a captured identifier.
type Outcome struct {
	// Close closes the window after showing Message. When false the
	// window shows Message and keeps listening for another swipe.
	Close bool

	// Cancelled marks a closing window as cancelled rather than
	// successful (e.g. no data found for the ID).
	Cancelled bool

	// Message is shown on the window's label.
	Message string

	// Payload is delivered in the DoneMsg on success.
	Payload any
}

// Verifier checks a captured university ID, usually against the
// accounting service. Runs off the UI loop.
type Verifier func(ctx context.Context, universityID string) Outcome

// DoneMsg reports a successful capture. Payload is the identifier for
// a plain window, or whatever the verifier produced.
type DoneMsg struct {
	Payload any
}

// CancelledMsg reports that the window was dismissed without a
// capture.
type CancelledMsg struct{}

// verifiedMsg carries a verifier's outcome back onto the UI loop.
type verifiedMsg struct {
	outcome Outcome
}

// closeTickMsg fires after closeDelay to finish a closing window.
type closeTickMsg struct{}

// focusPollMsg fires after a focus loss to see if the reader
// cancelled itself.
type focusPollMsg struct{}

// Config holds configuration for creating a swipe window Model.
type Config struct {
	// Title is the window title (e.g. "Authenticate").
	Title string

	// VerifyingMessage is shown while the Verifier runs.
	VerifyingMessage string

	// Verify checks captured IDs. Nil means the window emits the raw
	// identifier without verification.
	Verify Verifier

	// Clock provides time operations. Defaults to clock.Real().
	Clock clock.Clock
}

// Model is the swipe window.
type Model struct {
	title            string
	verifyingMessage string
	verify           Verifier
	clock            clock.Clock

	reader *identity.Reader
	input  textinput.Model

	label         string
	verifying     bool
	closing       bool
	cancelOnClose bool
	payload       any
}

// NewModel creates a swipe window model.
func NewModel(config Config) Model {
	windowClock := config.Clock
	if windowClock == nil {
		windowClock = clock.Real()
	}

	input := textinput.New()
	input.Placeholder = "000000000"
	input.CharLimit = identity.IdentifierLength
	input.Width = 12

	return Model{
		title:            config.Title,
		verifyingMessage: config.VerifyingMessage,
		verify:           config.Verify,
		clock:            windowClock,
		reader:           identity.NewReader(identity.Config{Clock: windowClock}),
		input:            input,
		label:            swipePrompt,
	}
}

// Reader exposes the underlying identity reader for tests and parent
// models.
func (model Model) Reader() *identity.Reader {
	return model.reader
}

func (model Model) Init() tea.Cmd {
	return textinput.Blink
}

func (model Model) Update(message tea.Msg) (Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.BlurMsg:
		// A focus loss cancels a swipe-mode window, debounced so a
		// mode switch does not tear the window down. The poll runs on
		// the injected clock, like the reader's own debounce.
		model.reader.FocusLost()
		pollClock := model.clock
		return model, func() tea.Msg {
			<-pollClock.After(focusPollDelay)
			return focusPollMsg{}
		}

	case focusPollMsg:
		if model.reader.Cancelled() && !model.closing {
			return model, emit(CancelledMsg{})
		}
		return model, nil

	case verifiedMsg:
		return model.handleVerified(message.outcome)

	case closeTickMsg:
		if model.cancelOnClose {
			return model, emit(CancelledMsg{})
		}
		return model, emit(DoneMsg{Payload: model.payload})
	}

	if model.reader.Mode() == identity.ModeManual && !model.verifying {
		var cmd tea.Cmd
		model.input, cmd = model.input.Update(message)
		return model, cmd
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (Model, tea.Cmd) {
	switch message.String() {
	case "esc", "ctrl+c":
		if model.reader.Cancel() {
			return model, emit(CancelledMsg{})
		}
		return model, nil

	case "tab":
		if model.verifying || model.closing {
			return model, nil
		}
		switch model.reader.ToggleMode() {
		case identity.ModeManual:
			model.label = manualPrompt
			model.input.Focus()
		case identity.ModeSwipe:
			model.label = swipePrompt
			model.input.Blur()
		}
		return model, nil

	case "enter":
		if model.reader.Mode() == identity.ModeManual && !model.verifying {
			universityID, err := model.reader.Submit(model.input.Value())
			if err != nil {
				model.label = identity.InvalidIDMessage
				return model, nil
			}
			return model.startVerification(universityID)
		}
		return model, nil
	}

	if model.reader.Mode() == identity.ModeManual {
		if model.verifying {
			return model, nil
		}
		var cmd tea.Cmd
		model.input, cmd = model.input.Update(message)
		return model, cmd
	}

	// Swipe mode: feed every keystroke to the reader. While a
	// verification is in flight the locked buffer still holds the
	// complete frame, so keystrokes must not re-trigger it.
	if model.verifying || model.closing {
		return model, nil
	}
	for _, key := range message.Runes {
		if universityID, emitted := model.reader.Press(key); emitted {
			return model.startVerification(universityID)
		}
	}
	return model, nil
}

// startVerification locks out further input and runs the verifier. A
// plain window skips straight to the result.
func (model Model) startVerification(universityID string) (Model, tea.Cmd) {
	if model.verify == nil {
		model.closing = true
		model.payload = universityID
		return model, emit(DoneMsg{Payload: universityID})
	}

	model.verifying = true
	model.reader.Buffer().Lock()
	model.label = model.verifyingMessage
	verify := model.verify
	return model, func() tea.Msg {
		return verifiedMsg{outcome: verify(context.Background(), universityID)}
	}
}

func (model Model) handleVerified(outcome Outcome) (Model, tea.Cmd) {
	model.label = outcome.Message
	if !outcome.Close {
		// Stay open for another attempt.
		model.verifying = false
		model.reader.Buffer().Unlock()
		model.reader.Buffer().Clear()
		return model, nil
	}

	model.closing = true
	model.cancelOnClose = outcome.Cancelled
	model.payload = outcome.Payload
	return model, tea.Tick(closeDelay, func(time.Time) tea.Msg {
		return closeTickMsg{}
	})
}

// emit wraps a message in a command.
func emit(message tea.Msg) tea.Cmd {
	return func() tea.Msg { return message }
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Padding(1, 2)
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

func (model Model) View() string {
	view := titleStyle.Render(model.title) + "\n"
	view += labelStyle.Render(model.label) + "\n"
	if model.reader.Mode() == identity.ModeManual && !model.verifying && !model.closing {
		view += model.input.View() + "\n"
		view += hintStyle.Render("enter: submit | tab: swipe id | esc: cancel")
	} else {
		view += hintStyle.Render("tab: manually enter | esc: cancel")
	}
	return view
}
