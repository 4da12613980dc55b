// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// construct-swipe is the standalone university ID capture window. It
// prints the captured identifier to stdout, or CANCEL if the window
// was dismissed, so shell scripts can gate on a swipe.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/swipeui"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var title string

	flagSet := pflag.NewFlagSet("construct-swipe", pflag.ContinueOnError)
	flagSet.StringVar(&title, "title", "Enter Id", "window title")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other
	// Construct binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("construct-swipe")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if arguments := flagSet.Args(); len(arguments) > 0 {
		return fmt.Errorf("unexpected argument: %s", arguments[0])
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("construct-swipe needs an interactive terminal")
	}

	program := tea.NewProgram(swipeProgram{window: swipeui.NewIdentityWindow(title)}, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	result := finalModel.(swipeProgram)
	universityID, captured := result.payload.(string)
	if !captured {
		fmt.Println("CANCEL")
		return nil
	}
	fmt.Println(universityID)
	return nil
}

// swipeProgram hosts the swipe window and records its payload.
type swipeProgram struct {
	window  swipeui.Model
	payload any
}

func (program swipeProgram) Init() tea.Cmd {
	return program.window.Init()
}

func (program swipeProgram) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case swipeui.DoneMsg:
		program.payload = message.Payload
		return program, tea.Quit
	case swipeui.CancelledMsg:
		return program, tea.Quit
	}
	window, cmd := program.window.Update(message)
	program.window = window
	return program, cmd
}

func (program swipeProgram) View() string {
	return program.window.View()
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Construct swipe window: capture a university ID from a card swipe.

Swipe mode reads the card reader's keystroke stream; tab switches to
manual entry. The captured nine digit ID is printed to stdout, or
CANCEL when the window is dismissed.

Usage:
  construct-swipe [flags]

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
