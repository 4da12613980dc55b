// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// construct-export is the export gate for one sliced print: it shows
// the payment window, runs the submission workflow against the
// accounting service, and copies the sliced file to the output
// location once the print is accepted.
//
// With --job-mode a lab worker authenticates first; the export window
// then opens under the elevated session with payment and time
// overrides preset.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/accounting"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/exportui"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/labconfig"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/session"
	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/submission"
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
	var configPath string
	var environmentPath string
	var filePath string
	var outputDir string
	var weightGrams float64
	var durationHours float64
	var material string
	var machine string
	var jobMode bool
	var logOutput string

	flagSet := pflag.NewFlagSet("construct-export", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "lab configuration file (default: $CONSTRUCT_CONFIG)")
	flagSet.StringVar(&environmentPath, "environment", "", "JSONC environment file with ${NAME} bindings")
	flagSet.StringVar(&filePath, "file", "", "sliced print file to export (required)")
	flagSet.StringVar(&outputDir, "output", "", "output directory, e.g. the mounted printer drive (default: alongside the file)")
	flagSet.Float64Var(&weightGrams, "weight", 0, "print weight in grams (required)")
	flagSet.Float64Var(&durationHours, "hours", 0, "estimated print length in hours (required)")
	flagSet.StringVar(&material, "material", "", "material name (required)")
	flagSet.StringVar(&machine, "machine", "", "machine name, for its file name limit")
	flagSet.BoolVar(&jobMode, "job-mode", false, "authenticate a lab worker and preset job mode overrides")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the other
	// Construct binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("construct-export")
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
	if filePath == "" {
		return fmt.Errorf("--file is required")
	}
	if weightGrams <= 0 {
		return fmt.Errorf("--weight must be positive")
	}
	if durationHours <= 0 {
		return fmt.Errorf("--hours must be positive")
	}
	if material == "" {
		return fmt.Errorf("--material is required")
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("construct-export needs an interactive terminal")
	}

	logger, closeLogger, err := openLogger(logOutput)
	if err != nil {
		return err
	}
	defer closeLogger()

	labConfig, err := labconfig.Load(configPath)
	if err != nil {
		return err
	}
	bindings, err := labconfig.LoadBindings(environmentPath)
	if err != nil {
		return err
	}
	labConfig.ExpandBindings(bindings)
	if err := labConfig.Validate(); err != nil {
		return err
	}

	if outputDir == "" {
		outputDir = filepath.Dir(filePath)
	} else if !labConfig.DriveAllowed(filepath.Base(outputDir)) {
		return fmt.Errorf("output drive %s is not on the removable drive whitelist", filepath.Base(outputDir))
	}

	client, err := accounting.NewClient(accounting.Config{
		BaseURL:           labConfig.ServerHost,
		Logger:            logger,
		ReimbursedPurpose: labConfig.ReimbursedPurpose,
	})
	if err != nil {
		return err
	}

	labSession := session.New()
	if jobMode {
		if err := authenticateJobMode(client, labSession); err != nil {
			return err
		}
	}

	record := submission.NewRecord(
		filepath.Join(outputDir, filepath.Base(filePath)),
		weightGrams, durationHours, material,
		labConfig.MaxFileNameLength(machine),
		labConfig.PrintCostPerGram,
	)

	window := exportui.NewModel(exportui.Config{
		Record:     record,
		Accounting: client,
		LabConfig:  labConfig,
		Session:    labSession,
		Logger:     logger,
	})
	program := tea.NewProgram(exportProgram{window: window}, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	result := finalModel.(exportProgram)
	if result.exported == "" {
		fmt.Fprintln(os.Stderr, "export cancelled")
		return nil
	}
	if err := copyFile(filePath, result.exported); err != nil {
		return fmt.Errorf("exporting print: %w", err)
	}
	fmt.Println(result.exported)
	return nil
}

// authenticateJobMode runs the job mode swipe window and activates the
// session with the authenticated worker.
func authenticateJobMode(client *accounting.Client, labSession *session.Session) error {
	program := tea.NewProgram(swipeProgram{window: swipeui.NewJobModeWindow(client)}, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	result := finalModel.(swipeProgram)
	user, authenticated := result.payload.(session.User)
	if !authenticated {
		return fmt.Errorf("job mode authentication cancelled")
	}
	labSession.Activate(user)
	return nil
}

// exportProgram hosts the export window and records its result.
type exportProgram struct {
	window   exportui.Model
	exported string
}

func (program exportProgram) Init() tea.Cmd {
	return program.window.Init()
}

func (program exportProgram) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case exportui.CompletedMsg:
		program.exported = message.FileLocation
		return program, tea.Quit
	case exportui.ClosedMsg:
		return program, tea.Quit
	}
	window, cmd := program.window.Update(message)
	program.window = window
	return program, cmd
}

func (program exportProgram) View() string {
	return program.window.View()
}

// swipeProgram hosts a swipe window and records its payload.
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

func openLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		// The alt screen owns the terminal; discard background logs.
		handler := slog.NewTextHandler(io.Discard, nil)
		return slog.New(handler), func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), func() { file.Close() }, nil
}

func copyFile(sourcePath, targetPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := os.Create(targetPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(target, source); err != nil {
		target.Close()
		return err
	}
	return target.Close()
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Construct export gate: the payment window for one sliced print.

The window collects the user's email, print purpose, and billing
number, checks the print against the lab's time and cooldown policy,
logs it with the accounting service, and copies the sliced file to the
output directory once accepted.

Usage:
  construct-export --file print.gcode --weight 42 --hours 3 --material generic_pla_175 [flags]

Examples:
  # Export to the printer's SD card
  construct-export --file benchy.gcode --weight 42 --hours 3 \
    --material generic_pla_175 --machine "FlashForge Creator Pro" \
    --output /media/printer_sd

  # Lab worker job mode
  construct-export --file batch.gcode --weight 120 --hours 9 \
    --material generic_pla_175 --job-mode

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
