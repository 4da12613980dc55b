// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package settingsandbox keeps the slicer's settings directory pinned
// to a stored copy so lab machines boot into a known configuration.
//
// On startup the stored copy replaces the live settings. When saving
// is enabled (toggled by a lab manager) each preferences save also
// updates the stored copy, so deliberate changes stick.
package settingsandbox

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Entries never copied between the live and stored settings. The
// plugins directory holds this code; the logs churn constantly.
var ignoredEntries = []string{"plugins"}

const logFileFragment = "cura.log"

// Toggle confirmation text.
const (
	enableTitle    = "Confirm Enable Sandbox"
	enableMessage  = "Do you want to enable the settings sandbox?\nChanges to settings won't save."
	disableTitle   = "Confirm Disable Sandbox"
	disableMessage = "Do you want to disable the settings sandbox?\nChanges to settings will now save."
)

// Prompt asks the user to confirm a sandbox toggle. onConfirmed runs
// only when the user accepts.
type Prompt func(title, message string, onConfirmed func())

// Config holds configuration for creating a Sandbox.
type Config struct {
	// SettingsDir is the slicer's live settings directory. Required.
	SettingsDir string

	// StoreDir is where the sandboxed copy lives. Required.
	StoreDir string

	// StatePath is the persisted toggle state file. Required.
	StatePath string

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Sandbox manages the stored settings copy.
type Sandbox struct {
	settingsDir string
	storeDir    string
	state       *State
	logger      *slog.Logger
}

// New loads the sandbox state and restores the stored settings over
// the live directory.
func New(config Config) (*Sandbox, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	state, err := LoadState(config.StatePath)
	if err != nil {
		return nil, err
	}

	sandbox := &Sandbox{
		settingsDir: config.SettingsDir,
		storeDir:    config.StoreDir,
		state:       state,
		logger:      logger,
	}
	if err := sandbox.Restore(); err != nil {
		return nil, err
	}
	return sandbox, nil
}

// CanSaveSettings reports whether preference saves update the store.
func (sandbox *Sandbox) CanSaveSettings() bool {
	return sandbox.state.CanSaveSettings()
}

// Restore replaces the live settings with the stored copy. Without a
// stored copy this is a no-op; the first Store creates it.
func (sandbox *Sandbox) Restore() error {
	if _, err := os.Stat(sandbox.storeDir); os.IsNotExist(err) {
		return nil
	}
	sandbox.logger.Info("restoring sandboxed settings", "store", sandbox.storeDir)
	return CopySettings(sandbox.storeDir, sandbox.settingsDir)
}

// Store replaces the stored copy with the live settings.
func (sandbox *Sandbox) Store() error {
	if err := os.RemoveAll(sandbox.storeDir); err != nil {
		return fmt.Errorf("clear settings store: %w", err)
	}
	sandbox.logger.Info("storing sandboxed settings", "store", sandbox.storeDir)
	return CopySettings(sandbox.settingsDir, sandbox.storeDir)
}

// PreferencesSaved is the hook for the slicer's preferences save.
// While saving is enabled the store follows the live settings.
func (sandbox *Sandbox) PreferencesSaved() error {
	if !sandbox.state.CanSaveSettings() {
		return nil
	}
	return sandbox.Store()
}

// RequestToggle prompts for confirmation and flips the saving flag.
// Enabling the sandbox stops settings from saving; disabling it lets
// them save again.
func (sandbox *Sandbox) RequestToggle(prompt Prompt) {
	if sandbox.state.CanSaveSettings() {
		prompt(enableTitle, enableMessage, func() {
			if err := sandbox.state.SetCanSaveSettings(false); err != nil {
				sandbox.logger.Error("persisting sandbox state failed", "error", err)
			}
		})
		return
	}
	prompt(disableTitle, disableMessage, func() {
		if err := sandbox.state.SetCanSaveSettings(true); err != nil {
			sandbox.logger.Error("persisting sandbox state failed", "error", err)
		}
	})
}

// CopySettings replicates a settings directory. Top-level entries on
// the ignore list and log files are skipped; everything else replaces
// its counterpart in the target.
func CopySettings(sourceDir, targetDir string) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("read settings directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if ignoredEntry(name) {
			continue
		}
		sourcePath := filepath.Join(sourceDir, name)
		targetPath := filepath.Join(targetDir, name)
		if err := os.RemoveAll(targetPath); err != nil {
			return fmt.Errorf("replace %s: %w", targetPath, err)
		}
		if entry.IsDir() {
			err = copyTree(sourcePath, targetPath)
		} else {
			err = copyFile(sourcePath, targetPath)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func ignoredEntry(name string) bool {
	lowered := strings.ToLower(name)
	for _, ignored := range ignoredEntries {
		if lowered == ignored {
			return true
		}
	}
	return strings.Contains(lowered, logFileFragment)
}

func copyTree(sourceDir, targetDir string) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", targetDir, err)
	}
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", sourceDir, err)
	}
	for _, entry := range entries {
		sourcePath := filepath.Join(sourceDir, entry.Name())
		targetPath := filepath.Join(targetDir, entry.Name())
		if entry.IsDir() {
			err = copyTree(sourcePath, targetPath)
		} else {
			err = copyFile(sourcePath, targetPath)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func copyFile(sourcePath, targetPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", sourcePath, err)
	}
	defer source.Close()

	target, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", targetPath, err)
	}
	if _, err := io.Copy(target, source); err != nil {
		target.Close()
		return fmt.Errorf("copy %s: %w", targetPath, err)
	}
	return target.Close()
}
