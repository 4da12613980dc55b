// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package settingsandbox

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestStateDefaultsToNoSaving(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	if state.CanSaveSettings() {
		t.Error("missing state file enabled saving")
	}
}

func TestStateRoundTrips(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	state, err := LoadState(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := state.SetCanSaveSettings(true); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadState(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.CanSaveSettings() {
		t.Error("persisted flag lost on reload")
	}
}

func TestCopySettingsSkipsPluginsAndLogs(t *testing.T) {
	sourceDir := t.TempDir()
	targetDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "preferences.cfg"), "theme=dark")
	writeFile(t, filepath.Join(sourceDir, "machines", "mini2.cfg"), "nozzle=0.5")
	writeFile(t, filepath.Join(sourceDir, "Plugins", "sandbox.py"), "code")
	writeFile(t, filepath.Join(sourceDir, "cura.log"), "noise")
	writeFile(t, filepath.Join(sourceDir, "cura.log.1"), "noise")

	if err := CopySettings(sourceDir, targetDir); err != nil {
		t.Fatal(err)
	}

	if got := readFile(t, filepath.Join(targetDir, "preferences.cfg")); got != "theme=dark" {
		t.Errorf("preferences.cfg = %q", got)
	}
	if got := readFile(t, filepath.Join(targetDir, "machines", "mini2.cfg")); got != "nozzle=0.5" {
		t.Errorf("machines/mini2.cfg = %q", got)
	}
	for _, skipped := range []string{"Plugins", "cura.log", "cura.log.1"} {
		if _, err := os.Stat(filepath.Join(targetDir, skipped)); !os.IsNotExist(err) {
			t.Errorf("%s was copied", skipped)
		}
	}
}

func TestCopySettingsReplacesExistingEntries(t *testing.T) {
	sourceDir := t.TempDir()
	targetDir := t.TempDir()
	writeFile(t, filepath.Join(sourceDir, "machines", "mini2.cfg"), "nozzle=0.5")
	writeFile(t, filepath.Join(targetDir, "machines", "stale.cfg"), "old")

	if err := CopySettings(sourceDir, targetDir); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(targetDir, "machines", "stale.cfg")); !os.IsNotExist(err) {
		t.Error("stale entry survived the copy")
	}
}

func TestNewRestoresStoredSettings(t *testing.T) {
	baseDir := t.TempDir()
	settingsDir := filepath.Join(baseDir, "settings")
	storeDir := filepath.Join(baseDir, "store")
	writeFile(t, filepath.Join(settingsDir, "preferences.cfg"), "changed")
	writeFile(t, filepath.Join(storeDir, "preferences.cfg"), "pinned")

	_, err := New(Config{
		SettingsDir: settingsDir,
		StoreDir:    storeDir,
		StatePath:   filepath.Join(baseDir, "state.json"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := readFile(t, filepath.Join(settingsDir, "preferences.cfg")); got != "pinned" {
		t.Errorf("preferences.cfg = %q after restore, want the stored copy", got)
	}
}

func TestNewWithoutStoreLeavesSettingsAlone(t *testing.T) {
	baseDir := t.TempDir()
	settingsDir := filepath.Join(baseDir, "settings")
	writeFile(t, filepath.Join(settingsDir, "preferences.cfg"), "fresh")

	_, err := New(Config{
		SettingsDir: settingsDir,
		StoreDir:    filepath.Join(baseDir, "store"),
		StatePath:   filepath.Join(baseDir, "state.json"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := readFile(t, filepath.Join(settingsDir, "preferences.cfg")); got != "fresh" {
		t.Errorf("preferences.cfg = %q, want it untouched", got)
	}
}

func TestPreferencesSavedUpdatesStoreOnlyWhenEnabled(t *testing.T) {
	baseDir := t.TempDir()
	settingsDir := filepath.Join(baseDir, "settings")
	storeDir := filepath.Join(baseDir, "store")
	writeFile(t, filepath.Join(settingsDir, "preferences.cfg"), "v1")

	sandbox, err := New(Config{
		SettingsDir: settingsDir,
		StoreDir:    storeDir,
		StatePath:   filepath.Join(baseDir, "state.json"),
	})
	if err != nil {
		t.Fatal(err)
	}

	// Saving disabled: the store is not created.
	if err := sandbox.PreferencesSaved(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(storeDir); !os.IsNotExist(err) {
		t.Fatal("store created while saving was disabled")
	}

	if err := sandbox.state.SetCanSaveSettings(true); err != nil {
		t.Fatal(err)
	}
	if err := sandbox.PreferencesSaved(); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(storeDir, "preferences.cfg")); got != "v1" {
		t.Errorf("stored preferences.cfg = %q", got)
	}
}

func TestRequestToggleFlipsStateOnConfirm(t *testing.T) {
	baseDir := t.TempDir()
	sandbox, err := New(Config{
		SettingsDir: filepath.Join(baseDir, "settings"),
		StoreDir:    filepath.Join(baseDir, "store"),
		StatePath:   filepath.Join(baseDir, "state.json"),
	})
	if err != nil {
		t.Fatal(err)
	}

	// Saving starts disabled; the prompt offers to disable the sandbox.
	var promptedTitle string
	sandbox.RequestToggle(func(title, message string, onConfirmed func()) {
		promptedTitle = title
		onConfirmed()
	})
	if promptedTitle != disableTitle {
		t.Errorf("title = %q, want %q", promptedTitle, disableTitle)
	}
	if !sandbox.CanSaveSettings() {
		t.Error("confirming the toggle did not enable saving")
	}

	// Declining leaves the state alone.
	sandbox.RequestToggle(func(title, message string, onConfirmed func()) {
		promptedTitle = title
	})
	if promptedTitle != enableTitle {
		t.Errorf("title = %q, want %q", promptedTitle, enableTitle)
	}
	if !sandbox.CanSaveSettings() {
		t.Error("declined toggle changed the state")
	}
}
