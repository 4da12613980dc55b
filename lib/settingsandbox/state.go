// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package settingsandbox

import (
	"encoding/json"
	"fmt"
	"os"
)

// State is the sandbox's persisted flag: whether saving the slicer
// settings (updating the sandbox copy) is enabled.
type State struct {
	fileLocation string
	saveSettings bool
}

// stateFile is the on-disk shape.
type stateFile struct {
	SaveSettings bool `json:"saveSettings"`
}

// LoadState reads the state file. A missing file yields the default
// state with saving disabled.
func LoadState(fileLocation string) (*State, error) {
	state := &State{fileLocation: fileLocation}
	data, err := os.ReadFile(fileLocation)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sandbox state: %w", err)
	}

	var contents stateFile
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("parse sandbox state %s: %w", fileLocation, err)
	}
	state.saveSettings = contents.SaveSettings
	return state, nil
}

// CanSaveSettings reports whether settings changes update the sandbox.
func (state *State) CanSaveSettings() bool {
	return state.saveSettings
}

// SetCanSaveSettings sets the flag and persists it.
func (state *State) SetCanSaveSettings(saveSettings bool) error {
	state.saveSettings = saveSettings
	data, err := json.Marshal(stateFile{SaveSettings: saveSettings})
	if err != nil {
		return fmt.Errorf("encode sandbox state: %w", err)
	}
	if err := os.WriteFile(state.fileLocation, data, 0o644); err != nil {
		return fmt.Errorf("write sandbox state: %w", err)
	}
	return nil
}
