// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package authmonitor watches the slicer's active machine and extruder
// materials and gates changes away from the lab's standard setup
// behind lab manager authorization.
package authmonitor

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/session"
)

// Machines is the slice of the slicer the monitor observes and
// reverts.
type Machines interface {
	// ActiveMachine returns the name of the current machine, or ""
	// when no machine is active.
	ActiveMachine() string

	// ExtruderMaterials returns the material of each extruder of the
	// current machine, in extruder order.
	ExtruderMaterials() []string

	// SetActiveMachine reverts to a previous machine.
	SetActiveMachine(name string)

	// SetExtruderMaterial reverts one extruder to a previous material.
	SetExtruderMaterial(extruder int, material string)
}

// Gate prompts for lab manager authorization. onCancelled runs if the
// prompt is dismissed without an authorized swipe; an authorized swipe
// just lets the change stand.
type Gate func(onCancelled func())

// Config holds configuration for creating a Monitor.
type Config struct {
	// Machines is the observed slicer state. Required.
	Machines Machines

	// Gate opens the lab manager authorization prompt. Required.
	Gate Gate

	// AutoAuthorizedPrinters are machine names that never prompt.
	AutoAuthorizedPrinters []string

	// AutoAuthorizedMaterials are material names that never prompt.
	AutoAuthorizedMaterials []string

	// Session is the elevated job-mode session. Changes under an
	// active session never prompt. Optional.
	Session *session.Session

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Monitor tracks the last seen machine and materials and prompts on
// unauthorized changes.
type Monitor struct {
	machines           Machines
	gate               Gate
	authorizedPrinters []string
	authorizedMaterial []string
	session            *session.Session
	logger             *slog.Logger

	mu            sync.Mutex
	lastMachine   string
	lastExtruders []string
}

// NewMonitor creates a monitor. Call Start once the slicer has
// finished loading; reading the machine state earlier sees an empty
// configuration.
func NewMonitor(config Config) *Monitor {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		machines:           config.Machines,
		gate:               config.Gate,
		authorizedPrinters: config.AutoAuthorizedPrinters,
		authorizedMaterial: config.AutoAuthorizedMaterials,
		session:            config.Session,
		logger:             logger,
	}
}

// Start captures the current machine and materials as the authorized
// baseline.
func (monitor *Monitor) Start() {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	monitor.lastMachine = monitor.machines.ActiveMachine()
	monitor.lastExtruders = monitor.machines.ExtruderMaterials()
}

// MachineChanged handles the active machine changing. A switch to a
// machine outside the auto-authorized list prompts the gate;
// cancelling the prompt reverts to the previous machine.
func (monitor *Monitor) MachineChanged() {
	monitor.mu.Lock()
	newMachine := monitor.machines.ActiveMachine()
	if newMachine == monitor.lastMachine {
		monitor.mu.Unlock()
		return
	}
	lastMachine := monitor.lastMachine
	monitor.lastMachine = newMachine
	monitor.mu.Unlock()

	if newMachine == "" || slices.Contains(monitor.authorizedPrinters, newMachine) {
		return
	}
	if monitor.elevated() {
		return
	}

	monitor.logger.Info("machine change needs authorization",
		"machine", newMachine, "previous", lastMachine)
	monitor.gate(func() {
		monitor.machines.SetActiveMachine(lastMachine)
	})
}

// MaterialChanged handles an extruder material changing. A switch to a
// material outside the auto-authorized list prompts the gate;
// cancelling the prompt reverts that extruder.
func (monitor *Monitor) MaterialChanged() {
	monitor.mu.Lock()
	newExtruders := monitor.machines.ExtruderMaterials()
	changedExtruder := -1
	for index := range newExtruders {
		if index < len(monitor.lastExtruders) && monitor.lastExtruders[index] != newExtruders[index] {
			changedExtruder = index
			break
		}
	}
	if changedExtruder < 0 {
		// Extruders added or removed wholesale come from a machine
		// change, which MachineChanged gates.
		monitor.lastExtruders = newExtruders
		monitor.mu.Unlock()
		return
	}
	previousMaterial := monitor.lastExtruders[changedExtruder]
	monitor.lastExtruders = newExtruders
	monitor.mu.Unlock()

	if slices.Contains(monitor.authorizedMaterial, newExtruders[changedExtruder]) {
		return
	}
	if monitor.elevated() {
		return
	}

	monitor.logger.Info("material change needs authorization",
		"material", newExtruders[changedExtruder], "extruder", changedExtruder)
	monitor.gate(func() {
		monitor.machines.SetExtruderMaterial(changedExtruder, previousMaterial)
	})
}

func (monitor *Monitor) elevated() bool {
	return monitor.session != nil && monitor.session.Active() != nil
}
