// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

package authmonitor

import (
	"testing"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/session"
)

// fakeMachines is a mutable slicer state.
type fakeMachines struct {
	machine   string
	materials []string
}

func (machines *fakeMachines) ActiveMachine() string { return machines.machine }

func (machines *fakeMachines) ExtruderMaterials() []string {
	return append([]string(nil), machines.materials...)
}

func (machines *fakeMachines) SetActiveMachine(name string) { machines.machine = name }

func (machines *fakeMachines) SetExtruderMaterial(extruder int, material string) {
	machines.materials[extruder] = material
}

// fakeGate records prompts and holds the cancellation callback.
type fakeGate struct {
	prompts   int
	cancelled func()
}

func (gate *fakeGate) open(onCancelled func()) {
	gate.prompts++
	gate.cancelled = onCancelled
}

func newTestMonitor(machines *fakeMachines, gate *fakeGate, labSession *session.Session) *Monitor {
	monitor := NewMonitor(Config{
		Machines:                machines,
		Gate:                    gate.open,
		AutoAuthorizedPrinters:  []string{"Lulzbot Mini 2", "FlashForge Creator Pro"},
		AutoAuthorizedMaterials: []string{"generic_pla_175"},
		Session:                 labSession,
	})
	monitor.Start()
	return monitor
}

func TestAutoAuthorizedMachineSkipsGate(t *testing.T) {
	machines := &fakeMachines{machine: "Lulzbot Mini 2"}
	gate := &fakeGate{}
	monitor := newTestMonitor(machines, gate, nil)

	machines.machine = "FlashForge Creator Pro"
	monitor.MachineChanged()

	if gate.prompts != 0 {
		t.Errorf("prompts = %d for an auto-authorized machine", gate.prompts)
	}
}

func TestUnknownMachinePromptsAndRevertsOnCancel(t *testing.T) {
	machines := &fakeMachines{machine: "Lulzbot Mini 2"}
	gate := &fakeGate{}
	monitor := newTestMonitor(machines, gate, nil)

	machines.machine = "Personal Printer"
	monitor.MachineChanged()

	if gate.prompts != 1 {
		t.Fatalf("prompts = %d, want 1", gate.prompts)
	}
	gate.cancelled()
	if machines.machine != "Lulzbot Mini 2" {
		t.Errorf("machine = %q after cancellation, want the previous machine", machines.machine)
	}
}

func TestRepeatedMachineEventPromptsOnce(t *testing.T) {
	machines := &fakeMachines{machine: "Lulzbot Mini 2"}
	gate := &fakeGate{}
	monitor := newTestMonitor(machines, gate, nil)

	machines.machine = "Personal Printer"
	monitor.MachineChanged()
	monitor.MachineChanged()

	if gate.prompts != 1 {
		t.Errorf("prompts = %d for one change, want 1", gate.prompts)
	}
}

func TestClearedMachineSkipsGate(t *testing.T) {
	machines := &fakeMachines{machine: "Lulzbot Mini 2"}
	gate := &fakeGate{}
	monitor := newTestMonitor(machines, gate, nil)

	machines.machine = ""
	monitor.MachineChanged()

	if gate.prompts != 0 {
		t.Errorf("prompts = %d when the machine cleared", gate.prompts)
	}
}

func TestJobModeSkipsMachineGate(t *testing.T) {
	labSession := session.New()
	labSession.Activate(session.User{Email: "worker@rit.edu"})
	machines := &fakeMachines{machine: "Lulzbot Mini 2"}
	gate := &fakeGate{}
	monitor := newTestMonitor(machines, gate, labSession)

	machines.machine = "Personal Printer"
	monitor.MachineChanged()

	if gate.prompts != 0 {
		t.Errorf("prompts = %d under an elevated session", gate.prompts)
	}
}

func TestMaterialChangePromptsAndRevertsOnCancel(t *testing.T) {
	machines := &fakeMachines{
		machine:   "Lulzbot Mini 2",
		materials: []string{"generic_pla_175", "generic_pla_175"},
	}
	gate := &fakeGate{}
	monitor := newTestMonitor(machines, gate, nil)

	machines.materials[1] = "generic_abs_175"
	monitor.MaterialChanged()

	if gate.prompts != 1 {
		t.Fatalf("prompts = %d, want 1", gate.prompts)
	}
	gate.cancelled()
	if machines.materials[1] != "generic_pla_175" {
		t.Errorf("extruder 1 material = %q after cancellation", machines.materials[1])
	}
}

func TestAutoAuthorizedMaterialSkipsGate(t *testing.T) {
	machines := &fakeMachines{
		machine:   "Lulzbot Mini 2",
		materials: []string{"generic_abs_175"},
	}
	gate := &fakeGate{}
	monitor := newTestMonitor(machines, gate, nil)

	machines.materials[0] = "generic_pla_175"
	monitor.MaterialChanged()

	if gate.prompts != 0 {
		t.Errorf("prompts = %d for an auto-authorized material", gate.prompts)
	}
}

func TestExtruderCountChangeSkipsMaterialGate(t *testing.T) {
	machines := &fakeMachines{
		machine:   "Lulzbot Mini 2",
		materials: []string{"generic_pla_175"},
	}
	gate := &fakeGate{}
	monitor := newTestMonitor(machines, gate, nil)

	// A new machine brings a different extruder set; the material gate
	// leaves that to the machine gate.
	machines.materials = []string{"generic_pla_175", "generic_abs_175"}
	monitor.MaterialChanged()

	if gate.prompts != 0 {
		t.Errorf("prompts = %d for an extruder count change", gate.prompts)
	}

	// The new extruder is now the baseline.
	machines.materials[1] = "generic_nylon_175"
	monitor.MaterialChanged()
	if gate.prompts != 1 {
		t.Errorf("prompts = %d after a change to the new baseline, want 1", gate.prompts)
	}
}

func TestJobModeSkipsMaterialGate(t *testing.T) {
	labSession := session.New()
	labSession.Activate(session.User{Email: "worker@rit.edu"})
	machines := &fakeMachines{
		machine:   "Lulzbot Mini 2",
		materials: []string{"generic_pla_175"},
	}
	gate := &fakeGate{}
	monitor := newTestMonitor(machines, gate, labSession)

	machines.materials[0] = "generic_abs_175"
	monitor.MaterialChanged()

	if gate.prompts != 0 {
		t.Errorf("prompts = %d under an elevated session", gate.prompts)
	}
}
