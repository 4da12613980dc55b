// Copyright 2026 The Construct @ RIT Developers
// SPDX-License-Identifier: Apache-2.0

// Package labconfig loads the lab's plugin configuration: the
// accounting server, pricing, print purposes, throttling schedule,
// and the per-machine export rules.
//
// Configuration is YAML. Deployment-specific values (the server host,
// typically) are not written into the YAML directly; the file carries
// ${NAME} placeholders that are substituted from a JSONC environment
// file at load time, so the same configuration ships to every lab
// machine.
package labconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/TheConstructRIT/Construct-Cura-Plugins/lib/policy"
)

// ConfigPathEnv names the environment variable that points at the
// configuration file when no explicit path is given.
const ConfigPathEnv = "CONSTRUCT_CONFIG"

// bindingPattern matches ${NAME} placeholders in string settings.
var bindingPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// Config is the lab plugin configuration.
type Config struct {
	// ServerHost is the base URL of the accounting service. Usually a
	// ${SERVER_HOST} binding resolved from the environment file.
	ServerHost string `yaml:"serverHost"`

	// PrintCostPerGram is the price in USD charged per gram.
	PrintCostPerGram float64 `yaml:"printCostPerGram"`

	// DisableManualEmailEntry locks the email field so it can only be
	// filled by importing from a university ID swipe.
	DisableManualEmailEntry bool `yaml:"disableManualEmailEntry"`

	// ResetPurposeOnIgnore resets the selected purpose when the
	// ignored-payment purposes are added, so the new options are
	// noticed.
	ResetPurposeOnIgnore bool `yaml:"resetPurposeOnIgnore"`

	// NormalPurposes are the purposes offered to every user.
	NormalPurposes []string `yaml:"normalPurposes"`

	// IgnoredPaymentPurposes are added once payment is ignored.
	IgnoredPaymentPurposes []string `yaml:"ignoredPaymentPurposes"`

	// ReimbursedPurpose is the purpose that carries a billing number.
	ReimbursedPurpose string `yaml:"reimbursedPurpose"`

	// TimeLimits is the ordered print length schedule.
	TimeLimits []policy.TimeLimitRule `yaml:"timeLimits"`

	// AutoAuthorizedPrinters are printers usable without a lab
	// manager swipe.
	AutoAuthorizedPrinters []string `yaml:"autoAuthorizedPrinters"`

	// AutoAuthorizedMaterials are materials usable without a lab
	// manager swipe.
	AutoAuthorizedMaterials []string `yaml:"autoAuthorizedMaterials"`

	// MaxFileNameLengths caps exported file names per machine. A
	// machine with no entry gets no truncation.
	MaxFileNameLengths map[string]int `yaml:"maxFileNameLengths"`

	// RemovableDriveWhitelist restricts which removable drives are
	// offered as export targets, matched on the lowercased drive
	// name. Empty means no restriction.
	RemovableDriveWhitelist []string `yaml:"removableDriveWhitelist"`
}

// Default returns the lab's stock configuration.
func Default() Config {
	return Config{
		ServerHost:              "${SERVER_HOST}",
		PrintCostPerGram:        0.03,
		DisableManualEmailEntry: true,
		ResetPurposeOnIgnore:    true,
		NormalPurposes: []string{
			"Class/academic project",
			"Personal project",
			"Senior Design Project (Reimbursed)",
			"Club Project",
		},
		IgnoredPaymentPurposes: []string{
			"Test Print",
			"Internal Print",
			"Reprint",
			"Job Mode",
		},
		ReimbursedPurpose: "Senior Design Project (Reimbursed)",
		TimeLimits: []policy.TimeLimitRule{
			{PrintHoursLimit: 5, StartHour: 8, EndHour: 17},
			{PrintHoursLimit: 12, StartHour: -1, EndHour: 25},
		},
		AutoAuthorizedPrinters: []string{
			"FlashForge Creator Pro",
			"Artillery Sidewinder X1",
			"Prusa i3 Mk3/Mk3s",
		},
		AutoAuthorizedMaterials: []string{
			"generic_pla_175",
		},
		MaxFileNameLengths: map[string]int{
			"FlashForge Creator Pro": 31,
		},
		RemovableDriveWhitelist: []string{
			"printer_sd",
			"printer_usb",
		},
	}
}

// Load reads the configuration. With an empty path, the file named by
// CONSTRUCT_CONFIG is used; with no file at all, the defaults are
// returned as-is. Settings absent from the file keep their defaults.
func Load(path string) (Config, error) {
	config := Default()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("labconfig: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("labconfig: parsing %s: %w", path, err)
	}
	return config, nil
}

// LoadBindings reads the JSONC environment file of ${NAME} bindings.
// A missing file is not an error; it yields no bindings.
func LoadBindings(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("labconfig: reading environment file %s: %w", path, err)
	}

	bindings := map[string]string{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &bindings); err != nil {
		return nil, fmt.Errorf("labconfig: parsing environment file %s: %w", path, err)
	}
	return bindings, nil
}

// ExpandBindings substitutes ${NAME} placeholders in every
// string-valued setting. Placeholders with no binding are left in
// place for Validate to report.
func (config *Config) ExpandBindings(bindings map[string]string) {
	expand := func(value string) string {
		return bindingPattern.ReplaceAllStringFunc(value, func(match string) string {
			name := bindingPattern.FindStringSubmatch(match)[1]
			if bound, known := bindings[name]; known {
				return bound
			}
			return match
		})
	}

	config.ServerHost = expand(config.ServerHost)
	config.ReimbursedPurpose = expand(config.ReimbursedPurpose)
	for index, purpose := range config.NormalPurposes {
		config.NormalPurposes[index] = expand(purpose)
	}
	for index, purpose := range config.IgnoredPaymentPurposes {
		config.IgnoredPaymentPurposes[index] = expand(purpose)
	}
	for index, printer := range config.AutoAuthorizedPrinters {
		config.AutoAuthorizedPrinters[index] = expand(printer)
	}
	for index, material := range config.AutoAuthorizedMaterials {
		config.AutoAuthorizedMaterials[index] = expand(material)
	}
	for index, drive := range config.RemovableDriveWhitelist {
		config.RemovableDriveWhitelist[index] = expand(drive)
	}
}

// Validate checks the configuration for values that would misbehave
// at runtime.
func (config *Config) Validate() error {
	if config.ServerHost == "" {
		return fmt.Errorf("labconfig: serverHost is required")
	}
	if unresolved := bindingPattern.FindString(config.ServerHost); unresolved != "" {
		return fmt.Errorf("labconfig: serverHost has an unresolved binding %s", unresolved)
	}
	if config.PrintCostPerGram < 0 {
		return fmt.Errorf("labconfig: printCostPerGram must not be negative")
	}
	if len(config.NormalPurposes) == 0 {
		return fmt.Errorf("labconfig: at least one print purpose is required")
	}
	for index, rule := range config.TimeLimits {
		if rule.PrintHoursLimit <= 0 {
			return fmt.Errorf("labconfig: timeLimits[%d] has a non-positive hour limit", index)
		}
		if rule.EndHour <= rule.StartHour {
			return fmt.Errorf("labconfig: timeLimits[%d] has an empty window", index)
		}
	}
	for machine, length := range config.MaxFileNameLengths {
		if length <= 0 {
			return fmt.Errorf("labconfig: maxFileNameLengths[%q] must be positive", machine)
		}
	}
	for index, drive := range config.RemovableDriveWhitelist {
		if drive != strings.ToLower(drive) {
			return fmt.Errorf("labconfig: removableDriveWhitelist[%d] (%q) must be lower case", index, drive)
		}
	}
	return nil
}

// MaxFileNameLength returns the file name cap for a machine, or 0
// when the machine has none.
func (config *Config) MaxFileNameLength(machineName string) int {
	return config.MaxFileNameLengths[machineName]
}

// DriveAllowed reports whether a removable drive may be offered as an
// export target.
func (config *Config) DriveAllowed(driveName string) bool {
	if len(config.RemovableDriveWhitelist) == 0 {
		return true
	}
	lowered := strings.ToLower(driveName)
	for _, allowed := range config.RemovableDriveWhitelist {
		if strings.Contains(lowered, allowed) {
			return true
		}
	}
	return false
}
