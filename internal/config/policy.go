// Package config resolves the security policy a page session runs under.
//
// The policy is a best-effort deterrence profile, not an access-control
// mechanism: every behavior it enables can be defeated by a visitor who
// disables script execution.
package config

import "strings"

// Environment selects a base policy template.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ParseEnvironment maps a stored or configured string to an Environment.
func ParseEnvironment(s string) (Environment, bool) {
	switch Environment(strings.ToLower(strings.TrimSpace(s))) {
	case Development:
		return Development, true
	case Production:
		return Production, true
	default:
		return "", false
	}
}

// DefaultWatermarkText is stamped on watermarks when settings do not name one.
const DefaultWatermarkText = "© All Rights Reserved"

// Policy is the resolved set of feature flags. It is passed by value and
// never mutated once a session has been opened with it.
type Policy struct {
	SecurityEnabled          bool   `yaml:"security_enabled"           json:"securityEnabled"`
	BlockDevTools            bool   `yaml:"block_devtools"             json:"blockDevTools"`
	BlockRightClick          bool   `yaml:"block_right_click"          json:"blockRightClick"`
	BlockSelection           bool   `yaml:"block_selection"            json:"blockSelection"`
	BlockKeyboardShortcuts   bool   `yaml:"block_keyboard_shortcuts"   json:"blockKeyboardShortcuts"`
	EnableDebugProtection    bool   `yaml:"enable_debug_protection"    json:"enableDebugProtection"`
	ShowWarnings             bool   `yaml:"show_warnings"              json:"showWarnings"`
	RedirectOnDetection      bool   `yaml:"redirect_on_detection"      json:"redirectOnDetection"`
	EnableAntiDebug          bool   `yaml:"enable_anti_debug"          json:"enableAntiDebug"`
	IntegrityCheckEnabled    bool   `yaml:"integrity_check"            json:"integrityCheckEnabled"`
	DynamicWatermarkEnabled  bool   `yaml:"dynamic_watermark"          json:"dynamicWatermarkEnabled"`
	AntiTamperEnabled        bool   `yaml:"anti_tamper"                json:"antiTamperEnabled"`
	NetworkMonitoringEnabled bool   `yaml:"network_monitoring"         json:"networkMonitoringEnabled"`
	AdvancedSecurityEnabled  bool   `yaml:"advanced_security"          json:"advancedSecurityEnabled"`
	WatermarkText            string `yaml:"watermark_text,omitempty"   json:"watermarkText"`
}

// DevelopmentPolicy returns the template used while developing: everything off.
func DevelopmentPolicy() Policy {
	return Policy{WatermarkText: DefaultWatermarkText}
}

// ProductionPolicy returns the template served to visitors.
// Warnings, redirect-on-detection and dynamic watermarks stay opt-in.
func ProductionPolicy() Policy {
	return Policy{
		SecurityEnabled:          true,
		BlockDevTools:            true,
		BlockRightClick:          true,
		BlockSelection:           true,
		BlockKeyboardShortcuts:   true,
		EnableDebugProtection:    true,
		ShowWarnings:             false,
		RedirectOnDetection:      false,
		EnableAntiDebug:          true,
		IntegrityCheckEnabled:    true,
		DynamicWatermarkEnabled:  false,
		AntiTamperEnabled:        true,
		NetworkMonitoringEnabled: true,
		AdvancedSecurityEnabled:  true,
		WatermarkText:            DefaultWatermarkText,
	}
}
