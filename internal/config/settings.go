package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the hand-edited configuration: the hardcoded environment tag,
// the manual override and the two policy templates.
type Settings struct {
	Environment    Environment `yaml:"environment"`
	ManualOverride *bool       `yaml:"manual_override"`
	WatermarkText  string      `yaml:"watermark_text"`
	Development    Policy      `yaml:"development"`
	Production     Policy      `yaml:"production"`
}

// DefaultSettings returns production as the default environment, no override,
// and the built-in templates.
func DefaultSettings() *Settings {
	return &Settings{
		Environment:   Production,
		WatermarkText: DefaultWatermarkText,
		Development:   DevelopmentPolicy(),
		Production:    ProductionPolicy(),
	}
}

// DefaultSettingsPath returns ~/.pagewarden/pagewarden.yaml.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pagewarden.yaml"
	}
	return filepath.Join(home, ".pagewarden", "pagewarden.yaml")
}

// LoadSettings loads settings from a YAML file.
// Empty path falls back to ~/.pagewarden/pagewarden.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		path = DefaultSettingsPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	if _, ok := ParseEnvironment(string(s.Environment)); !ok {
		return nil, fmt.Errorf("invalid environment %q: must be development or production", s.Environment)
	}
	return s, nil
}

// Template returns the policy template for env. Unknown environments fall back to production.
func (s *Settings) Template(env Environment) Policy {
	var p Policy
	if env == Development {
		p = s.Development
	} else {
		p = s.Production
	}
	if s.WatermarkText != "" {
		p.WatermarkText = s.WatermarkText
	}
	if p.WatermarkText == "" {
		p.WatermarkText = DefaultWatermarkText
	}
	return p
}

// DefaultSettingsYAML returns a commented YAML string for init-config.
func DefaultSettingsYAML() string {
	return `# pagewarden settings
# Generated by: pagewarden init-config
#
# Resolution order, highest first (cannot be changed):
#   1. manual_override (true -> production template, false -> development template)
#   2. stored preference (pagewarden mode development|production)
#   3. hostname auto-detection (localhost, 127.0.0.1, empty host, file:)
#   4. environment below

environment: production

# null: use the resolution order above
# true: force the production template
# false: force the development template
manual_override: null

watermark_text: "© All Rights Reserved"

development:
  security_enabled: false
  block_devtools: false
  block_right_click: false
  block_selection: false
  block_keyboard_shortcuts: false
  enable_debug_protection: false
  show_warnings: false
  redirect_on_detection: false
  enable_anti_debug: false
  integrity_check: false
  dynamic_watermark: false
  anti_tamper: false
  network_monitoring: false
  advanced_security: false

production:
  security_enabled: true
  block_devtools: true
  block_right_click: true
  block_selection: true
  block_keyboard_shortcuts: true
  enable_debug_protection: true
  show_warnings: false
  redirect_on_detection: false
  enable_anti_debug: true
  integrity_check: true
  dynamic_watermark: false
  anti_tamper: true
  network_monitoring: true
  advanced_security: true
`
}
