package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoadSettingsMissingFileReturnsDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Environment != Production {
		t.Errorf("expected production default, got %s", s.Environment)
	}
	if s.ManualOverride != nil {
		t.Error("expected no manual override by default")
	}
}

func TestLoadSettingsOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagewarden.yaml")
	data := `
environment: development
manual_override: false
production:
  dynamic_watermark: true
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Environment != Development {
		t.Errorf("expected development, got %s", s.Environment)
	}
	if s.ManualOverride == nil || *s.ManualOverride {
		t.Errorf("expected manual override false, got %v", s.ManualOverride)
	}
	if !s.Production.DynamicWatermarkEnabled {
		t.Error("expected dynamic watermark enabled from YAML")
	}
	if !s.Production.SecurityEnabled {
		t.Error("expected unspecified production fields to keep defaults")
	}
}

func TestLoadSettingsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("environment: [unclosed"), 0600)

	if _, err := LoadSettings(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadSettingsInvalidEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	os.WriteFile(path, []byte("environment: staging\n"), 0600)

	if _, err := LoadSettings(path); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestDefaultSettingsYAMLMatchesDefaults(t *testing.T) {
	s := &Settings{}
	if err := yaml.Unmarshal([]byte(DefaultSettingsYAML()), s); err != nil {
		t.Fatalf("default YAML does not parse: %v", err)
	}

	def := DefaultSettings()
	if s.Environment != def.Environment {
		t.Errorf("environment mismatch: %s vs %s", s.Environment, def.Environment)
	}
	if s.ManualOverride != nil {
		t.Error("expected null manual override in default YAML")
	}
	if s.Template(Production) != def.Template(Production) {
		t.Error("production template in YAML differs from built-in defaults")
	}
	if s.Template(Development) != def.Template(Development) {
		t.Error("development template in YAML differs from built-in defaults")
	}
}

func TestTemplateUnknownEnvironmentFallsBackToProduction(t *testing.T) {
	s := DefaultSettings()
	if s.Template("staging") != s.Template(Production) {
		t.Error("expected unknown environment to select production template")
	}
}
