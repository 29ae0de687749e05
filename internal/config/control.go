package config

import (
	"fmt"
	"io"
)

// StorageWriter is local storage with write access, needed to switch modes.
type StorageWriter interface {
	Storage
	Set(key, value string) error
}

// Control is the operator's handle on a resolved session: status reporting
// and persistent mode switches. Switches take effect on the next session;
// the running one keeps the policy it was opened with.
type Control struct {
	store    StorageWriter
	resolved Resolved
}

// NewControl creates a Control for the given storage area and resolution.
func NewControl(store StorageWriter, resolved Resolved) *Control {
	return &Control{store: store, resolved: resolved}
}

// Snapshot is the JSON-friendly view returned by Config.
type Snapshot struct {
	Environment     Environment `json:"environment"`
	ManualOverride  *bool       `json:"manualOverride"`
	SecurityEnabled bool        `json:"securityEnabled"`
	Source          Source      `json:"source"`
	StoredMode      string      `json:"storedMode,omitempty"`
	CurrentConfig   Policy      `json:"currentConfig"`
}

// Config returns the current configuration.
func (c *Control) Config() Snapshot {
	stored, _ := readStored(c.store)
	return Snapshot{
		Environment:     c.resolved.Environment,
		ManualOverride:  c.resolved.ManualOverride,
		SecurityEnabled: c.resolved.Policy.SecurityEnabled,
		Source:          c.resolved.Source,
		StoredMode:      stored,
		CurrentConfig:   c.resolved.Policy,
	}
}

// DevelopmentMode stores the development preference.
func (c *Control) DevelopmentMode() error {
	return c.setMode(Development)
}

// ProductionMode stores the production preference.
func (c *Control) ProductionMode() error {
	return c.setMode(Production)
}

func (c *Control) setMode(env Environment) error {
	if c.store == nil {
		return fmt.Errorf("no storage available to persist mode")
	}
	if err := c.store.Set(StorageKey, string(env)); err != nil {
		return fmt.Errorf("failed to store mode: %w", err)
	}
	return nil
}

// Status writes a human-readable status report.
func (c *Control) Status(w io.Writer) {
	cfg := c.Config()
	override := "null"
	if cfg.ManualOverride != nil {
		override = fmt.Sprintf("%t", *cfg.ManualOverride)
	}
	fmt.Fprintln(w, "Current Security Status:")
	fmt.Fprintf(w, "   Environment: %s\n", cfg.Environment)
	fmt.Fprintf(w, "   Security Enabled: %t\n", cfg.SecurityEnabled)
	fmt.Fprintf(w, "   Manual Override: %s\n", override)
	fmt.Fprintf(w, "   Decided By: %s\n", cfg.Source)
	fmt.Fprintln(w, "   Use `pagewarden mode development` or `pagewarden mode production` to switch")
}
