package config

import (
	"fmt"
	"net/url"
	"strings"
)

// StorageKey is the local storage key holding the stored mode preference.
const StorageKey = "securityMode"

// Storage is the read side of the page's local storage.
type Storage interface {
	Get(key string) (string, bool, error)
}

// Source records which input decided the resolved environment.
type Source string

const (
	SourceDefault  Source = "default"
	SourceStored   Source = "stored"
	SourceHostname Source = "hostname"
	SourceManual   Source = "manual"
)

// Inputs are everything resolution reads. Stored may be nil.
type Inputs struct {
	Settings *Settings
	Stored   Storage
	Location string
}

// Resolved is the outcome of resolution for one page session.
type Resolved struct {
	Policy         Policy      `json:"currentConfig"`
	Environment    Environment `json:"environment"`
	ManualOverride *bool       `json:"manualOverride"`
	Source         Source      `json:"source"`
}

// Resolve picks the policy for a page session.
//
// Precedence, highest first: manual override, stored preference, hostname
// auto-detection, configured environment. Storage errors count as no stored
// preference; resolution itself never fails.
func Resolve(in Inputs) Resolved {
	s := in.Settings
	if s == nil {
		s = DefaultSettings()
	}

	env, ok := ParseEnvironment(string(s.Environment))
	if !ok {
		env = Production
	}
	source := SourceDefault

	stored, present := readStored(in.Stored)
	if storedEnv, valid := ParseEnvironment(stored); present && valid {
		env = storedEnv
		source = SourceStored
	} else if !present && IsLocalDevelopment(in.Location) {
		// A present but unrecognized value still suppresses auto-detection.
		env = Development
		source = SourceHostname
	}

	if s.ManualOverride != nil {
		if *s.ManualOverride {
			env = Production
		} else {
			env = Development
		}
		source = SourceManual
	}

	return Resolved{
		Policy:         s.Template(env),
		Environment:    env,
		ManualOverride: s.ManualOverride,
		Source:         source,
	}
}

func readStored(st Storage) (string, bool) {
	if st == nil {
		return "", false
	}
	v, ok, err := st.Get(StorageKey)
	if err != nil || !ok || v == "" {
		return "", false
	}
	return v, true
}

// IsLocalDevelopment reports whether a page location looks like a developer's
// machine: localhost, 127.0.0.1, an empty host, or a file: URL.
func IsLocalDevelopment(location string) bool {
	if location == "" {
		return true
	}
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Scheme, "file") {
		return true
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "":
		return true
	}
	return false
}

// Notice is the one-line status printed when a session opens.
func (r Resolved) Notice() string {
	state := "DISABLED"
	if r.Policy.SecurityEnabled {
		state = "ENABLED"
	}
	if r.Source == SourceManual {
		return fmt.Sprintf("Security: MANUAL OVERRIDE - %s", state)
	}
	return fmt.Sprintf("Security: %s MODE - %s", strings.ToUpper(string(r.Environment)), state)
}
