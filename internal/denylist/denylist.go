package denylist

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Patterns holds the raw pattern strings.
type Patterns struct {
	URLs []string `yaml:"urls"`
}

// Denylist holds compiled URL patterns for fast matching.
// There is no allowlist: any match flags the request.
type Denylist struct {
	urlPatterns []*regexp.Regexp
	raw         Patterns
}

// New creates a Denylist from raw patterns, compiling regexes.
// Patterns that fail to compile are skipped.
func New(p Patterns) *Denylist {
	d := &Denylist{raw: p}
	for _, u := range p.URLs {
		if compiled, err := regexp.Compile("(?i)" + patternToRegex(u)); err == nil {
			d.urlPatterns = append(d.urlPatterns, compiled)
		}
	}
	return d
}

// NewDefault creates a Denylist with the hardcoded default patterns.
func NewDefault() *Denylist {
	return New(DefaultPatterns)
}

// Load reads a denylist from a YAML file. Falls back to defaults if file doesn't exist.
func Load(path string) (*Denylist, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return NewDefault(), nil
		}
		path = filepath.Join(home, ".pagewarden", "denylist.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDefault(), nil
		}
		return nil, err
	}

	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return New(p), nil
}

// IsSuspicious checks a request URL against every pattern.
// Returns (matched, reason).
func (d *Denylist) IsSuspicious(url string) (bool, string) {
	for _, re := range d.urlPatterns {
		if re.MatchString(url) {
			return true, "URL pattern matched: " + re.String()
		}
	}
	return false, ""
}

// AddPattern adds a URL pattern at runtime.
func (d *Denylist) AddPattern(pattern string) {
	d.raw.URLs = append(d.raw.URLs, pattern)
	if compiled, err := regexp.Compile("(?i)" + patternToRegex(pattern)); err == nil {
		d.urlPatterns = append(d.urlPatterns, compiled)
	}
}

// Patterns returns a copy of the raw patterns.
func (d *Denylist) Patterns() Patterns {
	return Patterns{URLs: append([]string(nil), d.raw.URLs...)}
}

// patternToRegex converts a simple glob-like pattern to an unanchored regex.
func patternToRegex(pattern string) string {
	escaped := regexp.QuoteMeta(pattern)
	// Restore * as .* for glob-style matching
	escaped = strings.ReplaceAll(escaped, `\*\*`, ".*")
	escaped = strings.ReplaceAll(escaped, `\*`, "[^/]*")
	return escaped
}
