// Package config models hierarchical key/value configuration keyed by
// slash-delimited paths, parses it from structured text files and converts it
// into logger settings.
package config

import (
	"sort"
	"strings"
)

// Parameter is a single configuration value.
type Parameter struct {
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// DefaultLevel names the tier that supplied the value, e.g. "default" or
	// "client+application". Merge fills it in when empty.
	DefaultLevel string `json:"default_level,omitempty" yaml:"default_level,omitempty"`
}

// Configuration maps slash-delimited paths to parameters.
type Configuration struct {
	Keys map[string]Parameter
}

// NewConfiguration creates an empty configuration.
func NewConfiguration() Configuration {
	return Configuration{Keys: make(map[string]Parameter)}
}

// Set validates path and stores p under it, replacing any existing value.
func (c *Configuration) Set(path string, p Parameter) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if c.Keys == nil {
		c.Keys = make(map[string]Parameter)
	}
	c.Keys[path] = p
	return nil
}

// Get returns the parameter stored at path.
func (c Configuration) Get(path string) (Parameter, bool) {
	p, ok := c.Keys[path]
	return p, ok
}

// Paths returns all paths in sorted order.
func (c Configuration) Paths() []string {
	out := make([]string, 0, len(c.Keys))
	for p := range c.Keys {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Children returns the parameters directly below prefix, keyed by the
// remaining path. The first segment of prefix is matched case-insensitively.
//
//	c.Children("/DebugLevels") // {"Test": ..., "Db/Pool": ...}
func (c Configuration) Children(prefix string) (map[string]Parameter, bool) {
	want := strings.ToLower(strings.TrimSuffix(prefix, "/")) + "/"
	out := make(map[string]Parameter)
	found := false
	for path, p := range c.Keys {
		if len(path) <= len(want) || strings.ToLower(path[:len(want)]) != want {
			continue
		}
		found = true
		out[path[len(want):]] = p
	}
	return out, found
}

// Lookup finds a single path, matching case-insensitively.
func (c Configuration) Lookup(path string) (Parameter, bool) {
	if p, ok := c.Keys[path]; ok {
		return p, true
	}
	for k, p := range c.Keys {
		if strings.EqualFold(k, path) {
			return p, true
		}
	}
	return Parameter{}, false
}

// ValidatePath checks that path has a leading slash, no trailing slash and no
// empty segments.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return NewInvalidPathError(path, "empty path")
	case !strings.HasPrefix(path, "/"):
		return NewInvalidPathError(path, "missing leading slash")
	case path == "/":
		return NewInvalidPathError(path, "root is not a key")
	case strings.HasSuffix(path, "/"):
		return NewInvalidPathError(path, "trailing slash")
	case strings.Contains(path, "//"):
		return NewInvalidPathError(path, "empty segment")
	}
	return nil
}

// Tier is one level of a configuration hierarchy.
type Tier struct {
	Name string
	Keys map[string]Parameter
}

// Tier names used by the configuration server, least specific first.
const (
	TierDefault           = "default"
	TierApplication       = "application"
	TierClient            = "client"
	TierClientApplication = "client+application"
)

// Merge flattens tiers into one configuration. Tiers are ordered from least to
// most specific; a later tier overrides earlier ones path by path. The winning
// parameter keeps its DefaultLevel if it has one, otherwise it is stamped with
// the name of the tier that supplied it.
func Merge(tiers ...Tier) (Configuration, error) {
	out := NewConfiguration()
	for _, tier := range tiers {
		for path, p := range tier.Keys {
			if err := ValidatePath(path); err != nil {
				return Configuration{}, err
			}
			if p.DefaultLevel == "" {
				p.DefaultLevel = tier.Name
			}
			out.Keys[path] = p
		}
	}
	return out, nil
}
