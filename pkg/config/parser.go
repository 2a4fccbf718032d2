package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// MaxFileSize bounds how much of a configuration file is read.
const MaxFileSize = 1 << 20

// ParseFile reads path and parses it according to its extension.
// JSON, YAML, TOML, HCL, INI and properties files are understood.
func ParseFile(path string) (Configuration, error) {
	data, err := readLimited(path)
	if err != nil {
		return Configuration{}, NewParseError(path, "Failed to read configuration file", err)
	}
	return Parse(data, argus.DetectFormat(path), path)
}

// Parse turns raw configuration content into a Configuration. source is only
// used for error context.
//
// Nested maps become path segments. A map holding a "value" key, optionally
// with "description" and "default_level", is read as a single Parameter:
//
//	LogLevel: debug
//	DebugLevels:
//	  Test: 1
//	MonitoredSettings:
//	  DbPassword:
//	    value: s3cret
//	    description: production database password
func Parse(data []byte, format argus.ConfigFormat, source string) (Configuration, error) {
	var raw map[string]interface{}

	switch format {
	case argus.FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Configuration{}, NewParseError(source, "Invalid YAML configuration", err)
		}
	default:
		parsed, err := argus.ParseConfig(data, format)
		if err != nil {
			return Configuration{}, NewParseError(source, fmt.Sprintf("Invalid %v configuration", format), err)
		}
		raw = parsed
	}

	out := NewConfiguration()
	if err := flatten(&out, "", raw, source); err != nil {
		return Configuration{}, err
	}
	return out, nil
}

func flatten(out *Configuration, prefix string, node map[string]interface{}, source string) error {
	// sorted for deterministic error reporting
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		seg := strings.Trim(k, "/")
		if seg == "" {
			return NewParseError(source, "Empty configuration key", nil).WithContext("parent", prefix)
		}
		path := prefix + "/" + seg
		if err := ValidatePath(path); err != nil {
			return NewParseError(source, "Invalid configuration key", err).WithContext("path", path)
		}

		switch v := node[k].(type) {
		case map[string]interface{}:
			if p, ok := asParameter(v); ok {
				out.Keys[path] = p
				continue
			}
			if err := flatten(out, path, v, source); err != nil {
				return err
			}
		case []interface{}:
			return NewParseError(source, "Lists are not supported as configuration values", nil).
				WithContext("path", path)
		default:
			out.Keys[path] = Parameter{Value: scalarString(v)}
		}
	}
	return nil
}

func asParameter(m map[string]interface{}) (Parameter, bool) {
	value, ok := m["value"]
	if !ok {
		return Parameter{}, false
	}
	for k := range m {
		switch k {
		case "value", "description", "default_level":
		default:
			return Parameter{}, false
		}
	}
	p := Parameter{Value: scalarString(value)}
	if d, ok := m["description"]; ok {
		p.Description = scalarString(d)
	}
	if l, ok := m["default_level"]; ok {
		p.DefaultLevel = scalarString(l)
	}
	return p, true
}

func scalarString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("configuration file exceeds %d bytes", MaxFileSize)
	}
	return data, nil
}
