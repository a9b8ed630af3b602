package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Params is the free-form parameter map of a filter or listener declaration.
type Params map[string]any

// String returns a string parameter or def when missing.
func (p Params) String(key, def string) string {
	switch v := p[key].(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int returns an integer parameter or def when missing or malformed.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Bool returns a boolean parameter or def when missing or malformed.
func (p Params) Bool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Strings returns a string list parameter.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// RouteConfig declares one route table entry.
type RouteConfig struct {
	Name       string   `yaml:"name"`
	Path       string   `yaml:"path"`
	Methods    []string `yaml:"methods"`
	Module     string   `yaml:"module"`
	Controller string   `yaml:"controller"`
	Action     string   `yaml:"action"`
	// Packages restricts which action packages the route can reach.
	// Entries look like "main:/" or "main:/admin*". Empty means no restriction.
	Packages []string `yaml:"packages"`
}

// FilterConfig declares one filter chain entry.
type FilterConfig struct {
	ID     string `yaml:"id"`
	Class  string `yaml:"class"`
	Params Params `yaml:"params"`
}

// ListenerConfig declares one kernel event listener.
type ListenerConfig struct {
	ID     string `yaml:"id"`
	Class  string `yaml:"class"`
	Params Params `yaml:"params"`
}

// CachePolicy selects the lifetime of the action lookup cache.
type CachePolicy string

const (
	// CacheProcess shares action lookups across requests for the process lifetime.
	CacheProcess CachePolicy = "process"
	// CacheRequest keeps action lookups for a single request.
	CacheRequest CachePolicy = "request"
)

// Config is the declarative part of an application.
type Config struct {
	BaseURL     string            `yaml:"base_url"`
	ActionCache CachePolicy       `yaml:"action_cache"`
	Modules     map[string]string `yaml:"modules"` // module name -> directory
	Routes      []RouteConfig     `yaml:"routes"`
	Filters     []FilterConfig    `yaml:"filters"`
	Listeners   []ListenerConfig  `yaml:"listeners"`
}

// Validate checks structural constraints that YAML cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.ActionCache {
	case "", CacheProcess, CacheRequest:
	default:
		errs = append(errs, fmt.Errorf("action_cache %q", c.ActionCache))
	}

	names := make(map[string]bool, len(c.Routes))
	for i, r := range c.Routes {
		if r.Name == "" || r.Path == "" {
			errs = append(errs, fmt.Errorf("route #%d needs name and path", i))
			continue
		}
		if names[r.Name] {
			errs = append(errs, fmt.Errorf("duplicate route name %q", r.Name))
		}
		names[r.Name] = true
	}

	ids := make(map[string]bool, len(c.Filters))
	for i, f := range c.Filters {
		if f.ID == "" || f.Class == "" {
			errs = append(errs, fmt.Errorf("filter #%d needs id and class", i))
			continue
		}
		if ids[f.ID] {
			errs = append(errs, fmt.Errorf("duplicate filter id %q", f.ID))
		}
		ids[f.ID] = true
	}

	for i, l := range c.Listeners {
		if l.ID == "" || l.Class == "" {
			errs = append(errs, fmt.Errorf("listener #%d needs id and class", i))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// ParseConfig decodes and validates a YAML configuration document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads a YAML configuration file from fsys.
// A nil fsys reads from the working directory.
func LoadConfig(fsys fs.FS, path string) (*Config, error) {
	var (
		data []byte
		err  error
	)
	if fsys == nil {
		data, err = os.ReadFile(path)
	} else {
		data, err = fs.ReadFile(fsys, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return ParseConfig(data)
}
