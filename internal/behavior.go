package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"net/mail"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Behavior is the per-action configuration file:
//
//	roles: [admin]
//	sanitize:
//	  comment: html
//	  name: strict
//	validate:
//	  name: [required, "max_length:32"]
//	  email: [required, email]
//	  code: ["pattern:^[A-Z]{3}$"]
type Behavior struct {
	Roles    []string            `yaml:"roles"`
	Sanitize map[string]string   `yaml:"sanitize"`
	Validate map[string][]string `yaml:"validate"`

	rules map[string][]rule
}

// behaviorPath returns the behavior file location for an action.
func behaviorPath(modulePath, packagePath, className string) string {
	name := strings.TrimSuffix(className, "Action") + ".yaml"
	return path.Join(modulePath, "behaviors", packagePath, name)
}

// loadBehavior reads a behavior file. A missing file yields an empty behavior.
// Validation rules are parsed here, so a bad rule fails the lookup instead
// of passing silently at request time.
func loadBehavior(fsys fs.FS, file string) (*Behavior, error) {
	b := &Behavior{}
	if fsys == nil {
		return b, nil
	}
	data, err := fs.ReadFile(fsys, file)
	if errors.Is(err, fs.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read behavior %q: %w", file, err)
	}
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("parse behavior %q: %w", file, err)
	}
	if err := b.compile(); err != nil {
		return nil, fmt.Errorf("behavior %q: %w", file, err)
	}
	return b, nil
}

// compile parses every validation rule of b.
func (b *Behavior) compile() error {
	b.rules = make(map[string][]rule, len(b.Validate))
	for field, raws := range b.Validate {
		for _, raw := range raws {
			r, err := parseRule(raw)
			if err != nil {
				return fmt.Errorf("field %q: %w", field, err)
			}
			b.rules[field] = append(b.rules[field], r)
		}
	}
	return nil
}

// validateInput applies the behavior's validation rules to request input
// and records failures as field errors, one per field at most, in field
// name order. Returns true when every rule passed.
func (b *Behavior) validateInput(req *Request, msgs *ActionMessages) bool {
	ok := true
	for _, field := range slices.Sorted(maps.Keys(b.rules)) {
		value := req.Input(field)
		for _, r := range b.rules[field] {
			if msg := r.check(field, value); msg != "" {
				msgs.AddFieldError(field, msg)
				ok = false
				break
			}
		}
	}
	return ok
}

// rule is one parsed validation rule, "name" or "name:arg".
type rule struct {
	name string
	n    int
	re   *regexp.Regexp
}

func parseRule(raw string) (rule, error) {
	name, arg, _ := strings.Cut(raw, ":")
	r := rule{name: name}
	switch name {
	case "required", "numeric", "email":
	case "min_length", "max_length":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return r, fmt.Errorf("%w: rule %q needs a non-negative length", ErrInvalidConfig, raw)
		}
		r.n = n
	case "pattern":
		re, err := regexp.Compile(arg)
		if err != nil {
			return r, fmt.Errorf("%w: rule %q: %w", ErrInvalidConfig, raw, err)
		}
		r.re = re
	default:
		return r, fmt.Errorf("%w: unknown validation rule %q", ErrInvalidConfig, name)
	}
	return r, nil
}

// check returns a failure message or empty string. Only "required" and
// "max_length" apply to empty values.
func (r rule) check(field, value string) string {
	switch r.name {
	case "required":
		if strings.TrimSpace(value) == "" {
			return field + " is required"
		}
	case "max_length":
		if utf8.RuneCountInString(value) > r.n {
			return fmt.Sprintf("%s must be at most %d characters", field, r.n)
		}
	}
	if value == "" {
		return ""
	}
	switch r.name {
	case "min_length":
		if utf8.RuneCountInString(value) < r.n {
			return fmt.Sprintf("%s must be at least %d characters", field, r.n)
		}
	case "numeric":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return field + " must be numeric"
		}
	case "email":
		if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
			return field + " must be an email address"
		}
	case "pattern":
		if !r.re.MatchString(value) {
			return field + " has an invalid format"
		}
	}
	return ""
}
