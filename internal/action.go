package internal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Component is the interface for renderable views.
// This is compatible with templ.Component.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// Action is a unit of business logic executed for one forward.
// A returned Component is rendered into the response buffer.
// Returning nil, nil means the action wrote its own output (or forwarded).
type Action interface {
	Execute(c *Context) (Component, error)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(c *Context) (Component, error)

// Execute implements Action.
func (f ActionFunc) Execute(c *Context) (Component, error) {
	return f(c)
}

// Validator is implemented by actions that validate their own input.
// It runs after behavior rules when the forward requests validation.
type Validator interface {
	Validate(c *Context) bool
}

// ValidateErrorHandler is implemented by actions that handle failed validation,
// typically by forwarding back to the form.
type ValidateErrorHandler interface {
	ValidateErrorHandler(c *Context) (Component, error)
}

// ActionFactory creates a fresh action for each forward.
type ActionFactory func() Action

// ActionInstance is an action bound to its resolution metadata.
type ActionInstance struct {
	Action
	name     string
	pkg      string
	validate bool
	behavior *Behavior
}

// Name returns the action name as requested.
func (a *ActionInstance) Name() string { return a.name }

// Package returns the access-control package, e.g. "main:/" or "main:admin".
func (a *ActionInstance) Package() string { return a.pkg }

// Validate reports whether input validation runs before Execute.
func (a *ActionInstance) Validate() bool { return a.validate }

// Roles returns the roles required to execute the action.
func (a *ActionInstance) Roles() []string {
	return append([]string(nil), a.behavior.Roles...)
}

// Behavior returns the per-action behavior configuration.
func (a *ActionInstance) Behavior() *Behavior { return a.behavior }

// actionEntry is a registered action class.
type actionEntry struct {
	module      string
	packagePath string // "" for actions at the module root
	className   string
	factory     ActionFactory
}

// ActionRegistry maps module + class name to action factories.
// It replaces locating action sources by file name.
type ActionRegistry struct {
	mu      sync.RWMutex
	entries map[string]actionEntry
}

// NewActionRegistry creates an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{entries: make(map[string]actionEntry)}
}

// Register adds an action under module and packagePath.
// name is the action name as routes spell it ("hello", "user-list");
// it is stored under its class name ("HelloAction", "UserListAction").
func (r *ActionRegistry) Register(module, packagePath, name string, factory ActionFactory) error {
	if module == "" || name == "" || factory == nil {
		return fmt.Errorf("%w: action needs module, name and factory", ErrInvalidConfig)
	}
	className := ActionClassName(name)
	key := registryKey(module, className)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.entries[key]; dup {
		return fmt.Errorf("%w: action %s already registered in module %q", ErrInvalidConfig, className, module)
	}
	r.entries[key] = actionEntry{
		module:      module,
		packagePath: strings.Trim(packagePath, "/"),
		className:   className,
		factory:     factory,
	}
	return nil
}

func (r *ActionRegistry) lookup(module, className string) (actionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[registryKey(module, className)]
	return e, ok
}

func registryKey(module, className string) string {
	return module + ":" + className
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// ActionClassName converts an action name to its class name:
// "hello" -> "HelloAction", "user-list" -> "UserListAction".
// Names already ending in "Action" are kept.
func ActionClassName(name string) string {
	if strings.HasSuffix(name, "Action") {
		return name
	}
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(titleCaser.String(p))
	}
	b.WriteString("Action")
	return b.String()
}

// packageName derives the access-control package of an action.
func packageName(module, packagePath string) string {
	if packagePath == "" {
		return module + ":/"
	}
	return module + ":" + packagePath
}
