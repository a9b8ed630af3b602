package internal

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/delta/pkg/sanitizer"
)

// Filter wraps the execution of a forward.
// Implementations call chain.Next to continue, or return without calling it
// to stop the chain (for example after forwarding to a login action).
type Filter interface {
	DoFilter(c *Context, chain *FilterChain) error
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(c *Context, chain *FilterChain) error

// DoFilter implements Filter.
func (f FilterFunc) DoFilter(c *Context, chain *FilterChain) error {
	return f(c, chain)
}

// FilterFactory builds a filter from its declaration params.
// It is called once per forward, so filters may keep per-forward state.
type FilterFactory func(params Params) (Filter, error)

// FilterChain is the ordered list of filters for one forward.
// The last element is always the action filter.
type FilterChain struct {
	filters []Filter
	ids     []string
	pos     int
	forward *Forward
}

// Next invokes the next filter. It is a no-op past the end of the chain.
func (ch *FilterChain) Next(c *Context) error {
	if ch.pos >= len(ch.filters) {
		return nil
	}
	f := ch.filters[ch.pos]
	ch.pos++
	return f.DoFilter(c, ch)
}

// Forward returns the forward this chain executes.
func (ch *FilterChain) Forward() *Forward {
	return ch.forward
}

// Len returns the number of filters, the action filter included.
func (ch *FilterChain) Len() int {
	return len(ch.filters)
}

// IDs returns the ids of the configured filters in chain order.
func (ch *FilterChain) IDs() []string {
	return append([]string(nil), ch.ids...)
}

// FilterManager builds and runs a fresh chain for every forward.
type FilterManager struct {
	configs []FilterConfig
	classes map[string]FilterFactory
}

// NewFilterManager checks that every declared filter class exists.
func NewFilterManager(configs []FilterConfig, classes map[string]FilterFactory) (*FilterManager, error) {
	var errs []error
	for _, fc := range configs {
		if _, ok := classes[fc.Class]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q (filter %q)", ErrUnknownFilter, fc.Class, fc.ID))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &FilterManager{configs: configs, classes: classes}, nil
}

// DoFilters runs the configured filters and then the action of fwd.
func (m *FilterManager) DoFilters(c *Context, fwd *Forward) error {
	chain, err := m.chain(fwd)
	if err != nil {
		return err
	}
	return chain.Next(c)
}

func (m *FilterManager) chain(fwd *Forward) (*FilterChain, error) {
	ch := &FilterChain{
		filters: make([]Filter, 0, len(m.configs)+1),
		ids:     make([]string, 0, len(m.configs)),
		forward: fwd,
	}
	for _, fc := range m.configs {
		f, err := m.classes[fc.Class](fc.Params)
		if err != nil {
			return nil, fmt.Errorf("create filter %q: %w", fc.ID, err)
		}
		ch.filters = append(ch.filters, f)
		ch.ids = append(ch.ids, fc.ID)
	}
	ch.filters = append(ch.filters, actionFilter{})
	return ch, nil
}

// actionFilter terminates every chain: it sanitizes and validates input,
// executes the action and renders its component.
type actionFilter struct{}

func (actionFilter) DoFilter(c *Context, chain *FilterChain) error {
	inst := chain.Forward().Instance()
	if inst == nil {
		return ErrInternal("forward has no action instance")
	}
	behavior := inst.Behavior()

	if err := sanitizeInput(c.Request(), behavior); err != nil {
		return err
	}

	if inst.Validate() && !validateAction(c, inst) {
		if h, ok := inst.Action.(ValidateErrorHandler); ok {
			comp, err := h.ValidateErrorHandler(c)
			if err != nil {
				return err
			}
			return c.Render(comp)
		}
		return ErrUnprocessable("validation failed")
	}

	comp, err := inst.Execute(c)
	if err != nil {
		return err
	}
	return c.Render(comp)
}

// validateAction runs behavior rules and then the action's own validator.
// Both always run so every failure is recorded.
func validateAction(c *Context, inst *ActionInstance) bool {
	ok := true
	if b := inst.Behavior(); b != nil {
		ok = b.validateInput(c.Request(), c.Messages())
	}
	if v, isValidator := inst.Action.(Validator); isValidator {
		ok = v.Validate(c) && ok
	}
	return ok
}

func sanitizeInput(req *Request, b *Behavior) error {
	if b == nil {
		return nil
	}
	for field, policy := range b.Sanitize {
		p, err := sanitizer.Lookup(policy)
		if err != nil {
			return errors.Join(ErrInvalidConfig, fmt.Errorf("field %q: %w", field, err))
		}
		req.replaceInput(field, p)
	}
	return nil
}
