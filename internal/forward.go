package internal

// MaxForwards bounds the forward chain of a single request.
const MaxForwards = 8

// Forward is one dispatch hop within a request.
type Forward struct {
	Module     string
	Controller string
	Action     string

	instance *ActionInstance
}

// NewForward creates a forward record for an action instance.
func NewForward(module, controller, action string, instance *ActionInstance) *Forward {
	return &Forward{
		Module:     module,
		Controller: controller,
		Action:     action,
		instance:   instance,
	}
}

// Instance returns the action bound to this hop.
func (f *Forward) Instance() *ActionInstance {
	return f.instance
}

// ForwardStack is the append-only chain of forwards of one request.
type ForwardStack struct {
	stack []*Forward
}

// Add appends a forward.
// It fails with a *ForwardLoopError once the chain would exceed MaxForwards.
func (s *ForwardStack) Add(f *Forward) error {
	if len(s.stack) >= MaxForwards {
		return newForwardLoopError(s.stack, f)
	}
	s.stack = append(s.stack, f)
	return nil
}

// Last returns the most recent forward.
func (s *ForwardStack) Last() (*Forward, error) {
	if len(s.stack) == 0 {
		return nil, ErrEmptyForwardStack
	}
	return s.stack[len(s.stack)-1], nil
}

// Previous returns the forward before the last one.
// It is only defined once at least three forwards exist.
func (s *ForwardStack) Previous() (*Forward, bool) {
	if len(s.stack) < 3 {
		return nil, false
	}
	return s.stack[len(s.stack)-2], true
}

// Size returns the number of forwards.
func (s *ForwardStack) Size() int {
	return len(s.stack)
}

// Stack returns a snapshot of the forwards in insertion order.
func (s *ForwardStack) Stack() []*Forward {
	out := make([]*Forward, len(s.stack))
	copy(out, s.stack)
	return out
}
