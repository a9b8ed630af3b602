package internal

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// BootMode tells whether the process serves HTTP or runs a console task.
// Listener masks are compared with a bitwise AND.
type BootMode int

const (
	BootWeb     BootMode = 1 << 0
	BootConsole BootMode = 1 << 1
	BootAll              = BootWeb | BootConsole
)

func (m BootMode) String() string {
	switch m {
	case BootWeb:
		return "web"
	case BootConsole:
		return "console"
	case BootAll:
		return "all"
	}
	return fmt.Sprintf("BootMode(%d)", int(m))
}

// Event names a kernel lifecycle event.
type Event string

const (
	EventPreProcess       Event = "preProcess"
	EventPostRouteConnect Event = "postRouteConnect"
	EventPreOutput        Event = "preOutput"
	EventPostProcess      Event = "postProcess"
	EventPreShutdown      Event = "preShutdown"
)

// EventArgs carries event arguments.
// For preOutput, listeners replace Output to change what is sent.
type EventArgs struct {
	Context *Context
	Output  []byte
}

// Listener is the marker every kernel event listener implements.
type Listener interface {
	// BootMode returns the boot modes the listener runs in.
	BootMode() BootMode
	// ListenEvents returns the events the listener handles.
	ListenEvents() []Event
}

// Per-event capabilities. A listener must implement the interface of every
// event it lists in ListenEvents.
type (
	PreProcessListener interface {
		PreProcess(ctx context.Context) error
	}
	PostRouteConnectListener interface {
		PostRouteConnect(c *Context) error
	}
	PreOutputListener interface {
		PreOutput(c *Context, output []byte) ([]byte, error)
	}
	PostProcessListener interface {
		PostProcess(c *Context) error
	}
	PreShutdownListener interface {
		PreShutdown(ctx context.Context) error
	}
)

// ListenerFactory builds a listener from its declaration params.
// It returns any so that declarations of non-listeners are caught at registration.
type ListenerFactory func(params Params) (any, error)

type registeredListener struct {
	id       string
	listener Listener
	events   []Event
}

// KernelEventObserver fans lifecycle events out to registered listeners.
// Registration happens at boot; dispatch is safe for concurrent requests.
type KernelEventObserver struct {
	mode      BootMode
	classes   map[string]ListenerFactory
	fallback  Listener
	logger    *slog.Logger
	mu        sync.RWMutex
	listeners []registeredListener
	ids       map[string]bool
	shutdown  sync.Once
	closed    atomic.Bool
}

// NewKernelEventObserver creates an observer for mode.
// fallback handles events no registered listener caught; it may be nil.
func NewKernelEventObserver(mode BootMode, classes map[string]ListenerFactory, fallback Listener, logger *slog.Logger) *KernelEventObserver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &KernelEventObserver{
		mode:     mode,
		classes:  classes,
		fallback: fallback,
		logger:   logger,
		ids:      make(map[string]bool),
	}
}

// BootMode returns the process boot mode.
func (o *KernelEventObserver) BootMode() BootMode {
	return o.mode
}

// AddEventListener instantiates and registers a listener.
//
// It returns false without registering when the listener's boot mode does
// not overlap the process boot mode. After a successful registration it
// dispatches preProcess to every registered listener, including ones that
// already received it.
func (o *KernelEventObserver) AddEventListener(ctx context.Context, id string, cfg ListenerConfig) (bool, error) {
	factory, ok := o.classes[cfg.Class]
	if !ok {
		return false, fmt.Errorf("%w: %q (listener %q)", ErrUnknownListener, cfg.Class, id)
	}
	v, err := factory(cfg.Params)
	if err != nil {
		return false, fmt.Errorf("create listener %q: %w", id, err)
	}
	return o.register(ctx, id, v)
}

// AddListener registers an already constructed listener, with the same
// boot-mode gating and preProcess behavior as AddEventListener.
func (o *KernelEventObserver) AddListener(ctx context.Context, id string, l Listener) (bool, error) {
	return o.register(ctx, id, l)
}

func (o *KernelEventObserver) register(ctx context.Context, id string, v any) (bool, error) {
	l, ok := v.(Listener)
	if !ok {
		return false, &ListenerContractError{ListenerID: id}
	}
	if l.BootMode()&o.mode == 0 {
		o.logger.Debug("listener skipped for boot mode",
			slog.String("listener", id),
			slog.String("boot_mode", o.mode.String()),
		)
		return false, nil
	}

	o.mu.Lock()
	if o.ids[id] {
		o.mu.Unlock()
		return false, fmt.Errorf("%w: duplicate listener id %q", ErrInvalidConfig, id)
	}
	o.ids[id] = true
	o.listeners = append(o.listeners, registeredListener{
		id:       id,
		listener: l,
		events:   slices.Clone(l.ListenEvents()),
	})
	o.mu.Unlock()

	// Every registration re-fires preProcess to all listeners so far.
	if err := o.DispatchEvent(ctx, EventPreProcess, &EventArgs{}); err != nil {
		return true, err
	}
	return true, nil
}

// Listeners returns registered listener ids in registration order.
func (o *KernelEventObserver) Listeners() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, len(o.listeners))
	for i, rl := range o.listeners {
		ids[i] = rl.id
	}
	return ids
}

// DispatchEvent invokes every listener interested in event, in registration order.
// When none is, the boot mode's fallback listener handles it if it can.
func (o *KernelEventObserver) DispatchEvent(ctx context.Context, event Event, args *EventArgs) error {
	if args == nil {
		args = &EventArgs{}
	}

	o.mu.RLock()
	listeners := slices.Clone(o.listeners)
	o.mu.RUnlock()

	caught := false
	for _, rl := range listeners {
		if !slices.Contains(rl.events, event) {
			continue
		}
		handled, err := invokeListener(ctx, rl.listener, event, args)
		if !handled {
			return &ListenerContractError{ListenerID: rl.id, Event: event}
		}
		if err != nil {
			return fmt.Errorf("listener %q %s: %w", rl.id, event, err)
		}
		caught = true
	}

	if !caught && o.fallback != nil {
		if _, err := invokeListener(ctx, o.fallback, event, args); err != nil {
			return fmt.Errorf("default listener %s: %w", event, err)
		}
	}
	return nil
}

// Shutdown dispatches preShutdown. Only the first call has an effect.
func (o *KernelEventObserver) Shutdown(ctx context.Context) error {
	var err error
	o.shutdown.Do(func() {
		o.closed.Store(true)
		err = o.DispatchEvent(ctx, EventPreShutdown, &EventArgs{})
	})
	return err
}

// IsShutdown reports whether Shutdown has been called.
func (o *KernelEventObserver) IsShutdown() bool {
	return o.closed.Load()
}

// invokeListener calls the event method of l.
// It reports false when l does not implement the event.
func invokeListener(ctx context.Context, l Listener, event Event, args *EventArgs) (bool, error) {
	switch event {
	case EventPreProcess:
		h, ok := l.(PreProcessListener)
		if !ok {
			return false, nil
		}
		return true, h.PreProcess(ctx)
	case EventPostRouteConnect:
		h, ok := l.(PostRouteConnectListener)
		if !ok {
			return false, nil
		}
		return true, h.PostRouteConnect(args.Context)
	case EventPreOutput:
		h, ok := l.(PreOutputListener)
		if !ok {
			return false, nil
		}
		out, err := h.PreOutput(args.Context, args.Output)
		if err != nil {
			return true, err
		}
		args.Output = out
		return true, nil
	case EventPostProcess:
		h, ok := l.(PostProcessListener)
		if !ok {
			return false, nil
		}
		return true, h.PostProcess(args.Context)
	case EventPreShutdown:
		h, ok := l.(PreShutdownListener)
		if !ok {
			return false, nil
		}
		return true, h.PreShutdown(ctx)
	}
	return false, nil
}
