package internal

import "fmt"

// message is a general message or error, optionally keyed.
type message struct {
	key  string
	text string
}

// ActionMessages collects the messages and errors produced while handling
// one request. It lives on the Context and is only cleared explicitly.
type ActionMessages struct {
	messages    []message
	errors      []message
	fieldErrors map[string]string
	fieldOrder  []string
}

// NewActionMessages creates an empty registry.
func NewActionMessages() *ActionMessages {
	return &ActionMessages{fieldErrors: make(map[string]string)}
}

// Add appends an unkeyed message.
func (m *ActionMessages) Add(text string) {
	m.messages = append(m.messages, message{text: text})
}

// AddKeyed appends a keyed message. Keys are unique.
func (m *ActionMessages) AddKeyed(key, text string) error {
	if hasKey(m.messages, key) {
		return fmt.Errorf("%w: message %q", ErrDuplicateMessageKey, key)
	}
	m.messages = append(m.messages, message{key: key, text: text})
	return nil
}

// AddError appends an unkeyed error.
func (m *ActionMessages) AddError(text string) {
	m.errors = append(m.errors, message{text: text})
}

// AddKeyedError appends a keyed error. Keys are unique.
func (m *ActionMessages) AddKeyedError(key, text string) error {
	if hasKey(m.errors, key) {
		return fmt.Errorf("%w: error %q", ErrDuplicateMessageKey, key)
	}
	m.errors = append(m.errors, message{key: key, text: text})
	return nil
}

// AddFieldError sets the error of a form field, replacing any previous one.
func (m *ActionMessages) AddFieldError(field, text string) {
	if _, ok := m.fieldErrors[field]; !ok {
		m.fieldOrder = append(m.fieldOrder, field)
	}
	m.fieldErrors[field] = text
}

// Messages returns the general messages in insertion order.
func (m *ActionMessages) Messages() []string { return texts(m.messages) }

// Message returns a keyed message.
func (m *ActionMessages) Message(key string) (string, bool) { return find(m.messages, key) }

// Errors returns the general errors in insertion order.
func (m *ActionMessages) Errors() []string { return texts(m.errors) }

// Error returns a keyed error.
func (m *ActionMessages) Error(key string) (string, bool) { return find(m.errors, key) }

// FieldError returns the error of a form field.
func (m *ActionMessages) FieldError(field string) (string, bool) {
	text, ok := m.fieldErrors[field]
	return text, ok
}

// FieldErrors returns field errors in the order fields first failed.
func (m *ActionMessages) FieldErrors() []Param {
	out := make([]Param, 0, len(m.fieldOrder))
	for _, f := range m.fieldOrder {
		out = append(out, Param{Key: f, Value: m.fieldErrors[f]})
	}
	return out
}

// HasMessages reports whether any general message exists.
func (m *ActionMessages) HasMessages() bool { return len(m.messages) > 0 }

// HasErrors reports whether any general or field error exists.
func (m *ActionMessages) HasErrors() bool {
	return len(m.errors) > 0 || len(m.fieldErrors) > 0
}

// Clear removes every message and error.
func (m *ActionMessages) Clear() {
	m.messages = nil
	m.errors = nil
	m.fieldErrors = make(map[string]string)
	m.fieldOrder = nil
}

func hasKey(list []message, key string) bool {
	_, ok := find(list, key)
	return ok
}

func find(list []message, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for _, msg := range list {
		if msg.key == key {
			return msg.text, true
		}
	}
	return "", false
}

func texts(list []message) []string {
	out := make([]string, len(list))
	for i, msg := range list {
		out[i] = msg.text
	}
	return out
}
