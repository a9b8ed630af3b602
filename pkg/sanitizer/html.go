package sanitizer

import (
	"errors"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// ErrUnknownPolicy is returned by Lookup for unregistered policy names.
var ErrUnknownPolicy = errors.New("sanitizer: unknown policy")

// Policy transforms one input value.
type Policy func(string) string

// Built-in policy names, usable from behavior files.
const (
	PolicyStrict = "strict" // strip all markup
	PolicyHTML   = "html"   // keep basic formatting
	PolicyUGC    = "ugc"    // bluemonday user generated content policy
	PolicyTrim   = "trim"   // trim surrounding whitespace
)

var (
	strictPolicy *bluemonday.Policy
	safePolicy   *bluemonday.Policy
	ugcPolicy    *bluemonday.Policy
	initOnce     sync.Once

	mu       sync.RWMutex
	policies = map[string]Policy{
		PolicyStrict: StripHTML,
		PolicyHTML:   SanitizeHTML,
		PolicyUGC:    SanitizeUGC,
		PolicyTrim:   strings.TrimSpace,
	}
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		safePolicy = bluemonday.NewPolicy()
		safePolicy.AllowStandardURLs()
		safePolicy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
		)
		safePolicy.AllowAttrs("href").OnElements("a")
		safePolicy.RequireNoFollowOnLinks(true)

		ugcPolicy = bluemonday.UGCPolicy()
	})
}

// StripHTML removes every tag and returns plain text.
func StripHTML(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SanitizeHTML allows safe formatting tags (p, a, strong, em, lists, code).
// Scripts, event handlers and javascript: URLs are removed.
func SanitizeHTML(s string) string {
	initPolicies()
	return safePolicy.Sanitize(s)
}

// SanitizeUGC applies bluemonday's user generated content policy.
func SanitizeUGC(s string) string {
	initPolicies()
	return ugcPolicy.Sanitize(s)
}

// Register adds or replaces a named policy.
func Register(name string, p Policy) {
	mu.Lock()
	defer mu.Unlock()
	policies[name] = p
}

// RegisterBluemonday registers a custom bluemonday policy under name.
func RegisterBluemonday(name string, policy *bluemonday.Policy) {
	Register(name, policy.Sanitize)
}

// Lookup returns the policy registered under name.
func Lookup(name string) (Policy, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := policies[name]
	if !ok {
		return nil, errors.Join(ErrUnknownPolicy, errors.New(name))
	}
	return p, nil
}

// Apply runs the named policy over s.
func Apply(name, s string) (string, error) {
	p, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return p(s), nil
}
