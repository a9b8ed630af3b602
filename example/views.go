package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/delta"
)

// layout wraps body in the page chrome.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body><main>",
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main></body></html>")
		return err
	})
}

func homePage(user string) templ.Component {
	return layout("Home", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		greeting := "Hello, guest"
		if user != "" {
			greeting = "Hello, " + user
		}
		_, err := fmt.Fprintf(w, `<h1>%s</h1><p><a href="/contact">Contact us</a></p>`, templ.EscapeString(greeting))
		return err
	}))
}

// contactForm renders the form with the messages of the current request.
func contactForm(c *delta.Context) templ.Component {
	return layout("Contact", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		for _, msg := range c.Messages().Messages() {
			fmt.Fprintf(&b, `<p class="notice">%s</p>`, templ.EscapeString(msg))
		}
		b.WriteString(`<form method="post" action="/send">`)
		for _, field := range []string{"name", "email", "message"} {
			fmt.Fprintf(&b, `<label>%s <input name="%s" value="%s"></label>`,
				field, field, templ.EscapeString(c.Input(field)))
			if msg, ok := c.Messages().FieldError(field); ok {
				fmt.Fprintf(&b, `<span class="error">%s</span>`, templ.EscapeString(msg))
			}
		}
		b.WriteString(`<button>Send</button></form>`)
		_, err := io.WriteString(w, b.String())
		return err
	}))
}

func dashboardPage(user string, roles []string) templ.Component {
	return layout("Dashboard", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<h1>Dashboard</h1><p>%s (%s)</p>",
			templ.EscapeString(user), templ.EscapeString(strings.Join(roles, ", ")))
		return err
	}))
}

func errorPage(status int, message string) templ.Component {
	return layout("Error", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<h1>%d</h1><p>%s</p>", status, templ.EscapeString(message))
		return err
	}))
}
