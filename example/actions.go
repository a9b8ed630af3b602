package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/delta"
)

// indexAction renders the home page.
type indexAction struct{}

func (indexAction) Execute(c *delta.Context) (delta.Component, error) {
	return homePage(c.User().ID()), nil
}

// contactAction renders the contact form.
type contactAction struct{}

func (contactAction) Execute(c *delta.Context) (delta.Component, error) {
	return contactForm(c), nil
}

// sendAction accepts the contact form. Sanitizing and validation rules
// live in behaviors/Send.yaml.
type sendAction struct{}

func (sendAction) Execute(c *delta.Context) (delta.Component, error) {
	c.LogInfo("contact form received", "email", c.Input("email"))
	c.Messages().Add("Thanks, we will get back to you.")
	return nil, c.ForwardWithoutValidation("contact")
}

// ValidateErrorHandler shows the form again with field errors.
func (sendAction) ValidateErrorHandler(c *delta.Context) (delta.Component, error) {
	c.SetStatus(http.StatusUnprocessableEntity)
	return nil, c.ForwardWithoutValidation("contact")
}

// loginAction signs in with ?user=name&role=admin. It stands in for a real
// credential check.
type loginAction struct{}

func (loginAction) Execute(c *delta.Context) (delta.Component, error) {
	user := delta.QueryDefault(c, "user", "")
	if user == "" {
		c.SetStatus(http.StatusUnauthorized)
		return errorPage(http.StatusUnauthorized, "add ?user=name&role=admin to sign in"), nil
	}
	if err := c.User().Login(user, strings.Split(delta.QueryDefault(c, "role", "member"), ",")...); err != nil {
		return nil, err
	}
	home, err := c.URL("home", nil)
	if err != nil {
		return nil, err
	}
	return nil, c.Redirect(http.StatusSeeOther, home)
}

type logoutAction struct{}

func (logoutAction) Execute(c *delta.Context) (delta.Component, error) {
	if err := c.User().Logout(); err != nil {
		return nil, err
	}
	return nil, c.Redirect(http.StatusSeeOther, "/")
}

// dashboardAction is restricted to admins by behaviors/admin/Dashboard.yaml.
type dashboardAction struct{}

func (dashboardAction) Execute(c *delta.Context) (delta.Component, error) {
	return dashboardPage(c.User().ID(), c.User().Roles()), nil
}

// reportAction prints a plain text report; it is meant for console mode.
type reportAction struct{}

func (reportAction) Execute(c *delta.Context) (delta.Component, error) {
	days := delta.QueryDefault(c, "days", 7)
	since := time.Now().AddDate(0, 0, -days).Format(time.DateOnly)
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	return nil, c.String("report since " + since + " (" + c.BootMode().String() + ")")
}

// actions registers every action of module main.
func actions() []delta.Option {
	return []delta.Option{
		delta.WithAction("main", "", "index", func() delta.Action { return indexAction{} }),
		delta.WithAction("main", "", "contact", func() delta.Action { return contactAction{} }),
		delta.WithAction("main", "", "send", func() delta.Action { return sendAction{} }),
		delta.WithAction("main", "", "login", func() delta.Action { return loginAction{} }),
		delta.WithAction("main", "", "logout", func() delta.Action { return logoutAction{} }),
		delta.WithAction("main", "", "report", func() delta.Action { return reportAction{} }),
		delta.WithAction("main", "admin", "dashboard", func() delta.Action { return dashboardAction{} }),
	}
}
