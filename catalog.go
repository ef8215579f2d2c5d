package flow

import (
	"fmt"
	"slices"
	"strings"
)

// Template describes a selectable node; it is the input to AddNode.
type Template struct {
	Kind        Kind   `json:"type" validate:"required,oneof=trigger action router"`
	Category    string `json:"category" validate:"required"`
	Label       string `json:"label" validate:"required,notblank"`
	Description string `json:"description"`
}

var categories = map[Kind][]string{
	KindTrigger: {"email", "time", "event"},
	KindAction:  {"email", "sms", "database", "webhook"},
	KindRouter:  {"conditional", "parallel", "random"},
}

var catalog = []Template{
	{KindTrigger, "email", "Email Received", "Triggers when a new email is received"},
	{KindTrigger, "email", "Email Opened", "Triggers when an email is opened by recipient"},
	{KindTrigger, "time", "Schedule", "Triggers at specific time intervals"},
	{KindTrigger, "time", "Date Reached", "Triggers when a specific date is reached"},
	{KindTrigger, "event", "Form Submission", "Triggers when a form is submitted"},
	{KindTrigger, "event", "Page Visit", "Triggers when a specific page is visited"},

	{KindAction, "email", "Send Email", "Send an email to specified recipients"},
	{KindAction, "email", "Add to List", "Add contact to email list"},
	{KindAction, "sms", "Send SMS", "Send SMS message to phone number"},
	{KindAction, "database", "Update Contact", "Update contact information in database"},
	{KindAction, "database", "Create Record", "Create new record in database"},
	{KindAction, "webhook", "Send Webhook", "Send HTTP request to external service"},

	{KindRouter, "conditional", "If/Then Router", "Route based on conditional logic"},
	{KindRouter, "parallel", "Parallel Router", "Execute multiple paths simultaneously"},
	{KindRouter, "random", "Random Router", "Randomly select one of multiple paths"},
}

// Catalog returns every node template, grouped by kind.
func Catalog() []Template {
	return slices.Clone(catalog)
}

// CatalogOf returns the templates of one kind.
func CatalogOf(kind Kind) []Template {
	var out []Template
	for _, t := range catalog {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the categories allowed for kind.
func Categories(kind Kind) []string {
	return slices.Clone(categories[kind])
}

// Lookup finds a template by kind and label, case-insensitively.
func Lookup(kind Kind, label string) (Template, bool) {
	for _, t := range catalog {
		if t.Kind == kind && strings.EqualFold(t.Label, label) {
			return t, true
		}
	}
	return Template{}, false
}

// Search returns templates whose label, description or category contain query.
// An empty query returns the whole catalog.
func Search(query string) []Template {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Catalog()
	}
	var out []Template
	for _, t := range catalog {
		if strings.Contains(strings.ToLower(t.Label), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(t.Category, q) {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks required fields and that the category belongs to the kind.
func (t Template) Validate() error {
	if err := check(t); err != nil {
		return err
	}
	if !slices.Contains(categories[t.Kind], t.Category) {
		return invalid("Template.Category", fmt.Sprintf("%q is not a %s category", t.Category, t.Kind))
	}
	return nil
}
