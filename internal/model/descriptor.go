package model

import (
	"fmt"
	"strings"
)

// InspectedAttributes is the fixed attribute set captured for every resolved
// element, including the framework-binding attributes modern stacks use in
// place of name/id. Attribute names are compared lower-cased.
var InspectedAttributes = []string{
	"name",
	"id",
	"type",
	"placeholder",
	"aria-label",
	"role",
	"class",
	"href",
	"formcontrolname",
	"data-testid",
	"routerlink",
}

// labelAttrOrder ranks attributes by how well they identify an element in a
// human-readable report line.
var labelAttrOrder = []string{"name", "formcontrolname", "id", "data-testid", "aria-label", "type", "placeholder", "role"}

// ElementDescriptor is the normalized, side-agnostic snapshot of one resolved
// element. It is materialized once per element per comparison pass; all
// comparison logic operates on descriptors, never on live handles.
type ElementDescriptor struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Required bool              `json:"required,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`
}

// Attr returns the value of an inspected attribute.
func (d ElementDescriptor) Attr(name string) (string, bool) {
	value, ok := d.Attrs[strings.ToLower(name)]
	return value, ok
}

// Label renders a compact identifier for report lists, preferring the most
// distinctive attribute and falling back to visible text.
func (d ElementDescriptor) Label() string {
	for _, name := range labelAttrOrder {
		if value, ok := d.Attrs[name]; ok && value != "" {
			return fmt.Sprintf("%s[%s='%s']", d.Tag, name, value)
		}
	}

	if d.Text != "" {
		text := d.Text
		if len(text) > 40 {
			text = text[:40] + "..."
		}

		return fmt.Sprintf("%s %q", d.Tag, text)
	}

	return d.Tag
}
