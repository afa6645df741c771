package adapter

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// Selector is a compiled structural selector covering the subset of CSS the
// mapping files need:
//   - tag, "*": "input", "button", "*"
//   - #id, .class: "#username", ".btn-primary"
//   - [attr], [attr=v], [attr*=v], [attr^=v], [attr$=v]
//   - :not([attr...]) on a single attribute condition
//   - combinations of the above: "input[type='submit'].wide"
//   - descendant combinator: "nav a", "table td a"
//
// Anything else is rejected at parse time so callers can degrade to a
// resolution warning instead of silently matching nothing.
type Selector struct {
	raw   string
	parts []simpleSelector
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrs   []attrCond
	not     []attrCond
}

type attrCond struct {
	key string
	op  string // "", "=", "*=", "^=", "$="
	val string
}

// ParseSelector compiles a selector string. Unsupported syntax wraps
// model.ErrInvalidSelector.
func ParseSelector(raw string) (Selector, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Selector{}, fmt.Errorf("%w: empty selector", m.ErrInvalidSelector)
	}

	parts := make([]simpleSelector, 0, len(fields))

	for _, field := range fields {
		part, err := parseSimpleSelector(field)
		if err != nil {
			return Selector{}, fmt.Errorf("%w: %q: %v", m.ErrInvalidSelector, raw, err)
		}

		parts = append(parts, part)
	}

	return Selector{raw: raw, parts: parts}, nil
}

// parseSimpleSelector parses one combinator-free selector part.
func parseSimpleSelector(sel string) (simpleSelector, error) {
	var (
		part simpleSelector
		rest = sel
	)

	// Leading tag name or universal selector.
	switch {
	case strings.HasPrefix(rest, "*"):
		part.tag = "*"
		rest = rest[1:]
	default:
		i := 0
		for i < len(rest) && (isNameByte(rest[i]) || (i > 0 && rest[i] == '-')) {
			i++
		}

		part.tag = strings.ToLower(rest[:i])
		rest = rest[i:]
	}

	for rest != "" {
		switch rest[0] {
		case '#':
			name, remainder, err := readName(rest[1:])
			if err != nil {
				return part, fmt.Errorf("bad id selector")
			}

			part.id = name
			rest = remainder
		case '.':
			name, remainder, err := readName(rest[1:])
			if err != nil {
				return part, fmt.Errorf("bad class selector")
			}

			part.classes = append(part.classes, name)
			rest = remainder
		case '[':
			cond, remainder, err := readAttrCond(rest)
			if err != nil {
				return part, err
			}

			part.attrs = append(part.attrs, cond)
			rest = remainder
		case ':':
			if !strings.HasPrefix(rest, ":not([") {
				return part, fmt.Errorf("unsupported pseudo-class")
			}

			inner := rest[len(":not("):]

			cond, remainder, err := readAttrCond(inner)
			if err != nil {
				return part, err
			}

			if !strings.HasPrefix(remainder, ")") {
				return part, fmt.Errorf("unterminated :not()")
			}

			part.not = append(part.not, cond)
			rest = remainder[1:]
		default:
			return part, fmt.Errorf("unexpected %q", rest)
		}
	}

	if part.tag == "" && part.id == "" && len(part.classes) == 0 && len(part.attrs) == 0 && len(part.not) == 0 {
		return part, fmt.Errorf("empty selector part")
	}

	return part, nil
}

func isNameByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

// readName consumes an identifier and returns it with the remaining input.
func readName(s string) (string, string, error) {
	i := 0
	for i < len(s) && (isNameByte(s[i]) || s[i] == '-') {
		i++
	}

	if i == 0 {
		return "", s, fmt.Errorf("empty name")
	}

	return s[:i], s[i:], nil
}

// readAttrCond consumes "[key]", "[key=val]", "[key*=val]" and friends,
// with optional quoting of val.
func readAttrCond(s string) (attrCond, string, error) {
	if !strings.HasPrefix(s, "[") {
		return attrCond{}, s, fmt.Errorf("expected attribute selector")
	}

	end := strings.IndexByte(s, ']')
	if end < 0 {
		return attrCond{}, s, fmt.Errorf("unterminated attribute selector")
	}

	body := s[1:end]
	rest := s[end+1:]

	var cond attrCond

	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		cond.key = strings.ToLower(strings.TrimSpace(body))
		if cond.key == "" {
			return cond, rest, fmt.Errorf("empty attribute name")
		}

		return cond, rest, nil
	}

	key := body[:eq]
	cond.op = "="

	if len(key) > 0 {
		switch key[len(key)-1] {
		case '*', '^', '$':
			cond.op = string(key[len(key)-1]) + "="
			key = key[:len(key)-1]
		}
	}

	cond.key = strings.ToLower(strings.TrimSpace(key))
	cond.val = trimQuotes(strings.TrimSpace(body[eq+1:]))

	if cond.key == "" {
		return cond, rest, fmt.Errorf("empty attribute name")
	}

	return cond, rest, nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}

	return s
}

func (c attrCond) holds(value string, present bool) bool {
	if c.op == "" {
		return present
	}

	if !present {
		return false
	}

	switch c.op {
	case "=":
		return value == c.val
	case "*=":
		return strings.Contains(value, c.val)
	case "^=":
		return strings.HasPrefix(value, c.val)
	case "$=":
		return strings.HasSuffix(value, c.val)
	}

	return false
}

// MatchAll returns the nodes under root matching the selector, in document
// order, without duplicates.
func (s Selector) MatchAll(root *html.Node) []*html.Node {
	if len(s.parts) == 0 {
		return nil
	}

	matches := matchPart(root, s.parts[0], true)

	for _, part := range s.parts[1:] {
		seen := make(map[*html.Node]struct{}, len(matches))

		var next []*html.Node

		for _, ancestor := range matches {
			for _, n := range matchPart(ancestor, part, false) {
				if _, ok := seen[n]; ok {
					continue
				}

				seen[n] = struct{}{}
				next = append(next, n)
			}
		}

		matches = next
	}

	return matches
}

// matchPart walks the subtree and collects nodes matching one selector part.
// The root itself is only eligible for the first part of a chain.
func matchPart(root *html.Node, part simpleSelector, includeRoot bool) []*html.Node {
	var results []*html.Node

	var walk func(n *html.Node, eligible bool)
	walk = func(n *html.Node, eligible bool) {
		if eligible && part.matchesNode(n) {
			results = append(results, n)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, true)
		}
	}

	walk(root, includeRoot)

	return results
}

func (p simpleSelector) matchesNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}

	get := func(key string) (string, bool) {
		for _, attr := range n.Attr {
			if strings.EqualFold(attr.Key, key) {
				return attr.Val, true
			}
		}

		return "", false
	}

	return p.matches(n.Data, get)
}

// MatchesDescriptor evaluates the selector against a materialized element
// snapshot. Only the last part of a descendant chain is checked because a
// descriptor carries no ancestry.
func (s Selector) MatchesDescriptor(d m.ElementDescriptor) bool {
	if len(s.parts) == 0 {
		return false
	}

	part := s.parts[len(s.parts)-1]

	return part.matches(d.Tag, func(key string) (string, bool) {
		return d.Attr(key)
	})
}

// matches evaluates one selector part against a tag plus attribute lookup.
func (p simpleSelector) matches(tag string, get func(string) (string, bool)) bool {
	if p.tag != "" && p.tag != "*" && p.tag != strings.ToLower(tag) {
		return false
	}

	if p.id != "" {
		if id, ok := get("id"); !ok || id != p.id {
			return false
		}
	}

	if len(p.classes) > 0 {
		class, _ := get("class")
		have := strings.Fields(class)

		for _, want := range p.classes {
			found := false

			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}

			if !found {
				return false
			}
		}
	}

	for _, cond := range p.attrs {
		value, present := get(cond.key)
		if !cond.holds(value, present) {
			return false
		}
	}

	for _, cond := range p.not {
		value, present := get(cond.key)
		if cond.holds(value, present) {
			return false
		}
	}

	return true
}
