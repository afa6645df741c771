package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/net/html"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
	"fieldparity.dev/pkg/fieldparity/pkg"
)

// StaticOpener serves file targets by parsing saved HTML snapshots. It backs
// offline comparison runs and keeps CI independent of a browser install.
type StaticOpener struct{}

// NewStaticOpener creates a StaticOpener.
func NewStaticOpener() *StaticOpener {
	return &StaticOpener{}
}

// Open reads and parses the snapshot at target.
func (o *StaticOpener) Open(ctx context.Context, target m.Target) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(string(target))
	if err != nil {
		return nil, fmt.Errorf("%w: open snapshot %s: %v", m.ErrDocumentAccess, target, err)
	}

	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close snapshot", "target", target, "error", err)
		}
	}()

	doc, err := ParseStaticDocument(target, f)
	if err != nil {
		return nil, err
	}

	slog.Debug("opened static document", "target", target)

	return doc, nil
}

// Close implements DocumentOpener. Static documents hold no shared resources.
func (o *StaticOpener) Close(_ context.Context) error {
	return nil
}

// ParseStaticDocument parses markup into a queryable Document. Element
// identities are document-order indexes, so repeated opens of the same
// markup resolve identically.
func ParseStaticDocument(target m.Target, r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse snapshot %s: %v", m.ErrDocumentAccess, target, err)
	}

	doc := &staticDocument{
		target: target,
		root:   root,
		ids:    make(map[*html.Node]string),
	}

	index := 0

	walkElements(root, func(n *html.Node) {
		doc.ids[n] = fmt.Sprintf("e%d", index)
		index++
	})

	return doc, nil
}

type staticDocument struct {
	target m.Target
	root   *html.Node
	ids    map[*html.Node]string
}

func (d *staticDocument) Target() m.Target {
	return d.target
}

// Query matches a structural selector against the parsed tree.
func (d *staticDocument) Query(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	compiled, err := ParseSelector(selector)
	if err != nil {
		return nil, err
	}

	return d.wrap(compiled.MatchAll(d.root)), nil
}

// QueryTextContains walks the tree and keeps elements of tag whose
// normalized visible text contains substring case-sensitively.
func (d *staticDocument) QueryTextContains(ctx context.Context, tag, substring string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tag = strings.ToLower(tag)

	var matches []*html.Node

	walkElements(d.root, func(n *html.Node) {
		if tag != "*" && tag != "" && n.Data != tag {
			return
		}

		if strings.Contains(pkg.NormalizeSpace(elementText(n)), substring) {
			matches = append(matches, n)
		}
	})

	return d.wrap(matches), nil
}

func (d *staticDocument) Close(_ context.Context) error {
	return nil
}

func (d *staticDocument) wrap(nodes []*html.Node) []Element {
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &staticElement{doc: d, node: n})
	}

	return elements
}

type staticElement struct {
	doc  *staticDocument
	node *html.Node
}

func (e *staticElement) ID() string {
	return e.doc.ids[e.node]
}

// Describe materializes the element snapshot.
func (e *staticElement) Describe(ctx context.Context) (m.ElementDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return m.ElementDescriptor{}, err
	}

	attrs := make(map[string]string)

	for _, name := range m.InspectedAttributes {
		if value, ok := nodeAttr(e.node, name); ok {
			attrs[name] = value
		}
	}

	if len(attrs) == 0 {
		attrs = nil
	}

	_, required := nodeAttr(e.node, "required")
	_, disabled := nodeAttr(e.node, "disabled")

	return m.ElementDescriptor{
		Tag:      strings.ToLower(e.node.Data),
		Attrs:    attrs,
		Text:     pkg.NormalizeSpace(elementText(e.node)),
		Required: required,
		Disabled: disabled,
	}, nil
}

// walkElements visits every element node under root in document order.
func walkElements(root *html.Node, visit func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			visit(n)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(root)
}

func nodeAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val, true
		}
	}

	return "", false
}

// elementText collects the visible text of a subtree, skipping script-like
// containers. Inputs render their value as their label, so value stands in
// for text on elements that cannot have text children.
func elementText(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "input" {
		if t, _ := nodeAttr(n, "type"); strings.EqualFold(t, "hidden") {
			return ""
		}

		value, _ := nodeAttr(n, "value")

		return value
	}

	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteString(" ")
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)

	return b.String()
}
