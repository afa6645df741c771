package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
	"fieldparity.dev/pkg/fieldparity/pkg"
)

// BrowserConfig configures the shared browser session.
type BrowserConfig struct {
	// Headless runs the browser without a display. Default: true.
	Headless bool

	// PageTimeout bounds navigation and load waiting per document.
	// Default: 30s.
	PageTimeout time.Duration
}

func (c *BrowserConfig) defaults() {
	if c.PageTimeout <= 0 {
		c.PageTimeout = 30 * time.Second
	}
}

// BrowserOpener serves live http(s) targets through one shared headless
// browser. The browser launches lazily on the first Open, so snapshot-only
// runs never start one. Pages are stealth pages: migration targets sitting
// behind bot detection would otherwise serve degraded markup.
type BrowserOpener struct {
	cfg BrowserConfig

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowserOpener creates a BrowserOpener. No browser is launched yet.
func NewBrowserOpener(cfg BrowserConfig) *BrowserOpener {
	cfg.defaults()
	return &BrowserOpener{cfg: cfg}
}

// Configure replaces the opener's settings. Call before the first Open;
// a browser that already launched keeps its headless mode.
func (o *BrowserOpener) Configure(cfg BrowserConfig) {
	cfg.defaults()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.cfg = cfg
}

// Open navigates a new stealth page to the target and waits for the load
// event within the configured page timeout.
func (o *BrowserOpener) Open(ctx context.Context, target m.Target) (Document, error) {
	browser, err := o.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("%w: create page: %v", m.ErrDocumentAccess, err)
	}

	navCtx, cancel := context.WithTimeout(ctx, o.cfg.PageTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(string(target)); err != nil {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("failed to close page after navigation error", "target", target, "error", closeErr)
		}

		return nil, fmt.Errorf("%w: navigate %s: %v", m.ErrDocumentAccess, target, err)
	}

	if err := page.Context(navCtx).WaitLoad(); err != nil {
		slog.Warn("load wait timed out, comparing current state", "target", target, "error", err)
	}

	slog.Debug("opened live document", "target", target)

	return &browserDocument{
		target:  target,
		page:    page,
		timeout: o.cfg.PageTimeout,
	}, nil
}

// ensureBrowser launches and connects the shared browser once.
func (o *BrowserOpener) ensureBrowser() (*rod.Browser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.browser != nil {
		return o.browser, nil
	}

	l := launcher.New().
		Headless(o.cfg.Headless).
		Set("disable-blink-features", "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch browser: %v", m.ErrDocumentAccess, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("%w: connect browser: %v", m.ErrDocumentAccess, err)
	}

	if err := browser.IgnoreCertErrors(true); err != nil {
		slog.Warn("failed to ignore certificate errors", "error", err)
	}

	slog.Info("launched browser", "headless", o.cfg.Headless, "url", controlURL)

	o.launcher = l
	o.browser = browser

	return browser, nil
}

// Close shuts the shared browser down.
func (o *BrowserOpener) Close(_ context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.browser == nil {
		return nil
	}

	err := o.browser.Close()
	o.browser = nil

	if o.launcher != nil {
		o.launcher.Cleanup()
		o.launcher = nil
	}

	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}

	return nil
}

type browserDocument struct {
	target  m.Target
	page    *rod.Page
	timeout time.Duration
}

func (d *browserDocument) Target() m.Target {
	return d.target
}

// Query runs the selector through the page's native query engine.
func (d *browserDocument) Query(ctx context.Context, selector string) ([]Element, error) {
	queryCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	els, err := d.page.Context(queryCtx).Elements(selector)
	if err != nil {
		if isSelectorSyntaxError(err) {
			return nil, fmt.Errorf("%w: %q: %v", m.ErrInvalidSelector, selector, err)
		}

		return nil, fmt.Errorf("%w: query %q: %v", m.ErrDocumentAccess, selector, err)
	}

	return d.wrap(queryCtx, els)
}

// textFilterJS selects elements by tag and keeps those whose rendered text
// contains the given substring. It runs in the page so visibility-dependent
// text is filtered where it is rendered, not on a serialized copy.
const textFilterJS = `(tag, text) => {
	const norm = s => (s || '').replace(/[\s ]+/g, ' ').trim();
	const out = [];
	for (const el of document.querySelectorAll(tag)) {
		const label = el instanceof HTMLInputElement
			? (el.type === 'hidden' ? '' : el.value)
			: el.innerText;
		if (norm(label).includes(text)) {
			out.push(el);
		}
	}
	return out;
}`

// QueryTextContains evaluates the text filter inside the live page.
func (d *browserDocument) QueryTextContains(ctx context.Context, tag, substring string) ([]Element, error) {
	if tag == "" {
		tag = "*"
	}

	queryCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	els, err := d.page.Context(queryCtx).ElementsByJS(rod.Eval(textFilterJS, tag, substring))
	if err != nil {
		if isSelectorSyntaxError(err) {
			return nil, fmt.Errorf("%w: tag %q: %v", m.ErrInvalidSelector, tag, err)
		}

		return nil, fmt.Errorf("%w: text query %q: %v", m.ErrDocumentAccess, tag, err)
	}

	return d.wrap(queryCtx, els)
}

func (d *browserDocument) Close(_ context.Context) error {
	if err := d.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}

	return nil
}

// wrap resolves a stable per-node identity for each element so clause unions
// can de-duplicate. Remote object IDs differ between queries for the same
// node; backend node IDs do not.
func (d *browserDocument) wrap(ctx context.Context, els rod.Elements) ([]Element, error) {
	elements := make([]Element, 0, len(els))

	for _, el := range els {
		node, err := el.Context(ctx).Describe(0, false)
		if err != nil {
			return nil, fmt.Errorf("%w: describe node: %v", m.ErrDocumentAccess, err)
		}

		elements = append(elements, &browserElement{
			id:      fmt.Sprintf("n%d", node.BackendNodeID),
			el:      el,
			timeout: d.timeout,
		})
	}

	return elements, nil
}

type browserElement struct {
	id      string
	el      *rod.Element
	timeout time.Duration
}

func (e *browserElement) ID() string {
	return e.id
}

// describeJS snapshots one element: tag, the inspected attributes, rendered
// text (value for inputs), and the required/disabled flags.
const describeJS = `(names) => {
	const attrs = {};
	for (const name of names) {
		const v = this.getAttribute(name);
		if (v !== null) {
			attrs[name] = v;
		}
	}
	const label = this instanceof HTMLInputElement
		? (this.type === 'hidden' ? '' : this.value)
		: this.innerText;
	return {
		tag: this.tagName.toLowerCase(),
		attrs: attrs,
		text: label || '',
		required: this.hasAttribute('required') || this.required === true,
		disabled: this.hasAttribute('disabled') || this.disabled === true,
	};
}`

// Describe materializes the element snapshot in a single page round trip.
func (e *browserElement) Describe(ctx context.Context) (m.ElementDescriptor, error) {
	evalCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.el.Context(evalCtx).Eval(describeJS, m.InspectedAttributes)
	if err != nil {
		return m.ElementDescriptor{}, fmt.Errorf("%w: describe element: %v", m.ErrDocumentAccess, err)
	}

	return descriptorFromEval(res.Value.Map()), nil
}

// descriptorFromEval converts the raw eval result into a descriptor,
// normalizing text the same way the static provider does.
func descriptorFromEval(value map[string]gson.JSON) m.ElementDescriptor {
	desc := m.ElementDescriptor{
		Tag:      value["tag"].Str(),
		Text:     pkg.NormalizeSpace(value["text"].Str()),
		Required: value["required"].Bool(),
		Disabled: value["disabled"].Bool(),
	}

	attrs := value["attrs"].Map()
	if len(attrs) > 0 {
		desc.Attrs = make(map[string]string, len(attrs))
		for name, v := range attrs {
			desc.Attrs[strings.ToLower(name)] = v.Str()
		}
	}

	return desc
}

func isSelectorSyntaxError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SyntaxError") || strings.Contains(msg, "not a valid selector")
}
