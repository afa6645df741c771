package adapter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

const loginFixture = `<html><body>
<h1>  Welcome
  Back </h1>
<form action="/login">
  <input type="text" name="username" id="user" placeholder="User name" required>
  <input type="password" name="password">
  <input type="submit" value="Sign In">
  <input type="hidden" name="csrf" value="tok123">
  <button type="button" disabled>Reset</button>
</form>
<a href="/help">Help &amp; Support</a>
<script>var label = "Sign In";</script>
</body></html>`

func parseStaticFixture(t *testing.T, source string) Document {
	t.Helper()

	doc, err := ParseStaticDocument("fixture.html", strings.NewReader(source))
	if err != nil {
		t.Fatalf("ParseStaticDocument() error = %v", err)
	}

	return doc
}

func describeAll(t *testing.T, elements []Element) []m.ElementDescriptor {
	t.Helper()

	descriptors := make([]m.ElementDescriptor, 0, len(elements))

	for _, el := range elements {
		d, err := el.Describe(context.Background())
		if err != nil {
			t.Fatalf("Describe() error = %v", err)
		}

		descriptors = append(descriptors, d)
	}

	return descriptors
}

func TestStaticDocument_Query(t *testing.T) {
	doc := parseStaticFixture(t, loginFixture)
	ctx := context.Background()

	t.Run("structural match", func(t *testing.T) {
		elements, err := doc.Query(ctx, "input[name='username']")
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}

		if len(elements) != 1 {
			t.Fatalf("Query() returned %d elements, want 1", len(elements))
		}

		d := describeAll(t, elements)[0]
		if d.Tag != "input" || d.Attrs["id"] != "user" || d.Attrs["placeholder"] != "User name" {
			t.Fatalf("Describe() = %+v, want username input", d)
		}

		if !d.Required {
			t.Fatalf("Describe() Required = false, want true")
		}
	})

	t.Run("zero matches is not an error", func(t *testing.T) {
		elements, err := doc.Query(ctx, "select")
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}

		if len(elements) != 0 {
			t.Fatalf("Query() returned %d elements, want 0", len(elements))
		}
	})

	t.Run("invalid selector", func(t *testing.T) {
		if _, err := doc.Query(ctx, "div:hover"); !errors.Is(err, m.ErrInvalidSelector) {
			t.Fatalf("Query() error = %v, want ErrInvalidSelector", err)
		}
	})
}

func TestStaticDocument_QueryTextContains(t *testing.T) {
	doc := parseStaticFixture(t, loginFixture)
	ctx := context.Background()

	tests := []struct {
		name      string
		tag       string
		substring string
		want      int
	}{
		{name: "normalized whitespace", tag: "h1", substring: "Welcome Back", want: 1},
		{name: "case sensitive", tag: "h1", substring: "welcome back", want: 0},
		{name: "input value stands in for text", tag: "input", substring: "Sign In", want: 1},
		{name: "hidden input value excluded", tag: "input", substring: "tok123", want: 0},
		{name: "script text excluded", tag: "*", substring: "var label", want: 0},
		{name: "decoded entity", tag: "a", substring: "Help & Support", want: 1},
		{name: "disabled still visible", tag: "button", substring: "Reset", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, err := doc.QueryTextContains(ctx, tt.tag, tt.substring)
			if err != nil {
				t.Fatalf("QueryTextContains() error = %v", err)
			}

			if len(elements) != tt.want {
				t.Fatalf("QueryTextContains(%q, %q) returned %d elements, want %d",
					tt.tag, tt.substring, len(elements), tt.want)
			}
		})
	}
}

func TestStaticDocument_DescribeSnapshots(t *testing.T) {
	doc := parseStaticFixture(t, loginFixture)
	ctx := context.Background()

	elements, err := doc.Query(ctx, "button")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if len(elements) != 1 {
		t.Fatalf("Query() returned %d elements, want 1", len(elements))
	}

	d := describeAll(t, elements)[0]
	if d.Text != "Reset" {
		t.Fatalf("Describe() Text = %q, want %q", d.Text, "Reset")
	}

	if !d.Disabled {
		t.Fatalf("Describe() Disabled = false, want true")
	}

	if d.Attrs["type"] != "button" {
		t.Fatalf("Describe() Attrs = %v, want type=button", d.Attrs)
	}
}

func TestStaticDocument_ElementIDsStableAcrossQueries(t *testing.T) {
	doc := parseStaticFixture(t, loginFixture)
	ctx := context.Background()

	byName, err := doc.Query(ctx, "input[name='username']")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	byID, err := doc.Query(ctx, "#user")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if len(byName) != 1 || len(byID) != 1 {
		t.Fatalf("Query() returned %d and %d elements, want 1 and 1", len(byName), len(byID))
	}

	if byName[0].ID() != byID[0].ID() {
		t.Fatalf("the same element resolved to different identities: %q vs %q",
			byName[0].ID(), byID[0].ID())
	}
}

func TestStaticOpener_Open(t *testing.T) {
	opener := NewStaticOpener()
	ctx := context.Background()

	t.Run("reads snapshot from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "login.html")
		if err := os.WriteFile(path, []byte(loginFixture), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		doc, err := opener.Open(ctx, m.Target(path))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}

		if doc.Target() != m.Target(path) {
			t.Fatalf("Target() = %q, want %q", doc.Target(), path)
		}

		elements, err := doc.Query(ctx, "form input")
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}

		if len(elements) != 4 {
			t.Fatalf("Query() returned %d elements, want 4", len(elements))
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		_, err := opener.Open(ctx, m.Target(filepath.Join(t.TempDir(), "absent.html")))
		if !errors.Is(err, m.ErrDocumentAccess) {
			t.Fatalf("Open() error = %v, want ErrDocumentAccess", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := opener.Open(canceled, "whatever.html"); !errors.Is(err, context.Canceled) {
			t.Fatalf("Open() error = %v, want context.Canceled", err)
		}
	})
}
