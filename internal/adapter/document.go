// Package adapter contains document access and persistence adapters for the
// fieldparity CLI.
package adapter

import (
	"context"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// Element is a handle to one resolved element inside a document. Handles are
// only used to de-duplicate union results and to materialize descriptors;
// comparison logic never sees them.
type Element interface {
	// ID is stable within the owning document for the lifetime of a
	// comparison pass, so clause unions can de-duplicate by identity.
	ID() string

	// Describe materializes the normalized snapshot of the element.
	Describe(ctx context.Context) (m.ElementDescriptor, error)
}

// Document is a read-only handle to one rendered document. Implementations
// must not mutate the underlying UI.
type Document interface {
	// Target returns the address the document was opened from.
	Target() m.Target

	// Query runs a structural selector through the document's native query
	// capability. Selector syntax errors wrap model.ErrInvalidSelector;
	// transport failures wrap model.ErrDocumentAccess.
	Query(ctx context.Context, selector string) ([]Element, error)

	// QueryTextContains returns elements of tag (or any element for "*")
	// whose normalized visible text contains substring case-sensitively.
	// Runs against the live document, not a serialized snapshot.
	QueryTextContains(ctx context.Context, tag, substring string) ([]Element, error)

	// Close releases the document.
	Close(ctx context.Context) error
}

// DocumentOpener opens documents for comparison. The browser-backed opener
// handles http(s) targets, the static opener handles saved snapshots.
type DocumentOpener interface {
	Open(ctx context.Context, target m.Target) (Document, error)
	Close(ctx context.Context) error
}
