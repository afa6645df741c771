package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fieldparity.dev/pkg/fieldparity/internal/adapter"
	m "fieldparity.dev/pkg/fieldparity/internal/model"
	"fieldparity.dev/pkg/fieldparity/pkg"
)

// Resolver turns one side's locator into element snapshots from a document.
type Resolver interface {
	Resolve(ctx context.Context, doc adapter.Document, locator m.Locator) (Resolution, error)
}

// Resolution is the outcome of resolving one locator: matched element
// snapshots in first-seen order, plus a warning per skipped clause. An empty
// descriptor list with no error is a valid outcome, it means the field is
// absent from the document.
type Resolution struct {
	Descriptors []m.ElementDescriptor
	Warnings    []m.ResolutionWarning
}

type resolver struct{}

// NewResolver creates the clause-union Resolver.
func NewResolver() Resolver {
	return &resolver{}
}

// Resolve runs every clause of the locator against the document and unions
// the results, de-duplicated by element identity. Invalid clauses and
// clauses the document's query engine rejects degrade to warnings; document
// access failures abort the resolution.
func (r *resolver) Resolve(ctx context.Context, doc adapter.Document, locator m.Locator) (Resolution, error) {
	var resolution Resolution

	matched := pkg.NewOrderedSet[adapter.Element]()

	for _, clause := range locator {
		var (
			elements []adapter.Element
			err      error
		)

		switch clause.Kind {
		case m.ClauseStructural:
			elements, err = doc.Query(ctx, clause.Selector)
		case m.ClauseTextContent:
			elements, err = doc.QueryTextContains(ctx, clause.Tag, clause.Text)
		case m.ClauseInvalid:
			resolution.Warnings = append(resolution.Warnings, m.ResolutionWarning{
				Clause: clause.Raw,
				Reason: clause.Err,
			})

			continue
		default:
			resolution.Warnings = append(resolution.Warnings, m.ResolutionWarning{
				Clause: clause.Raw,
				Reason: fmt.Sprintf("unknown clause kind %q", clause.Kind),
			})

			continue
		}

		if errors.Is(err, m.ErrInvalidSelector) {
			resolution.Warnings = append(resolution.Warnings, m.ResolutionWarning{
				Clause: clause.Raw,
				Reason: "rejected by document query engine",
			})

			continue
		}

		if err != nil {
			slog.Error("clause resolution failed", "target", doc.Target(), "clause", clause.Raw, "error", err)
			return Resolution{}, fmt.Errorf("resolve clause %q: %w", clause.Raw, err)
		}

		for _, el := range elements {
			matched.Add(el.ID(), el)
		}
	}

	for _, el := range matched.Values() {
		descriptor, err := el.Describe(ctx)
		if err != nil {
			slog.Error("element snapshot failed", "target", doc.Target(), "error", err)
			return Resolution{}, fmt.Errorf("describe element: %w", err)
		}

		resolution.Descriptors = append(resolution.Descriptors, descriptor)
	}

	return resolution, nil
}
