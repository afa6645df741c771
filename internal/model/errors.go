package model

import (
	"errors"
	"fmt"
)

// ConfigurationError reports malformed or missing comparison configuration.
// It is fatal: a run never starts with a broken config.
type ConfigurationError struct {
	Section string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}

	return fmt.Sprintf("invalid configuration in %s: %s", e.Section, e.Reason)
}

// ErrDocumentAccess marks failures reaching or querying a document. A field
// hit by one is reported unresolved, not missing, and other fields proceed.
var ErrDocumentAccess = errors.New("document access failed")

// ErrInvalidSelector marks locator clauses the document's query engine
// rejected. The resolver downgrades these to resolution warnings.
var ErrInvalidSelector = errors.New("invalid selector")
