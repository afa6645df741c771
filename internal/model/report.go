package model

// FieldState classifies the outcome of one field comparison.
type FieldState string

const (
	// FieldMatched indicates every legacy element found a modern counterpart.
	FieldMatched FieldState = "matched"
	// FieldMismatched indicates at least one legacy element has no counterpart.
	FieldMismatched FieldState = "mismatched"
	// FieldVacuous indicates the field resolved on neither side.
	FieldVacuous FieldState = "vacuous"
	// FieldUnresolved indicates document access failed while resolving the
	// field. Distinct from FieldMismatched: the element may well be present.
	FieldUnresolved FieldState = "unresolved"
)

// FieldVerdict is the outcome and supporting evidence for one logical field.
// Produced once per field per comparison run, never mutated afterwards.
type FieldVerdict struct {
	Field       string              `json:"field"`
	Path        string              `json:"path"`
	Required    bool                `json:"required"`
	State       FieldState          `json:"state"`
	Matched     bool                `json:"matched"`
	LegacyCount int                 `json:"legacy_count"`
	ModernCount int                 `json:"modern_count"`
	Missing     []string            `json:"missing,omitempty"`
	Extra       []ElementDescriptor `json:"extra,omitempty"`
	Reasons     []string            `json:"reasons,omitempty"`
}

// GroupResult collects the verdicts of one configured group, in configuration
// order.
type GroupResult struct {
	Group    string         `json:"group"`
	Verdicts []FieldVerdict `json:"verdicts"`
}

// Tally sums field outcomes across a report.
type Tally struct {
	Matched    int `json:"matched"`
	Mismatched int `json:"mismatched"`
	Vacuous    int `json:"vacuous"`
	Unresolved int `json:"unresolved"`
}

// Count adds one field outcome to the tally.
func (t *Tally) Count(state FieldState) {
	switch state {
	case FieldMatched:
		t.Matched++
	case FieldMismatched:
		t.Mismatched++
	case FieldVacuous:
		t.Vacuous++
	case FieldUnresolved:
		t.Unresolved++
	}
}

// Total returns the number of counted fields.
func (t Tally) Total() int {
	return t.Matched + t.Mismatched + t.Vacuous + t.Unresolved
}

// ComparisonReport is the engine's aggregated output for one document pair.
// Matched is the AND over required field verdicts; non-required mismatches
// are recorded but never flip it.
type ComparisonReport struct {
	Groups  []GroupResult `json:"groups"`
	Tally   Tally         `json:"tally"`
	Matched bool          `json:"matched"`
}

// ScenarioReport wraps a ComparisonReport with the scenario identity it was
// produced for. Owned by the caller after the run returns.
type ScenarioReport struct {
	Scenario string `json:"scenario"`
	Legacy   Target `json:"legacy"`
	Modern   Target `json:"modern"`
	ComparisonReport
}
