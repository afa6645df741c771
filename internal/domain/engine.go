package domain

import (
	"context"
	"strings"

	"fieldparity.dev/pkg/fieldparity/internal/adapter"
	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// Engine runs every configured comparison group against one document pair
// and aggregates the verdicts into a report.
type Engine interface {
	Compare(ctx context.Context, cfg m.Config, groups []string, legacy, modern adapter.Document) (m.ComparisonReport, error)
}

type engine struct {
	comparator Comparator
}

// NewEngine creates an Engine around the given Comparator.
func NewEngine(comparator Comparator) Engine {
	return &engine{comparator: comparator}
}

// Compare walks the groups in configuration order: forms first, then
// navigation, actions, and data display. The groups filter restricts which
// configured groups run; empty means all. Two runs against unchanged
// documents produce identical reports.
func (e *engine) Compare(ctx context.Context, cfg m.Config, groups []string, legacy, modern adapter.Document) (m.ComparisonReport, error) {
	if err := ctx.Err(); err != nil {
		return m.ComparisonReport{}, err
	}

	var report m.ComparisonReport

	for _, form := range cfg.Forms {
		name := "forms." + form.Name
		if !groupSelected(groups, name) || len(form.Fields) == 0 {
			continue
		}

		result := m.GroupResult{Group: name}

		for _, field := range form.Fields {
			ref := m.FieldRef{Group: "forms", Form: form.Name, Field: field.Name}
			result.Verdicts = append(result.Verdicts, e.comparator.CompareField(ctx, ref, field, legacy, modern))
		}

		report.Groups = append(report.Groups, result)
	}

	if groupSelected(groups, "navigation") && len(cfg.Navigation) > 0 {
		report.Groups = append(report.Groups, e.compareFlat(ctx, "navigation", cfg.Navigation, legacy, modern))
	}

	if groupSelected(groups, "actions") && len(cfg.Actions) > 0 {
		report.Groups = append(report.Groups, e.compareFlat(ctx, "actions", cfg.Actions, legacy, modern))
	}

	if groupSelected(groups, "data_display") && len(cfg.DataDisplay) > 0 {
		result := m.GroupResult{Group: "data_display"}

		for _, display := range cfg.DataDisplay {
			ref := m.FieldRef{Group: "data_display", Field: display.Name}
			result.Verdicts = append(result.Verdicts, e.comparator.CompareDisplay(ctx, ref, display, legacy, modern)...)
		}

		report.Groups = append(report.Groups, result)
	}

	aggregate(&report)

	return report, nil
}

func (e *engine) compareFlat(ctx context.Context, group string, fields []m.FieldMapping, legacy, modern adapter.Document) m.GroupResult {
	result := m.GroupResult{Group: group}

	for _, field := range fields {
		ref := m.FieldRef{Group: group, Field: field.Name}
		result.Verdicts = append(result.Verdicts, e.comparator.CompareField(ctx, ref, field, legacy, modern))
	}

	return result
}

// groupSelected reports whether the group runs under the filter. A filter
// entry selects either the exact group or, for a bare "forms", every form
// under it.
func groupSelected(filter []string, group string) bool {
	if len(filter) == 0 {
		return true
	}

	for _, f := range filter {
		if f == group || strings.HasPrefix(group, f+".") {
			return true
		}
	}

	return false
}

// aggregate fills the tally and the report-level verdict. Only required
// fields participate in the aggregate: optional mismatches are recorded
// evidence, not failures.
func aggregate(report *m.ComparisonReport) {
	matched := true

	for _, group := range report.Groups {
		for _, verdict := range group.Verdicts {
			report.Tally.Count(verdict.State)

			if verdict.Required && !verdict.Matched {
				matched = false
			}
		}
	}

	report.Matched = matched
}
