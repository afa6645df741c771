package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	// SimpleUI doesn't block - it just prints and continues
}

// DisplayFields prints every configured field with its locators.
func (s *SimpleUI) DisplayFields(ctx context.Context, cfg m.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderFieldsTable(buildFieldRows(cfg)))

	return nil
}

type fieldRow struct {
	path     string
	required bool
	legacy   string
	modern   string
}

func newFieldRow(ref m.FieldRef, field m.FieldMapping) fieldRow {
	return fieldRow{
		path:     ref.String(),
		required: field.Required,
		legacy:   field.Legacy.Raw(),
		modern:   field.Modern.Raw(),
	}
}

func buildFieldRows(cfg m.Config) []fieldRow {
	rows := make([]fieldRow, 0)

	for _, form := range cfg.Forms {
		for _, field := range form.Fields {
			rows = append(rows, newFieldRow(m.FieldRef{Group: "forms", Form: form.Name, Field: field.Name}, field))
		}
	}

	for _, field := range cfg.Navigation {
		rows = append(rows, newFieldRow(m.FieldRef{Group: "navigation", Field: field.Name}, field))
	}

	for _, field := range cfg.Actions {
		rows = append(rows, newFieldRow(m.FieldRef{Group: "actions", Field: field.Name}, field))
	}

	for _, display := range cfg.DataDisplay {
		ref := m.FieldRef{Group: "data_display", Field: display.Name}
		rows = append(rows, newFieldRow(ref, display.FieldMapping))

		for _, item := range display.Items {
			rows = append(rows, newFieldRow(ref.Child(item.Name), item))
		}
	}

	return rows
}

func renderFieldsTable(rows []fieldRow) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Field", "Required", "Legacy", "Modern"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})

	requiredCount := 0

	for _, row := range rows {
		required := ""
		if row.required {
			required = "yes"
			requiredCount++
		}

		table.Append([]string{row.path, required, row.legacy, row.modern})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Fields %d", len(rows)),
		fmt.Sprintf("%d required", requiredCount),
		"",
		"",
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayConcurrencyInfo shows concurrency and shard settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, parallel int, shardIndex int, shardCount int) {
	if err := ctx.Err(); err != nil {
		return
	}

	if shardCount > 0 {
		s.printf("Running with %d worker(s) (shard %d/%d)\n", parallel, shardIndex, shardCount)

		return
	}

	s.printf("Running with %d worker(s)\n", parallel)
}

// DisplayUpcomingScenariosInfo shows the number of scenarios about to run.
func (s *SimpleUI) DisplayUpcomingScenariosInfo(ctx context.Context, count int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Upcoming scenarios: %d\n", count)
}

// DisplayStartingScenarioInfo shows info about the scenario starting.
func (s *SimpleUI) DisplayStartingScenarioInfo(ctx context.Context, scenario m.Scenario) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Starting scenario %s (%s vs %s)\n", scenario.Name, scenario.Legacy, scenario.Modern)
}

// DisplayScenarioReport prints the per-field verdicts of one finished scenario.
func (s *SimpleUI) DisplayScenarioReport(ctx context.Context, report m.ScenarioReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("\nScenario %s: %s\n", report.Scenario, verdictLabel(report.Matched))
	s.printf("%s", renderReportTable(report.ComparisonReport))

	for _, group := range report.Groups {
		for _, verdict := range group.Verdicts {
			s.printVerdictDetails(verdict)
		}
	}
}

func (s *SimpleUI) printVerdictDetails(verdict m.FieldVerdict) {
	for _, label := range verdict.Missing {
		s.printf("  missing %s: %s\n", verdict.Path, label)
	}

	for _, extra := range verdict.Extra {
		s.printf("  extra %s: %s\n", verdict.Path, extra.Label())
	}

	for _, reason := range verdict.Reasons {
		s.printf("  note %s: %s\n", verdict.Path, reason)
	}
}

func renderReportTable(report m.ComparisonReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Field", "State", "Legacy", "Modern"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	for _, group := range report.Groups {
		for _, verdict := range group.Verdicts {
			table.Append([]string{
				verdict.Path,
				string(verdict.State),
				fmt.Sprintf("%d", verdict.LegacyCount),
				fmt.Sprintf("%d", verdict.ModernCount),
			})
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Fields %d", report.Tally.Total()),
		fmt.Sprintf("%d/%d matched", report.Tally.Matched, report.Tally.Total()),
		"",
		"",
	})

	table.Render()

	return tableBuffer.String()
}

// DisplaySummary prints the cross-scenario roll-up table.
func (s *SimpleUI) DisplaySummary(ctx context.Context, reports []m.ScenarioReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("\n%s", renderSummaryTable(reports))
}

func renderSummaryTable(reports []m.ScenarioReport) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Scenario", "Result", "Matched", "Mismatched", "Vacuous", "Unresolved"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	matchedScenarios := 0

	var total m.Tally

	for _, report := range reports {
		if report.Matched {
			matchedScenarios++
		}

		tally := report.Tally
		total.Matched += tally.Matched
		total.Mismatched += tally.Mismatched
		total.Vacuous += tally.Vacuous
		total.Unresolved += tally.Unresolved

		table.Append([]string{
			report.Scenario,
			verdictLabel(report.Matched),
			fmt.Sprintf("%d", tally.Matched),
			fmt.Sprintf("%d", tally.Mismatched),
			fmt.Sprintf("%d", tally.Vacuous),
			fmt.Sprintf("%d", tally.Unresolved),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Scenarios %d", len(reports)),
		fmt.Sprintf("%d matched", matchedScenarios),
		fmt.Sprintf("%d", total.Matched),
		fmt.Sprintf("%d", total.Mismatched),
		fmt.Sprintf("%d", total.Vacuous),
		fmt.Sprintf("%d", total.Unresolved),
	})

	table.Render()

	return tableBuffer.String()
}

func verdictLabel(matched bool) string {
	if matched {
		return "MATCHED"
	}

	return "MISMATCHED"
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
