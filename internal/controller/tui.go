package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

var (
	tuiTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	tuiOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	tuiFailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	tuiDimStyle   = lipgloss.NewStyle().Faint(true)
)

const tuiMaxBarWidth = 60

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output  io.Writer
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program in the background.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := StartConfig{mode: ModeCompare}
	for _, option := range options {
		option(&config)
	}

	p.done = make(chan struct{})
	p.program = tea.NewProgram(newCompareModel(config.mode), tea.WithOutput(p.output))

	go func() {
		defer close(p.done)

		if _, err := p.program.Run(); err != nil {
			slog.Error("tui stopped", "error", err)
		}
	}()

	return nil
}

// Close shuts the program down without waiting for the user.
func (p *TUI) Close(_ context.Context) {
	if p.program == nil {
		return
	}

	p.program.Quit()
	<-p.done
}

// Wait blocks until the user quits the program or the context ends.
func (p *TUI) Wait(ctx context.Context) {
	if p.program == nil {
		return
	}

	select {
	case <-p.done:
	case <-ctx.Done():
		p.program.Quit()
		<-p.done
	}
}

// DisplayFields prints every configured field with its locators.
func (p *TUI) DisplayFields(ctx context.Context, cfg m.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.send(fieldsMsg{cfg: cfg})

	return nil
}

// DisplayConcurrencyInfo shows concurrency and shard settings.
func (p *TUI) DisplayConcurrencyInfo(ctx context.Context, parallel int, shardIndex int, shardCount int) {
	if err := ctx.Err(); err != nil {
		return
	}

	p.send(concurrencyMsg{parallel: parallel, shardIndex: shardIndex, shardCount: shardCount})
}

// DisplayUpcomingScenariosInfo shows the number of scenarios about to run.
func (p *TUI) DisplayUpcomingScenariosInfo(ctx context.Context, count int) {
	if err := ctx.Err(); err != nil {
		return
	}

	p.send(upcomingMsg{count: count})
}

// DisplayStartingScenarioInfo shows info about the scenario starting.
func (p *TUI) DisplayStartingScenarioInfo(ctx context.Context, scenario m.Scenario) {
	if err := ctx.Err(); err != nil {
		return
	}

	p.send(startingMsg{scenario: scenario})
}

// DisplayScenarioReport prints the per-field verdicts of one finished scenario.
func (p *TUI) DisplayScenarioReport(ctx context.Context, report m.ScenarioReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	p.send(reportMsg{report: report})
}

// DisplaySummary shows the cross-scenario roll-up and ends the live view.
func (p *TUI) DisplaySummary(ctx context.Context, reports []m.ScenarioReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	p.send(summaryMsg{reports: reports})
}

func (p *TUI) send(msg tea.Msg) {
	if p.program != nil {
		p.program.Send(msg)
	}
}

type concurrencyMsg struct {
	parallel   int
	shardIndex int
	shardCount int
}

type upcomingMsg struct {
	count int
}

type startingMsg struct {
	scenario m.Scenario
}

type reportMsg struct {
	report m.ScenarioReport
}

type summaryMsg struct {
	reports []m.ScenarioReport
}

type fieldsMsg struct {
	cfg m.Config
}

// compareModel is the Bubble Tea model behind the live comparison view.
// Finished scenario reports are printed above the managed area so they stay
// in the scrollback after the program exits.
type compareModel struct {
	mode       StartMode
	spin       spinner.Model
	bar        progress.Model
	parallel   int
	shardIndex int
	shardCount int
	total      int
	started    int
	current    string
	summary    []m.ScenarioReport
	done       bool
	quitting   bool
}

func newCompareModel(mode StartMode) compareModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = tuiMaxBarWidth

	return compareModel{
		mode: mode,
		spin: spin,
		bar:  bar,
	}
}

func (cm compareModel) Init() tea.Cmd {
	return cm.spin.Tick
}

func (cm compareModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		cm.bar.Width = msg.Width - 4
		if cm.bar.Width > tuiMaxBarWidth {
			cm.bar.Width = tuiMaxBarWidth
		}

		return cm, nil

	case tea.KeyMsg:
		return cm.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		cm.spin, cmd = cm.spin.Update(msg)

		return cm, cmd

	case concurrencyMsg:
		cm.parallel = msg.parallel
		cm.shardIndex = msg.shardIndex
		cm.shardCount = msg.shardCount

		return cm, nil

	case upcomingMsg:
		cm.total = msg.count

		return cm, nil

	case startingMsg:
		cm.started++
		cm.current = msg.scenario.Name

		return cm, nil

	case reportMsg:
		return cm, tea.Println(renderColoredReport(msg.report))

	case summaryMsg:
		cm.summary = msg.reports
		cm.done = true
		cm.current = ""

		return cm, nil

	case fieldsMsg:
		cm.done = true

		return cm, tea.Println(strings.TrimRight(renderFieldsTable(buildFieldRows(msg.cfg)), "\n"))
	}

	return cm, nil
}

func (cm compareModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		cm.quitting = true

		return cm, tea.Quit
	}

	return cm, nil
}

func (cm compareModel) View() string {
	if cm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(tuiTitleStyle.Render("fieldparity"))
	b.WriteString("\n\n")

	if cm.done {
		if cm.mode == ModeCompare {
			b.WriteString(renderSummaryTable(cm.summary))
			b.WriteString("\n")
		}

		b.WriteString(tuiDimStyle.Render("press q to quit"))
		b.WriteString("\n")

		return b.String()
	}

	fmt.Fprintf(&b, "%s comparing scenarios (%d/%d started)\n", cm.spin.View(), cm.started, cm.total)

	if cm.total > 0 {
		b.WriteString(cm.bar.ViewAs(float64(cm.started) / float64(cm.total)))
		b.WriteString("\n")
	}

	if cm.current != "" {
		b.WriteString(tuiDimStyle.Render("current: " + cm.current))
		b.WriteString("\n")
	}

	if cm.parallel > 0 {
		line := fmt.Sprintf("%d worker(s)", cm.parallel)
		if cm.shardCount > 0 {
			line = fmt.Sprintf("%s, shard %d/%d", line, cm.shardIndex, cm.shardCount)
		}

		b.WriteString(tuiDimStyle.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

func renderColoredReport(report m.ScenarioReport) string {
	var b strings.Builder

	label := tuiOKStyle.Render("MATCHED")
	if !report.Matched {
		label = tuiFailStyle.Render("MISMATCHED")
	}

	fmt.Fprintf(&b, "\nScenario %s: %s\n", report.Scenario, label)
	b.WriteString(renderReportTable(report.ComparisonReport))

	for _, group := range report.Groups {
		for _, verdict := range group.Verdicts {
			for _, missing := range verdict.Missing {
				fmt.Fprintf(&b, "  missing %s: %s\n", verdict.Path, missing)
			}

			for _, extra := range verdict.Extra {
				fmt.Fprintf(&b, "  extra %s: %s\n", verdict.Path, extra.Label())
			}

			for _, reason := range verdict.Reasons {
				fmt.Fprintf(&b, "  note %s: %s\n", verdict.Path, reason)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
