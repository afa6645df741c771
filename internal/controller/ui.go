// Package controller provides output adapters for displaying comparison
// progress and results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeFields StartMode = iota
	ModeCompare
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithFieldsMode sets the UI to field listing mode.
func WithFieldsMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeFields
	}
}

// WithCompareMode sets the UI to comparison run mode.
func WithCompareMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeCompare
	}
}

// UI defines the interface for displaying comparison progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayFields(ctx context.Context, cfg m.Config) error
	DisplayConcurrencyInfo(ctx context.Context, parallel int, shardIndex int, shardCount int)
	DisplayUpcomingScenariosInfo(ctx context.Context, count int)
	DisplayStartingScenarioInfo(ctx context.Context, scenario m.Scenario)
	DisplayScenarioReport(ctx context.Context, report m.ScenarioReport)
	DisplaySummary(ctx context.Context, reports []m.ScenarioReport)
}

// IsTTY reports whether the writer is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// NewUI picks the interactive TUI when requested and the output is a
// terminal, and the plain printer otherwise.
func NewUI(cmd *cobra.Command, tui bool) UI {
	out := cmd.OutOrStdout()
	if tui && IsTTY(out) {
		return NewTUI(out)
	}

	return NewSimpleUI(cmd)
}

// SwitchUI delegates to an inner UI that can be swapped until Start is
// called. Commands wire their dependencies before flags are parsed, so the
// choice between the TUI and the plain printer has to be deferred.
type SwitchUI struct {
	inner UI
}

// NewSwitchUI creates a SwitchUI delegating to initial.
func NewSwitchUI(initial UI) *SwitchUI {
	return &SwitchUI{inner: initial}
}

// Use swaps the active implementation. Call before Start.
func (s *SwitchUI) Use(inner UI) {
	s.inner = inner
}

// Start starts the active UI.
func (s *SwitchUI) Start(ctx context.Context, options ...StartOption) error {
	return s.inner.Start(ctx, options...)
}

// Close closes the active UI.
func (s *SwitchUI) Close(ctx context.Context) {
	s.inner.Close(ctx)
}

// Wait waits for the active UI to finish.
func (s *SwitchUI) Wait(ctx context.Context) {
	s.inner.Wait(ctx)
}

// DisplayFields delegates to the active UI.
func (s *SwitchUI) DisplayFields(ctx context.Context, cfg m.Config) error {
	return s.inner.DisplayFields(ctx, cfg)
}

// DisplayConcurrencyInfo delegates to the active UI.
func (s *SwitchUI) DisplayConcurrencyInfo(ctx context.Context, parallel int, shardIndex int, shardCount int) {
	s.inner.DisplayConcurrencyInfo(ctx, parallel, shardIndex, shardCount)
}

// DisplayUpcomingScenariosInfo delegates to the active UI.
func (s *SwitchUI) DisplayUpcomingScenariosInfo(ctx context.Context, count int) {
	s.inner.DisplayUpcomingScenariosInfo(ctx, count)
}

// DisplayStartingScenarioInfo delegates to the active UI.
func (s *SwitchUI) DisplayStartingScenarioInfo(ctx context.Context, scenario m.Scenario) {
	s.inner.DisplayStartingScenarioInfo(ctx, scenario)
}

// DisplayScenarioReport delegates to the active UI.
func (s *SwitchUI) DisplayScenarioReport(ctx context.Context, report m.ScenarioReport) {
	s.inner.DisplayScenarioReport(ctx, report)
}

// DisplaySummary delegates to the active UI.
func (s *SwitchUI) DisplaySummary(ctx context.Context, reports []m.ScenarioReport) {
	s.inner.DisplaySummary(ctx, reports)
}
