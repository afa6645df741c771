package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"fieldparity.dev/pkg/fieldparity/internal/adapter"
	"fieldparity.dev/pkg/fieldparity/internal/controller"
	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// ErrComparisonFailed signals that at least one scenario did not match. The
// run completed and reports were written; the error only drives the exit
// status.
var ErrComparisonFailed = errors.New("field comparison failed")

// RunArgs carries the arguments for a comparison run.
type RunArgs struct {
	Mappings        m.Path
	Reports         m.Path
	Scenarios       []string
	Legacy          m.Target
	Modern          m.Target
	Parallel        uint
	ShardIndex      uint
	TotalShardCount uint
}

// ViewArgs carries the arguments for viewing saved reports.
type ViewArgs struct {
	Reports m.Path
}

// FieldsArgs carries the arguments for listing configured fields.
type FieldsArgs struct {
	Mappings m.Path
}

// MergeArgs carries the arguments for merging sharded reports.
type MergeArgs struct {
	Reports m.Path
}

// Workflow is the use-case layer the commands call into.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) error
	View(ctx context.Context, args ViewArgs) error
	Fields(ctx context.Context, args FieldsArgs) error
	Merge(ctx context.Context, args MergeArgs) error
}

type workflow struct {
	adapter.ConfigStore
	adapter.ReportStore
	controller.UI

	resolver Resolver
	matcher  TextMatcher
	static   adapter.DocumentOpener
	browser  adapter.DocumentOpener
}

// NewWorkflow creates a Workflow instance with the provided dependencies.
func NewWorkflow(
	configStore adapter.ConfigStore,
	reportStore adapter.ReportStore,
	ui controller.UI,
	static adapter.DocumentOpener,
	browser adapter.DocumentOpener,
	resolver Resolver,
	matcher TextMatcher,
) Workflow {
	return &workflow{
		ConfigStore: configStore,
		ReportStore: reportStore,
		UI:          ui,
		resolver:    resolver,
		matcher:     matcher,
		static:      static,
		browser:     browser,
	}
}

// Run loads the mapping configuration, compares every selected scenario, and
// persists one report per scenario. Scenario failures do not stop the run;
// they surface in the returned error after all scenarios finished.
func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	cfg, err := w.Load(args.Mappings)
	if err != nil {
		slog.Error("Failed to load mapping configuration", "path", args.Mappings, "error", err)
		return fmt.Errorf("load mappings: %w", err)
	}

	comp, err := NewComparator(cfg.Rules, cfg.Settings, w.resolver, w.matcher)
	if err != nil {
		slog.Error("Failed to compile semantic rules", "error", err)
		return fmt.Errorf("compile semantic rules: %w", err)
	}

	engine := NewEngine(comp)

	scenarios, err := selectScenarios(cfg, args)
	if err != nil {
		return err
	}

	scenarios = shardScenarios(scenarios, args.ShardIndex, args.TotalShardCount)

	if err := w.Start(ctx, controller.WithCompareMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	defer w.closeOpeners(ctx)

	parallel := int(args.Parallel)
	if parallel < 1 {
		parallel = 1
	}

	w.DisplayConcurrencyInfo(ctx, parallel, int(args.ShardIndex), int(args.TotalShardCount))
	w.DisplayUpcomingScenariosInfo(ctx, len(scenarios))

	reports := make([]m.ScenarioReport, len(scenarios))
	scenarioErrs := make([]error, len(scenarios))

	var group errgroup.Group
	group.SetLimit(parallel)

	for i, scenario := range scenarios {
		i, scenario := i, scenario
		group.Go(func() error {
			w.DisplayStartingScenarioInfo(ctx, scenario)

			report, err := w.runScenario(ctx, engine, cfg, scenario)
			if err != nil {
				slog.Error("Scenario failed", "scenario", scenario.Name, "error", err)
				scenarioErrs[i] = fmt.Errorf("scenario %s: %w", scenario.Name, err)

				return nil
			}

			reports[i] = report

			return nil
		})
	}

	_ = group.Wait()

	var (
		saved    []m.ScenarioReport
		failures []error
	)

	for i := range scenarios {
		if scenarioErrs[i] != nil {
			failures = append(failures, scenarioErrs[i])
			continue
		}

		saved = append(saved, reports[i])
	}

	if len(saved) > 0 {
		if err := w.SaveReports(reportDir(args), saved); err != nil {
			w.Close(ctx)
			slog.Error("Failed to save reports", "error", err)

			return fmt.Errorf("save reports: %w", err)
		}
	}

	for _, report := range saved {
		w.DisplayScenarioReport(ctx, report)
	}

	w.DisplaySummary(ctx, saved)
	w.Wait(ctx)
	w.Close(ctx)

	if len(failures) > 0 {
		return errors.Join(failures...)
	}

	for _, report := range saved {
		if !report.Matched {
			return ErrComparisonFailed
		}
	}

	return nil
}

// View displays previously saved reports.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	reports, err := w.LoadReports(args.Reports)
	if err != nil {
		slog.Error("Failed to load reports", "path", args.Reports, "error", err)
		return fmt.Errorf("load reports: %w", err)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no reports found in %s", args.Reports)
	}

	if err := w.Start(ctx, controller.WithCompareMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	for _, report := range reports {
		w.DisplayScenarioReport(ctx, report)
	}

	w.DisplaySummary(ctx, reports)
	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

// Fields lists every configured field mapping.
func (w *workflow) Fields(ctx context.Context, args FieldsArgs) error {
	cfg, err := w.Load(args.Mappings)
	if err != nil {
		slog.Error("Failed to load mapping configuration", "path", args.Mappings, "error", err)
		return fmt.Errorf("load mappings: %w", err)
	}

	if err := w.Start(ctx, controller.WithFieldsMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	if err := w.DisplayFields(ctx, cfg); err != nil {
		w.Close(ctx)
		slog.Error("Failed to display fields", "error", err)

		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

// Merge combines reports from shard_* subdirectories into the reports root.
// On scenario collisions the lexically last shard wins.
func (w *workflow) Merge(ctx context.Context, args MergeArgs) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirs, err := w.ShardDirs(args.Reports)
	if err != nil {
		return fmt.Errorf("list shards: %w", err)
	}

	if len(dirs) == 0 {
		return fmt.Errorf("no shard_* directories under %s", args.Reports)
	}

	merged := make(map[string]m.ScenarioReport)

	for _, dir := range dirs {
		reports, err := w.LoadReports(dir)
		if err != nil {
			return fmt.Errorf("load shard %s: %w", dir, err)
		}

		for _, report := range reports {
			merged[report.Scenario] = report
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}

	sort.Strings(names)

	combined := make([]m.ScenarioReport, 0, len(names))
	for _, name := range names {
		combined = append(combined, merged[name])
	}

	if err := w.SaveReports(args.Reports, combined); err != nil {
		return fmt.Errorf("save merged reports: %w", err)
	}

	slog.Info("merged shard reports", "shards", len(dirs), "reports", len(combined), "path", args.Reports)

	return nil
}

func (w *workflow) runScenario(ctx context.Context, engine Engine, cfg m.Config, scenario m.Scenario) (m.ScenarioReport, error) {
	legacyDoc, err := w.open(ctx, scenario.Legacy)
	if err != nil {
		return m.ScenarioReport{}, fmt.Errorf("open legacy %s: %w", scenario.Legacy, err)
	}
	defer w.closeDocument(ctx, legacyDoc)

	modernDoc, err := w.open(ctx, scenario.Modern)
	if err != nil {
		return m.ScenarioReport{}, fmt.Errorf("open modern %s: %w", scenario.Modern, err)
	}
	defer w.closeDocument(ctx, modernDoc)

	report, err := engine.Compare(ctx, cfg, scenario.Groups, legacyDoc, modernDoc)
	if err != nil {
		return m.ScenarioReport{}, fmt.Errorf("compare: %w", err)
	}

	return m.ScenarioReport{
		Scenario:         scenario.Name,
		Legacy:           scenario.Legacy,
		Modern:           scenario.Modern,
		ComparisonReport: report,
	}, nil
}

// open picks the document provider by target kind: a browser session for
// http(s) URLs, the snapshot parser for local files.
func (w *workflow) open(ctx context.Context, target m.Target) (adapter.Document, error) {
	if target.IsLive() {
		return w.browser.Open(ctx, target)
	}

	return w.static.Open(ctx, target)
}

func (w *workflow) closeDocument(ctx context.Context, doc adapter.Document) {
	if err := doc.Close(ctx); err != nil {
		slog.Warn("failed to close document", "target", doc.Target(), "error", err)
	}
}

func (w *workflow) closeOpeners(ctx context.Context) {
	for _, opener := range []adapter.DocumentOpener{w.static, w.browser} {
		if err := opener.Close(ctx); err != nil {
			slog.Warn("failed to close document opener", "error", err)
		}
	}
}

// selectScenarios resolves the run arguments to the scenario list: an ad-hoc
// target pair, a named subset, or everything configured.
func selectScenarios(cfg m.Config, args RunArgs) ([]m.Scenario, error) {
	if args.Legacy != "" || args.Modern != "" {
		if args.Legacy == "" || args.Modern == "" {
			return nil, fmt.Errorf("ad-hoc comparison needs both a legacy and a modern target")
		}

		return []m.Scenario{{Name: "ad-hoc", Legacy: args.Legacy, Modern: args.Modern}}, nil
	}

	if len(args.Scenarios) == 0 {
		if len(cfg.Scenarios) == 0 {
			return nil, fmt.Errorf("no scenarios configured in mappings and no targets given")
		}

		return cfg.Scenarios, nil
	}

	byName := make(map[string]m.Scenario, len(cfg.Scenarios))
	for _, scenario := range cfg.Scenarios {
		byName[scenario.Name] = scenario
	}

	selected := make([]m.Scenario, 0, len(args.Scenarios))

	for _, name := range args.Scenarios {
		scenario, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}

		selected = append(selected, scenario)
	}

	return selected, nil
}

// shardScenarios keeps the scenarios assigned to this shard. Assignment is
// positional so shards partition the list without coordination.
func shardScenarios(scenarios []m.Scenario, shardIndex, totalShardCount uint) []m.Scenario {
	if totalShardCount == 0 {
		return scenarios
	}

	var shard []m.Scenario

	for i, scenario := range scenarios {
		if uint(i)%totalShardCount == shardIndex {
			shard = append(shard, scenario)
		}
	}

	return shard
}

func reportDir(args RunArgs) m.Path {
	if args.TotalShardCount == 0 {
		return args.Reports
	}

	return m.Path(filepath.Join(string(args.Reports), adapter.ShardDirName(args.ShardIndex, args.TotalShardCount)))
}
