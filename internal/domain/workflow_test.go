package domain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldparity.dev/pkg/fieldparity/internal/adapter"
	"fieldparity.dev/pkg/fieldparity/internal/controller"
	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

type fakeConfigStore struct {
	cfg   m.Config
	err   error
	loads []m.Path
}

func (f *fakeConfigStore) Load(path m.Path) (m.Config, error) {
	f.loads = append(f.loads, path)
	return f.cfg, f.err
}

func (f *fakeConfigStore) WriteDefault(_ m.Path) error { return nil }

type fakeReportStore struct {
	savedDir m.Path
	saved    []m.ScenarioReport
	loaded   map[m.Path][]m.ScenarioReport
	shards   []m.Path
	saveErr  error
	loadErr  error
}

func (f *fakeReportStore) SaveReports(dir m.Path, reports []m.ScenarioReport) error {
	if f.saveErr != nil {
		return f.saveErr
	}

	f.savedDir = dir
	f.saved = reports

	return nil
}

func (f *fakeReportStore) LoadReports(dir m.Path) ([]m.ScenarioReport, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}

	return f.loaded[dir], nil
}

func (f *fakeReportStore) ShardDirs(_ m.Path) ([]m.Path, error) { return f.shards, nil }

// fakeUI records lifecycle events. Scenario-start events arrive from worker
// goroutines, hence the mutex.
type fakeUI struct {
	mu       sync.Mutex
	events   []string
	fields   *m.Config
	startErr error
}

func (f *fakeUI) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)
}

func (f *fakeUI) Start(_ context.Context, _ ...controller.StartOption) error {
	f.record("start")
	return f.startErr
}

func (f *fakeUI) Close(_ context.Context) { f.record("close") }
func (f *fakeUI) Wait(_ context.Context)  { f.record("wait") }

func (f *fakeUI) DisplayFields(_ context.Context, cfg m.Config) error {
	f.record("fields")
	f.fields = &cfg

	return nil
}

func (f *fakeUI) DisplayConcurrencyInfo(_ context.Context, parallel, shardIndex, shardCount int) {
	f.record(fmt.Sprintf("concurrency %d %d/%d", parallel, shardIndex, shardCount))
}

func (f *fakeUI) DisplayUpcomingScenariosInfo(_ context.Context, count int) {
	f.record(fmt.Sprintf("upcoming %d", count))
}

func (f *fakeUI) DisplayStartingScenarioInfo(_ context.Context, scenario m.Scenario) {
	f.record("starting " + scenario.Name)
}

func (f *fakeUI) DisplayScenarioReport(_ context.Context, report m.ScenarioReport) {
	f.record("report " + report.Scenario)
}

func (f *fakeUI) DisplaySummary(_ context.Context, reports []m.ScenarioReport) {
	f.record(fmt.Sprintf("summary %d", len(reports)))
}

func (f *fakeUI) has(event string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.events {
		if e == event {
			return true
		}
	}

	return false
}

// fakeOpener parses canned markup per target.
type fakeOpener struct {
	mu     sync.Mutex
	docs   map[m.Target]string
	opened []m.Target
	closed bool
}

func (f *fakeOpener) Open(_ context.Context, target m.Target) (adapter.Document, error) {
	f.mu.Lock()
	f.opened = append(f.opened, target)
	f.mu.Unlock()

	markup, ok := f.docs[target]
	if !ok {
		return nil, fmt.Errorf("%w: no snapshot for %s", m.ErrDocumentAccess, target)
	}

	return adapter.ParseStaticDocument(target, strings.NewReader(markup))
}

func (f *fakeOpener) Close(_ context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeOpener) openedTargets() []m.Target {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]m.Target(nil), f.opened...)
}

const (
	legacyLoginMarkup = `<form><input name="username"></form>`
	modernLoginMarkup = `<form><input formcontrolname="username"></form>`
)

func workflowConfig() m.Config {
	return m.Config{
		Scenarios: []m.Scenario{
			{Name: "login", Legacy: "legacy/login.html", Modern: "modern/login.html"},
			{Name: "search", Legacy: "legacy/search.html", Modern: "modern/search.html"},
		},
		Forms: []m.FormMapping{{Name: "login", Fields: []m.FieldMapping{{
			Name:     "username",
			Required: true,
			Legacy:   m.ParseLocator("input[name='username']"),
			Modern:   m.ParseLocator("input[formcontrolname='username']"),
		}}}},
		Rules:    testRules(),
		Settings: testSettings(),
	}
}

type workflowFixture struct {
	workflow Workflow
	config   *fakeConfigStore
	reports  *fakeReportStore
	ui       *fakeUI
	static   *fakeOpener
	browser  *fakeOpener
}

func newWorkflowFixture(cfg m.Config) *workflowFixture {
	f := &workflowFixture{
		config: &fakeConfigStore{cfg: cfg},
		reports: &fakeReportStore{
			loaded: make(map[m.Path][]m.ScenarioReport),
		},
		ui: &fakeUI{},
		static: &fakeOpener{docs: map[m.Target]string{
			"legacy/login.html":  legacyLoginMarkup,
			"modern/login.html":  modernLoginMarkup,
			"legacy/search.html": legacyLoginMarkup,
			"modern/search.html": modernLoginMarkup,
		}},
		browser: &fakeOpener{docs: map[m.Target]string{}},
	}

	f.workflow = NewWorkflow(f.config, f.reports, f.ui, f.static, f.browser, NewResolver(), NewTextMatcher())

	return f
}

func TestWorkflow_RunComparesAndSavesReports(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())

	err := f.workflow.Run(context.Background(), RunArgs{
		Mappings: "mappings.yaml",
		Reports:  ".fieldparity-reports",
		Parallel: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []m.Path{"mappings.yaml"}, f.config.loads)
	assert.Equal(t, m.Path(".fieldparity-reports"), f.reports.savedDir)

	require.Len(t, f.reports.saved, 2)
	assert.Equal(t, "login", f.reports.saved[0].Scenario)
	assert.Equal(t, m.Target("legacy/login.html"), f.reports.saved[0].Legacy)
	assert.True(t, f.reports.saved[0].Matched)
	assert.Equal(t, "search", f.reports.saved[1].Scenario)

	assert.True(t, f.ui.has("concurrency 2 0/0"))
	assert.True(t, f.ui.has("upcoming 2"))
	assert.True(t, f.ui.has("starting login"))
	assert.True(t, f.ui.has("report login"))
	assert.True(t, f.ui.has("summary 2"))

	require.GreaterOrEqual(t, len(f.ui.events), 2)
	assert.Equal(t, "close", f.ui.events[len(f.ui.events)-1])
	assert.Equal(t, "wait", f.ui.events[len(f.ui.events)-2])

	assert.True(t, f.static.closed)
	assert.True(t, f.browser.closed)
}

func TestWorkflow_RunFailsWhenScenarioMismatches(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())
	f.static.docs["modern/login.html"] = `<form></form>`

	err := f.workflow.Run(context.Background(), RunArgs{Mappings: "mappings.yaml", Reports: "out"})
	assert.ErrorIs(t, err, ErrComparisonFailed)

	// Mismatched reports are still persisted.
	require.Len(t, f.reports.saved, 2)
	assert.False(t, f.reports.saved[0].Matched)
	assert.True(t, f.reports.saved[1].Matched)
}

func TestWorkflow_RunScenarioSubset(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())

	err := f.workflow.Run(context.Background(), RunArgs{
		Mappings:  "mappings.yaml",
		Reports:   "out",
		Scenarios: []string{"search"},
	})
	require.NoError(t, err)

	require.Len(t, f.reports.saved, 1)
	assert.Equal(t, "search", f.reports.saved[0].Scenario)
	assert.NotContains(t, f.static.openedTargets(), m.Target("legacy/login.html"))
}

func TestWorkflow_RunUnknownScenario(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())

	err := f.workflow.Run(context.Background(), RunArgs{
		Mappings:  "mappings.yaml",
		Reports:   "out",
		Scenarios: []string{"checkout"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown scenario "checkout"`)
	assert.Empty(t, f.reports.saved)
}

func TestWorkflow_RunAdHocTargetPair(t *testing.T) {
	cfg := workflowConfig()
	cfg.Scenarios = nil

	f := newWorkflowFixture(cfg)
	f.static.docs["old.html"] = legacyLoginMarkup
	f.static.docs["new.html"] = modernLoginMarkup

	err := f.workflow.Run(context.Background(), RunArgs{
		Mappings: "mappings.yaml",
		Reports:  "out",
		Legacy:   "old.html",
		Modern:   "new.html",
	})
	require.NoError(t, err)

	require.Len(t, f.reports.saved, 1)
	assert.Equal(t, "ad-hoc", f.reports.saved[0].Scenario)
}

func TestWorkflow_RunRejectsHalfAdHocPair(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())

	err := f.workflow.Run(context.Background(), RunArgs{
		Mappings: "mappings.yaml",
		Reports:  "out",
		Legacy:   "old.html",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both a legacy and a modern target")
}

func TestWorkflow_RunShardsScenarios(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())

	err := f.workflow.Run(context.Background(), RunArgs{
		Mappings:        "mappings.yaml",
		Reports:         "out",
		ShardIndex:      1,
		TotalShardCount: 2,
	})
	require.NoError(t, err)

	require.Len(t, f.reports.saved, 1)
	assert.Equal(t, "search", f.reports.saved[0].Scenario)
	assert.Equal(t, m.Path(filepath.Join("out", "shard_1_of_2")), f.reports.savedDir)
	assert.True(t, f.ui.has("concurrency 1 1/2"))
}

func TestWorkflow_RunScenarioFailureDoesNotStopOthers(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())
	delete(f.static.docs, "legacy/login.html")

	err := f.workflow.Run(context.Background(), RunArgs{Mappings: "mappings.yaml", Reports: "out"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario login")

	// The healthy scenario still ran and its report was saved.
	require.Len(t, f.reports.saved, 1)
	assert.Equal(t, "search", f.reports.saved[0].Scenario)
}

func TestWorkflow_RunRoutesLiveTargetsToBrowser(t *testing.T) {
	cfg := workflowConfig()
	cfg.Scenarios = []m.Scenario{{
		Name:   "login",
		Legacy: "https://old.example.com/login",
		Modern: "modern/login.html",
	}}

	f := newWorkflowFixture(cfg)
	f.browser.docs["https://old.example.com/login"] = legacyLoginMarkup

	err := f.workflow.Run(context.Background(), RunArgs{Mappings: "mappings.yaml", Reports: "out"})
	require.NoError(t, err)

	assert.Equal(t, []m.Target{"https://old.example.com/login"}, f.browser.openedTargets())
	assert.Equal(t, []m.Target{"modern/login.html"}, f.static.openedTargets())
}

func TestWorkflow_View(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())
	f.reports.loaded["out"] = []m.ScenarioReport{
		{Scenario: "login", ComparisonReport: m.ComparisonReport{Matched: true}},
		{Scenario: "search", ComparisonReport: m.ComparisonReport{Matched: true}},
	}

	err := f.workflow.View(context.Background(), ViewArgs{Reports: "out"})
	require.NoError(t, err)

	assert.True(t, f.ui.has("report login"))
	assert.True(t, f.ui.has("report search"))
	assert.True(t, f.ui.has("summary 2"))
}

func TestWorkflow_ViewWithoutReports(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())

	err := f.workflow.View(context.Background(), ViewArgs{Reports: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reports found in empty")
}

func TestWorkflow_Fields(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())

	err := f.workflow.Fields(context.Background(), FieldsArgs{Mappings: "mappings.yaml"})
	require.NoError(t, err)

	require.NotNil(t, f.ui.fields)
	require.Len(t, f.ui.fields.Forms, 1)
	assert.Equal(t, "login", f.ui.fields.Forms[0].Name)
	assert.Equal(t, []string{"start", "fields", "wait", "close"}, f.ui.events)
}

func TestWorkflow_MergeCombinesShards(t *testing.T) {
	dir := t.TempDir()
	store := adapter.NewReportStore()

	shard0 := m.Path(filepath.Join(dir, adapter.ShardDirName(0, 2)))
	shard1 := m.Path(filepath.Join(dir, adapter.ShardDirName(1, 2)))

	require.NoError(t, store.SaveReports(shard0, []m.ScenarioReport{
		{Scenario: "login", ComparisonReport: m.ComparisonReport{Matched: true}},
	}))
	require.NoError(t, store.SaveReports(shard1, []m.ScenarioReport{
		{Scenario: "login", ComparisonReport: m.ComparisonReport{Matched: false}},
		{Scenario: "search", ComparisonReport: m.ComparisonReport{Matched: true}},
	}))

	f := newWorkflowFixture(workflowConfig())
	workflow := NewWorkflow(f.config, store, f.ui, f.static, f.browser, NewResolver(), NewTextMatcher())

	err := workflow.Merge(context.Background(), MergeArgs{Reports: m.Path(dir)})
	require.NoError(t, err)

	merged, err := store.LoadReports(m.Path(dir))
	require.NoError(t, err)
	require.Len(t, merged, 2)

	// The lexically last shard wins the collision on "login".
	assert.Equal(t, "login", merged[0].Scenario)
	assert.False(t, merged[0].Matched)
	assert.Equal(t, "search", merged[1].Scenario)
}

func TestWorkflow_MergeWithoutShards(t *testing.T) {
	f := newWorkflowFixture(workflowConfig())

	err := f.workflow.Merge(context.Background(), MergeArgs{Reports: "out"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no shard_* directories")
}
