package adapter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

func sampleReports() []m.ScenarioReport {
	return []m.ScenarioReport{
		{
			Scenario: "login",
			Legacy:   "legacy/login.html",
			Modern:   "http://localhost:4200/login",
			ComparisonReport: m.ComparisonReport{
				Groups: []m.GroupResult{
					{
						Group: "forms.login",
						Verdicts: []m.FieldVerdict{
							{
								Field:       "username",
								Path:        "forms.login.username",
								Required:    true,
								State:       m.FieldMatched,
								Matched:     true,
								LegacyCount: 1,
								ModernCount: 1,
							},
						},
					},
				},
				Tally:   m.Tally{Matched: 1},
				Matched: true,
			},
		},
		{
			Scenario: "user profile",
			Legacy:   "legacy/profile.html",
			Modern:   "http://localhost:4200/profile",
			ComparisonReport: m.ComparisonReport{
				Groups: []m.GroupResult{
					{
						Group: "navigation",
						Verdicts: []m.FieldVerdict{
							{
								Field:       "home",
								Path:        "navigation.home",
								Required:    true,
								State:       m.FieldMismatched,
								LegacyCount: 1,
								Missing:     []string{`a "Home"`},
								Reasons:     []string{"1 of 1 legacy elements unmatched"},
							},
						},
					},
				},
				Tally: m.Tally{Mismatched: 1},
			},
		},
	}
}

func TestFileReportStore_SaveAndLoad(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(t.TempDir())

	if err := store.SaveReports(dir, sampleReports()); err != nil {
		t.Fatalf("SaveReports() error = %v", err)
	}

	for _, name := range []string{"login.json", "user_profile.json"} {
		if _, err := os.Stat(filepath.Join(string(dir), name)); err != nil {
			t.Fatalf("expected report file %s: %v", name, err)
		}
	}

	loaded, err := store.LoadReports(dir)
	if err != nil {
		t.Fatalf("LoadReports() error = %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("LoadReports() returned %d reports, want 2", len(loaded))
	}

	// Lexical filename order.
	if loaded[0].Scenario != "login" || loaded[1].Scenario != "user profile" {
		t.Fatalf("LoadReports() order = %q, %q", loaded[0].Scenario, loaded[1].Scenario)
	}

	if !loaded[0].Matched || loaded[0].Tally.Matched != 1 {
		t.Fatalf("login report did not round-trip: %+v", loaded[0])
	}

	verdict := loaded[1].Groups[0].Verdicts[0]
	if verdict.State != m.FieldMismatched || len(verdict.Missing) != 1 {
		t.Fatalf("profile verdict did not round-trip: %+v", verdict)
	}
}

func TestFileReportStore_SaveIsDeterministic(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(t.TempDir())
	reports := sampleReports()

	if err := store.SaveReports(dir, reports); err != nil {
		t.Fatalf("SaveReports() error = %v", err)
	}

	path := filepath.Join(string(dir), "login.json")

	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if err := store.SaveReports(dir, reports); err != nil {
		t.Fatalf("SaveReports() error = %v", err)
	}

	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("repeated SaveReports() produced different bytes")
	}
}

func TestFileReportStore_LoadSkipsForeignFiles(t *testing.T) {
	store := NewReportStore()
	dir := t.TempDir()

	if err := store.SaveReports(m.Path(dir), sampleReports()[:1]); err != nil {
		t.Fatalf("SaveReports() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := os.Mkdir(filepath.Join(dir, "shard_0_of_2"), 0o750); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	loaded, err := store.LoadReports(m.Path(dir))
	if err != nil {
		t.Fatalf("LoadReports() error = %v", err)
	}

	if len(loaded) != 1 {
		t.Fatalf("LoadReports() returned %d reports, want 1", len(loaded))
	}
}

func TestFileReportStore_ShardDirs(t *testing.T) {
	store := NewReportStore()
	dir := t.TempDir()

	for _, name := range []string{"shard_1_of_2", "shard_0_of_2", "archive"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o750); err != nil {
			t.Fatalf("Mkdir() error = %v", err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "shard_note.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	dirs, err := store.ShardDirs(m.Path(dir))
	if err != nil {
		t.Fatalf("ShardDirs() error = %v", err)
	}

	want := []m.Path{
		m.Path(filepath.Join(dir, "shard_0_of_2")),
		m.Path(filepath.Join(dir, "shard_1_of_2")),
	}

	if len(dirs) != len(want) || dirs[0] != want[0] || dirs[1] != want[1] {
		t.Fatalf("ShardDirs() = %v, want %v", dirs, want)
	}
}

func TestShardDirName(t *testing.T) {
	if got := ShardDirName(0, 4); got != "shard_0_of_4" {
		t.Fatalf("ShardDirName(0, 4) = %q, want shard_0_of_4", got)
	}
}
