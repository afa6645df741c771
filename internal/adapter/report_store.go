package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// ReportStore persists scenario reports between a run and later viewing or
// merging. One JSON file per scenario keeps sharded CI runs conflict-free.
type ReportStore interface {
	SaveReports(dir m.Path, reports []m.ScenarioReport) error
	LoadReports(dir m.Path) ([]m.ScenarioReport, error)

	// ShardDirs lists shard_* subdirectories of dir, in lexical order.
	ShardDirs(dir m.Path) ([]m.Path, error)
}

// ShardDirName returns the subdirectory name holding one shard's reports.
func ShardDirName(index, total uint) string {
	return fmt.Sprintf("shard_%d_of_%d", index, total)
}

type fileReportStore struct{}

// NewReportStore creates the file-backed ReportStore.
func NewReportStore() ReportStore {
	return &fileReportStore{}
}

// SaveReports writes each report to <dir>/<scenario>.json. Marshaling is
// deterministic, so re-running an unchanged comparison rewrites identical
// bytes.
func (s *fileReportStore) SaveReports(dir m.Path, reports []m.ScenarioReport) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports directory %s: %w", dir, err)
	}

	for _, report := range reports {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report %s: %w", report.Scenario, err)
		}

		data = append(data, '\n')

		path := filepath.Join(string(dir), reportFileName(report.Scenario))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write report %s: %w", path, err)
		}
	}

	return nil
}

// LoadReports reads every *.json report in dir, in lexical filename order.
func (s *fileReportStore) LoadReports(dir m.Path) ([]m.ScenarioReport, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, fmt.Errorf("read reports directory %s: %w", dir, err)
	}

	var reports []m.ScenarioReport

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(string(dir), entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read report %s: %w", path, err)
		}

		var report m.ScenarioReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("decode report %s: %w", path, err)
		}

		reports = append(reports, report)
	}

	return reports, nil
}

// ShardDirs implements ReportStore.
func (s *fileReportStore) ShardDirs(dir m.Path) ([]m.Path, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, fmt.Errorf("read reports directory %s: %w", dir, err)
	}

	var dirs []m.Path

	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "shard_") {
			dirs = append(dirs, m.Path(filepath.Join(string(dir), entry.Name())))
		}
	}

	return dirs, nil
}

// reportFileName maps a scenario name to a filesystem-safe file name.
func reportFileName(scenario string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}

		return '_'
	}, scenario)

	if mapped == "" {
		mapped = "scenario"
	}

	return mapped + ".json"
}
