// Package cmd provides the root command and CLI setup for fieldparity.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"fieldparity.dev/pkg/fieldparity/internal/adapter"
	"fieldparity.dev/pkg/fieldparity/internal/controller"
	"fieldparity.dev/pkg/fieldparity/internal/domain"
)

var configStore adapter.ConfigStore
var reportStore adapter.ReportStore
var staticOpener adapter.DocumentOpener
var browserOpener *adapter.BrowserOpener
var resolver domain.Resolver
var matcher domain.TextMatcher
var ui *controller.SwitchUI
var workflow domain.Workflow

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// mappingsPathFlag points at the comparison mapping file.
var mappingsPathFlag string

// headlessFlag controls whether live targets open in a visible browser.
var headlessFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewSwitchUI(controller.NewSimpleUI(rootCmd))
	configStore = adapter.NewFileConfigStore()
	reportStore = adapter.NewReportStore()
	staticOpener = adapter.NewStaticOpener()
	browserOpener = adapter.NewBrowserOpener(adapter.BrowserConfig{})
	resolver = domain.NewResolver()
	matcher = domain.NewTextMatcher()
	workflow = domain.NewWorkflow(
		configStore,
		reportStore,
		ui,
		staticOpener,
		browserOpener,
		resolver,
		matcher,
	)
}

const scenarioArgsHelp = `Scenario selection:
  - no arguments       compare every scenario in the mapping config
  - name ...           compare the named scenarios only
  - LEGACY MODERN      compare one ad-hoc pair of page targets
                       (http(s) URLs open in a browser, paths as snapshots)`

const rootLongDescription = `Fieldparity compares the semantic form fields of a legacy web UI against
its modern replacement. It resolves the configured locators on both
documents, pairs the resolved elements by category, attributes, and fuzzy
text, and reports which fields match, which went missing, and which
drifted.

` + scenarioArgsHelp

const runLongDescription = `Run field comparisons for the given scenarios (default: every scenario in
the mapping config).

` + scenarioArgsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fieldparity",
		Short: "Semantic field comparison for UI migrations",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// newRootCmd builds an isolated root command with its flags configured. The
// package-level rootCmd is assembled the same way through init.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for comparison reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().
		StringVarP(
			&mappingsPathFlag, mappingsFlagName, "m",
			viper.GetString(mappingsConfigKey),
			"path to the field mapping configuration",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(mappingsFlagName), mappingsConfigKey)

	cmd.PersistentFlags().BoolVar(&headlessFlag, headlessFlagName, viper.GetBool(browserHeadlessKey), "open live targets in a headless browser")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(headlessFlagName), browserHeadlessKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
