package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fieldparity.dev/pkg/fieldparity/internal/adapter"
	"fieldparity.dev/pkg/fieldparity/internal/controller"
	"fieldparity.dev/pkg/fieldparity/internal/domain"
	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

var runParallelFlag uint
var runShardFlag string
var runTUIFlag bool
var pageTimeoutFlag time.Duration

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenarios... | LEGACY MODERN]",
		Short: "Compare legacy and modern documents",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			shardIndex, totalShards := parseShardFlag(runShardFlag)

			browserOpener.Configure(adapter.BrowserConfig{
				Headless:    viper.GetBool(browserHeadlessKey),
				PageTimeout: viper.GetDuration(pageTimeoutConfigKey),
			})
			ui.Use(controller.NewUI(cmd, viper.GetBool(runTUIConfigKey)))

			runArgs := domain.RunArgs{
				Mappings:        m.Path(viper.GetString(mappingsConfigKey)),
				Reports:         m.Path(viper.GetString(outputFlagName)),
				Parallel:        viper.GetUint(runParallelConfigKey),
				ShardIndex:      shardIndex,
				TotalShardCount: totalShards,
			}

			if legacy, modern, ok := splitTargetPair(args); ok {
				runArgs.Legacy = legacy
				runArgs.Modern = modern
			} else {
				runArgs.Scenarios = args
			}

			return workflow.Run(context.Background(), runArgs)
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().UintVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetUint(runParallelConfigKey), "number of scenarios to compare in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)
	cmd.Flags().StringVarP(&runShardFlag, runShardFlagName, "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")
	cmd.Flags().BoolVar(&runTUIFlag, runTUIFlagName, viper.GetBool(runTUIConfigKey), "show interactive progress while comparing")
	bindFlagToConfig(cmd.Flags().Lookup(runTUIFlagName), runTUIConfigKey)
	cmd.Flags().DurationVar(&pageTimeoutFlag, pageTimeoutFlagName, viper.GetDuration(pageTimeoutConfigKey), "time allowed for navigation and load per page")
	bindFlagToConfig(cmd.Flags().Lookup(pageTimeoutFlagName), pageTimeoutConfigKey)
}

func parseShardFlag(shard string) (uint, uint) {
	if shard == "" {
		return 0, 0
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 0
	}

	return uint(index), uint(total)
}

// splitTargetPair interprets exactly two target-looking arguments as an
// ad-hoc legacy/modern pair. Anything else is a list of scenario names.
func splitTargetPair(args []string) (m.Target, m.Target, bool) {
	if len(args) != 2 || !looksLikeTarget(args[0]) || !looksLikeTarget(args[1]) {
		return "", "", false
	}

	return m.Target(args[0]), m.Target(args[1]), true
}

// looksLikeTarget reports whether the argument names a URL or an existing
// file rather than a scenario.
func looksLikeTarget(arg string) bool {
	if strings.Contains(arg, "://") {
		return true
	}

	_, err := os.Stat(arg)

	return err == nil
}
