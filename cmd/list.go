package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fieldparity.dev/pkg/fieldparity/internal/domain"
	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured field mappings",
		Long: `List every configured field mapping with its legacy and modern locators.
Loading validates the mapping file, so this doubles as a config check.`,
		Args: cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			mappingsPath := m.Path(viper.GetString(mappingsConfigKey))
			return workflow.Fields(context.Background(), domain.FieldsArgs{Mappings: mappingsPath})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
