package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate default configuration files",
		Long: `Create a fieldparity.yaml populated with the current CLI defaults and a
starter mappings.yaml with an example scenario and field mapping, both in
the current working directory.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			if err := viper.SafeWriteConfigAs(targetPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			mappingsPath := m.Path(viper.GetString(mappingsConfigKey))
			if err := configStore.WriteDefault(mappingsPath); err != nil {
				return fmt.Errorf("failed to write mapping file: %w", err)
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
