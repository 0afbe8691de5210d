package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long:  "Load the configuration file and environment, then check types, ranges and cross-field constraints.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		source := cfgFile
		if source == "" {
			source = "defaults and environment"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration OK: %s\n", source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
