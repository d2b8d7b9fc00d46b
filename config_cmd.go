package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"lukasolson.net/pylauncher/common"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the launcher configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default launcher.json into the base directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(baseDir, common.ConfigFilename)
		if err := common.WriteDefaultSettings(path); err != nil {
			return err
		}
		logger.Info("Wrote default configuration", "path", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printJSON(cmd.OutOrStdout(), settings)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
