package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapscan/snapscan/internal/config"
)

// configCmd shows where configuration is read from and can write a starter
// config file.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration search paths",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if used := GetConfigLoader().GetConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "Config file in use: %s\n", used)
		} else {
			fmt.Fprintln(out, "No config file in use (defaults and environment only)")
		}
		fmt.Fprintln(out, "Search paths:")
		for _, p := range config.GetConfigSearchPaths() {
			fmt.Fprintf(out, "  %s\n", p)
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			filename = args[0]
		}
		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return fmt.Errorf("error writing config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filename)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
