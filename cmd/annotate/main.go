package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Girlweb/ai-data-annotation-tool/internal/config"
)

var version = "dev"

var (
	configPath string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:           "annotate",
	Short:         "Data annotation and quality assessment tool",
	Long:          "Record image category labels, score entries against quality criteria,\ncollect pairwise comparison decisions, and export the results to\nJSON, CSV, and a local SQLite archive.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: $XDG_CONFIG_HOME/annotate/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration for a command:
// config file, environment, then per-command flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if v, _ := cmd.Flags().GetString("report"); v != "" {
		cfg.Export.Report = v
	}
	if v, _ := cmd.Flags().GetString("csv"); v != "" {
		cfg.Export.CSV = v
	}
	if cmd.Flags().Changed("db") {
		v, _ := cmd.Flags().GetString("db")
		cfg.Export.Archive = v
	}

	if noColor || !cfg.Color {
		color.NoColor = true
	}
	return cfg, nil
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().String("report", "", "JSON report output path (overrides config)")
	cmd.Flags().String("csv", "", "CSV export path (overrides config)")
	cmd.Flags().String("db", "", "SQLite archive path (overrides config)")
}
