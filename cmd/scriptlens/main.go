package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "scriptlens",
	Short: "AI assisted shell script analyzer",
	Long: `scriptlens reviews shell scripts with an AI model: it explains them,
audits security, performance and portability, proposes fixes, answers
questions and exports the findings as a standalone HTML report.

Available subcommands:
  serve   - Run the HTTP API
  analyze - Analyze one script file from the command line`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or config.yaml)")
	rootCmd.AddCommand(serveCmd, analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
