package main

import (
	"os"

	"github.com/spf13/cobra"

	"licznik/internal/commands"
	"licznik/internal/output"
)

var jsonFlag bool

var rootCmd = &cobra.Command{
	Use:   "licznik",
	Short: "Utility billing reconciliation and report engine",
	Long:  "Parse apartment billing sheets, validate consumption and charges, and export reconciliation reports",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		output.JSONMode = jsonFlag
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output in JSON format")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.AnalyzeCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
