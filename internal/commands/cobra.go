package commands

import (
	"github.com/spf13/cobra"
)

// ServeCmd represents the serve command
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciliation HTTP server",
	Long:  "Start the HTTP API: uploads create analysis sessions, report endpoints return summaries and spreadsheet exports",
	Run: func(cmd *cobra.Command, args []string) {
		RunServe()
	},
}

// AnalyzeCmd represents the analyze command
var AnalyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Analyze billing sheets without starting a server",
	Long:  "Parse and merge one or more billing sheets, validate them and print the summary",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		apartment, _ := cmd.Flags().GetString("apartment")
		metrics, _ := cmd.Flags().GetStringSlice("metric")
		onlyMismatches, _ := cmd.Flags().GetBool("only-mismatches")
		RunAnalyze(args, AnalyzeOptions{
			Apartment:      apartment,
			Metrics:        metrics,
			OnlyMismatches: onlyMismatches,
		})
	},
}

func init() {
	AnalyzeCmd.Flags().StringP("apartment", "a", "", "Limit to one apartment (e.g. 'Polna 2/1')")
	AnalyzeCmd.Flags().StringSliceP("metric", "m", nil, "Limit to the named meters")
	AnalyzeCmd.Flags().Bool("only-mismatches", false, "Show only rows with validation problems")
}

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show licznik version",
	Run: func(cmd *cobra.Command, args []string) {
		RunVersion()
	},
}
