package cmd

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trobanga/hl7anon/internal/models"
	"github.com/trobanga/hl7anon/internal/pipeline"
	"github.com/trobanga/hl7anon/internal/services"
	"github.com/trobanga/hl7anon/internal/ui"
)

// runCmd represents the run command group
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Inspect recorded anonymization runs",
	Long: `Inspect recorded anonymization runs.

Available subcommands:
  list - List all runs
  show - Show a single run`,
}

// runListCmd represents the run list command
var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all runs",
	Long: `List all anonymization runs in the runs directory, newest first.

Example:
  hl7anon run list`,
	Args: cobra.NoArgs,
	RunE: runRunList,
}

// runShowCmd represents the run show command
var runShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a single run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunShow,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.AddCommand(runListCmd)
	runCmd.AddCommand(runShowCmd)
}

func runRunList(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(config)

	runIDs, err := services.ListAllRuns(config.RunsDir)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runIDs) == 0 {
		fmt.Fprintln(out, "No runs found")
		return nil
	}

	runs := lo.FilterMap(runIDs, func(runID string, _ int) (*models.AnonymizationRun, bool) {
		run, err := pipeline.LoadRun(config.RunsDir, runID)
		if err != nil {
			logger.Warn("Failed to load run", "run_id", runID, "error", err)
			return nil, false
		}
		return run, true
	})

	// Newest first
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	table := uitable.New()
	table.MaxColWidth = 50
	addHeader(table, "RUN ID", "STATUS", "INPUT", "MESSAGES", "SIZE", "AGE")
	for _, run := range runs {
		table.AddRow(
			run.RunID,
			statusSymbol(run.Status)+" "+string(run.Status),
			run.InputFile,
			humanize.Comma(int64(run.MessagesProcessed)),
			ui.FormatBytes(run.BytesRead),
			humanize.Time(run.CreatedAt),
		)
	}

	fmt.Fprintln(out, table)
	fmt.Fprintf(out, "\nTotal: %d runs\n", len(runs))
	return nil
}

func runRunShow(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	run, err := pipeline.LoadRun(config.RunsDir, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, pipeline.GetRunSummary(run))
	fmt.Fprintf(out, "Size: %s\n", ui.FormatBytes(run.BytesRead))
	fmt.Fprintf(out, "Cache: %s\n", run.CacheFile)
	fmt.Fprintf(out, "Created: %s (%s)\n", run.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.CreatedAt))

	if run.Status == models.RunStatusInProgress && !services.IsCacheLocked(run.CacheFile) {
		// A live run holds the cache lock until it exits
		fmt.Fprintf(out, "\n%s No process holds the cache; the run was interrupted:\n  hl7anon anonymize %s\n",
			color.YellowString("→"), run.InputFile)
	}
	if run.Status == models.RunStatusFailed {
		fmt.Fprintf(out, "\n%s Fix the input and start a new run:\n  hl7anon anonymize %s\n",
			color.YellowString("→"), run.InputFile)
	}
	return nil
}

func statusSymbol(status models.RunStatus) string {
	switch status {
	case models.RunStatusCompleted:
		return color.GreenString("✓")
	case models.RunStatusInProgress:
		return color.CyanString("→")
	case models.RunStatusFailed:
		return color.RedString("✗")
	case models.RunStatusPending:
		return "○"
	default:
		return " "
	}
}

