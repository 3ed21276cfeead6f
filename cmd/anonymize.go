package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/pipeline"
	"github.com/trobanga/hl7anon/internal/ui"
)

var (
	outputFile string
	noProgress bool
)

// anonymizeCmd represents the anonymize command
var anonymizeCmd = &cobra.Command{
	Use:   "anonymize <input-file>",
	Short: "Anonymize an HL7 v2 batch file",
	Long: `Anonymize every message of an HL7 v2 batch file.

Messages are found by their MSH, BHS or FHS header; each is rewritten and
written out followed by a carriage return. Output goes to stdout unless -o
is given, in which case it is written to <output>.part and renamed once the
whole batch succeeded.

Every invocation is recorded as a run under runs_dir.

Examples:
  # Anonymize to a file
  hl7anon anonymize batch.hl7 -o batch.anon.hl7

  # Anonymize to stdout without progress indicators
  hl7anon anonymize batch.hl7 --no-progress > batch.anon.hl7`,
	Args: cobra.ExactArgs(1),
	RunE: runAnonymize,
}

func init() {
	rootCmd.AddCommand(anonymizeCmd)

	anonymizeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	anonymizeCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress indicators")
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	inputFile := args[0]

	info, err := os.Stat(inputFile)
	if err != nil {
		return lib.WrapFileError(inputFile, err)
	}

	config, logger, store, err := setup()
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	runner, err := pipeline.NewRunner(config, store, logger)
	if err != nil {
		return err
	}

	bar := ui.NewProgressBar(info.Size(), "anonymizing", !noProgress)
	run, err := runner.Run(inputFile, outputFile, cmd.OutOrStdout(), func(offset int64) {
		_ = bar.Set(offset)
	})
	_ = bar.Finish()

	// Stdout may carry the anonymized batch; reports go to stderr
	report := cmd.ErrOrStderr()
	if err != nil {
		if run != nil {
			fmt.Fprintf(report, "\n%s Run %s failed after %d messages\n",
				color.RedString("✗"), run.RunID, run.MessagesProcessed)
		}
		return err
	}

	fmt.Fprintf(report, "\n%s Run %s completed\n", color.GreenString("✓"), run.RunID)
	fmt.Fprintf(report, "  %s\n", ui.RunSummary(run.MessagesProcessed, run.BytesRead, run.UpdatedAt.Sub(run.CreatedAt)))
	if outputFile != "" {
		fmt.Fprintf(report, "  Output: %s\n", outputFile)
	}
	return nil
}
