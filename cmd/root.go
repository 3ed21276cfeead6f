/*
hl7anon de-identifies HL7 v2 batch files of the Minimum Biosurveillance Data Set.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/trobanga/hl7anon/internal/lib"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hl7anon",
	Short: "hl7anon - HL7 v2 MBDS de-identifier",
	Long: `hl7anon replaces sensitive values in HL7 v2 batch files with synthetic ones.

Every original value is looked up in a persistent term cache. A value seen
before gets the replacement it was given the first time, so the same patient,
facility or visit keeps one identity across messages, files and runs.
Timestamps are moved by one campaign wide offset, keeping their spacing.

Example:
  hl7anon anonymize batch.hl7 -o batch.anon.hl7
  hl7anon term lookup patientID
  hl7anon run list`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err with the guidance of the AnonError it carries
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.RedString("Error:"), err)

	classified := lib.ClassifyError(err)
	if len(classified.Guidance) > 0 {
		fmt.Fprintln(w, "\nHow to fix:")
		for i, guide := range classified.Guidance {
			fmt.Fprintf(w, "  %d. %s\n", i+1, guide)
		}
	}
}

func init() {
	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./hl7anon.yaml, ~/.config/hl7anon/hl7anon.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.SetVersionTemplate("hl7anon version {{.Version}}\n")
}
