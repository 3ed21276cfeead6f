package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trobanga/hl7anon/internal/anonymize"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/pipeline"
)

var staticOutputFile string

// staticCmd represents the static command group
var staticCmd = &cobra.Command{
	Use:   "static",
	Short: "Anonymize static reference data",
	Long: `Anonymize static reference data exported as YAML.

Available subcommands:
  anonymize - Anonymize a YAML file of reference records`,
}

// staticAnonymizeCmd represents the static anonymize command
var staticAnonymizeCmd = &cobra.Command{
	Use:   "anonymize <yaml-file>",
	Short: "Anonymize a YAML file of reference records",
	Long: `Anonymize a YAML sequence of reference data records.

Each record is a mapping with a 'type' key. Facility records get their
county, npi, zip, organization_name and local_code replaced; ReportableRegion
records their region_name and dim_facility_pk. Records of other types are
written out unchanged.

Replacements come from the same term cache as the message anonymizer, so a
facility keeps its synthetic identity in both. Zip codes are the exception:
they are regenerated on every pass.

Examples:
  hl7anon static anonymize facilities.yaml -o facilities.anon.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runStaticAnonymize,
}

func init() {
	rootCmd.AddCommand(staticCmd)
	staticCmd.AddCommand(staticAnonymizeCmd)

	staticAnonymizeCmd.Flags().StringVarP(&staticOutputFile, "output", "o", "", "output file (default: stdout)")
}

func runStaticAnonymize(cmd *cobra.Command, args []string) error {
	config, logger, store, err := setup()
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	resolver := anonymize.NewResolver(store, logger)
	generators, err := anonymize.NewGenerators(resolver, config)
	if err != nil {
		return err
	}

	anonymizer, err := pipeline.NewStaticDataAnonymizer(resolver, generators, logger)
	if err != nil {
		return err
	}

	err = lib.LogOperation(logger, "static anonymization", func() error {
		return anonymizer.AnonymizeFile(args[0], staticOutputFile, cmd.OutOrStdout())
	})
	if err != nil {
		return fmt.Errorf("static anonymization of %s failed: %w", args[0], err)
	}
	return nil
}
