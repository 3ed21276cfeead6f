package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"github.com/trobanga/hl7anon/internal/lib"
	"github.com/trobanga/hl7anon/internal/pipeline"
)

var (
	overwriteTerm bool
	termPrefix    string
)

// termCmd represents the term command group
var termCmd = &cobra.Command{
	Use:   "term",
	Short: "Inspect and edit the term cache",
	Long: `Inspect and edit the persistent term cache.

Available subcommands:
  lookup - Show the replacement of a term
  store  - Set the replacement of a term
  delete - Remove a term
  list   - List cached terms`,
}

// termLookupCmd represents the term lookup command
var termLookupCmd = &cobra.Command{
	Use:   "lookup <term>",
	Short: "Show the replacement of a term",
	Long: `Show the replacement cached for a term.

Two shorthand forms are understood:
  year,month,day,hour,minute   shows the shifted timestamp in the same form
  id^^^authority               looks up both parts of an identifier

Exits non-zero when the term is not cached.

Examples:
  hl7anon term lookup sendingapp
  hl7anon term lookup 2030,12,10,9,8
  hl7anon term lookup 'patientID^^^&assigningID&ISO'`,
	Args: cobra.ExactArgs(1),
	RunE: runTermLookup,
}

// termStoreCmd represents the term store command
var termStoreCmd = &cobra.Command{
	Use:   "store <term> <value>",
	Short: "Set the replacement of a term",
	Long: `Set the replacement of a term.

An existing replacement is only replaced with --overwrite.

Examples:
  hl7anon term store "Sacred Heart" "Site qwertyu"
  hl7anon term store "Sacred Heart" "Site asdfghj" --overwrite`,
	Args: cobra.ExactArgs(2),
	RunE: runTermStore,
}

// termDeleteCmd represents the term delete command
var termDeleteCmd = &cobra.Command{
	Use:   "delete <term>",
	Short: "Remove a term",
	Long: `Remove a term from the cache.

The next run that sees the term assigns it a fresh replacement.`,
	Args: cobra.ExactArgs(1),
	RunE: runTermDelete,
}

// termListCmd represents the term list command
var termListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached terms",
	Long: `List cached terms ordered by key.

Examples:
  hl7anon term list
  hl7anon term list --prefix date_delta-`,
	Args: cobra.NoArgs,
	RunE: runTermList,
}

func init() {
	rootCmd.AddCommand(termCmd)
	termCmd.AddCommand(termLookupCmd)
	termCmd.AddCommand(termStoreCmd)
	termCmd.AddCommand(termDeleteCmd)
	termCmd.AddCommand(termListCmd)

	termStoreCmd.Flags().BoolVar(&overwriteTerm, "overwrite", false, "replace an existing value")
	termListCmd.Flags().StringVar(&termPrefix, "prefix", "", "only list keys starting with prefix")
}

func runTermLookup(cmd *cobra.Command, args []string) error {
	_, logger, store, err := setup()
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	result, found, err := pipeline.LookupTerm(store, args[0])
	if err != nil {
		return err
	}
	if !found {
		return lib.ErrTermNotFound(args[0])
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

func runTermStore(cmd *cobra.Command, args []string) error {
	_, logger, store, err := setup()
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	if err := store.Put(args[0], args[1], overwriteTerm); err != nil {
		if lib.IsCategory(err, lib.CategoryCache) {
			return fmt.Errorf("%w (use --overwrite to replace it)", err)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Stored %q\n", color.GreenString("✓"), args[0])
	return nil
}

func runTermDelete(cmd *cobra.Command, args []string) error {
	_, logger, store, err := setup()
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	if err := store.Delete(args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %q\n", color.GreenString("✓"), args[0])
	return nil
}

func runTermList(cmd *cobra.Command, args []string) error {
	_, logger, store, err := setup()
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	terms, err := store.List(termPrefix)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(terms) == 0 {
		fmt.Fprintln(out, "No terms found")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 50
	addHeader(table, "KEY", "VALUE", "CACHED")
	for _, t := range terms {
		table.AddRow(t.Key, pipeline.FormatTermValue(t.Value), humanize.Time(t.CreatedAt))
	}

	fmt.Fprintln(out, table)
	fmt.Fprintf(out, "\nTotal: %s terms\n", humanize.Comma(int64(len(terms))))
	return nil
}

func addHeader(table *uitable.Table, columns ...string) {
	headerfmt := color.New(color.FgGreen, color.Underline).SprintFunc()
	row := make([]interface{}, 0, len(columns))
	for _, c := range columns {
		row = append(row, headerfmt(c))
	}
	table.AddRow(row...)
}
