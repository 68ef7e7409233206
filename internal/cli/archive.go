package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/openpatterns/opf/pkg/opf/store"
)

func (c *CLI) newArchiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Query the pattern archive",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.initApp(cmd); err != nil {
				return err
			}
			return c.requireArchive()
		},
	}

	cmd.AddCommand(c.newArchiveListCommand())
	cmd.AddCommand(c.newArchiveShowCommand())
	cmd.AddCommand(c.newArchiveDeleteCommand())
	return cmd
}

func (c *CLI) newArchiveListCommand() *cobra.Command {
	var opts store.ListOptions
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived patterns, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.comp.Store.ListPatterns(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if asJSON {
				if list == nil {
					list = []store.Summary{}
				}
				return writeJSON(cmd.OutOrStdout(), list, c.comp.Config.Output.Pretty)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Archive is empty.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTYLE\tBASE\tPIECES\tSIZES\tDIAGNOSTICS\tCREATED\tSOURCE")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
					s.ID, s.StyleName, s.BaseSize, s.Pieces, s.Sizes, s.Diagnostics,
					s.CreatedAt.Local().Format(time.DateTime), s.Source)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Style, "style", "", "Only patterns of this style name")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", store.DefaultListLimit, "Maximum number of patterns")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print summaries as JSON")
	return cmd
}

func (c *CLI) newArchiveShowCommand() *cobra.Command {
	var withDiagnostics bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived pattern as Open Pattern Format JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !store.ValidID(args[0]) {
				return fmt.Errorf("invalid pattern id %q", args[0])
			}
			rec, err := c.comp.Store.GetPattern(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), rec.Format, c.comp.Config.Output.Pretty); err != nil {
				return err
			}
			if withDiagnostics {
				printDiagnostics(cmd.ErrOrStderr(), rec.Diagnostics)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withDiagnostics, "diagnostics", false, "Also print the stored diagnostics to stderr")
	return cmd
}

func (c *CLI) newArchiveDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an archived pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.comp.Store.DeletePattern(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
