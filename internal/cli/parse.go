package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openpatterns/opf/pkg/opf"
	"github.com/openpatterns/opf/pkg/opf/diag"
)

func (c *CLI) newParseCommand() *cobra.Command {
	var output string
	var pretty bool
	var archive bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Translate one tokenized drawing into Open Pattern Format JSON",
		Args:  cobra.ExactArgs(1),
		Example: `  # Print the pattern to stdout
  opf parse shirt.json

  # Write it to a file
  opf parse shirt.json -o shirt.opf.json

  # Compact output, stored in the archive
  opf parse shirt.json --pretty=false --archive --db patterns.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if archive {
				if err := c.requireArchive(); err != nil {
					return err
				}
			}

			out, err := c.parser(archive).ParseFile(cmd.Context(), input)
			if err != nil {
				if out == nil || !opf.Fatal(err) {
					return err
				}
				// The messages are listed once here, not again in the error
				printDiagnostics(cmd.ErrOrStderr(), out.Result.Diagnostics)
				return fmt.Errorf("%s: %d block(s) rejected", input, countErrors(out.Result.Diagnostics))
			}

			if output != "" {
				if err := writeOutput(output, out.Result.Data, c.pretty(cmd, pretty)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Written to %s\n", output)
			} else if err := writeJSON(cmd.OutOrStdout(), out.Result.Data, c.pretty(cmd, pretty)); err != nil {
				return fmt.Errorf("write pattern: %w", err)
			}
			if out.ArchiveID != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Archived as %s\n", out.ArchiveID)
			}

			printDiagnostics(cmd.ErrOrStderr(), out.Result.Diagnostics)
			c.comp.Logger.Debug("parse command done",
				zap.String("input", input),
				zap.Duration("duration", out.Duration))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", true, "Pretty-print output (default from output.pretty)")
	cmd.Flags().BoolVar(&archive, "archive", false, "Also store the pattern in the archive")
	return cmd
}

// writeOutput writes v to path. A failed close is reported, since it can
// be the first sign of a short write.
func writeOutput(path string, v any, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := writeJSON(f, v, pretty); err != nil {
		_ = f.Close()
		return fmt.Errorf("write pattern: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func countErrors(ds []diag.Diagnostic) int {
	n := 0
	for _, d := range ds {
		if d.Severity == diag.Error {
			n++
		}
	}
	return n
}

func printDiagnostics(w io.Writer, ds []diag.Diagnostic) {
	if len(ds) == 0 {
		return
	}
	fmt.Fprintf(w, "\nDiagnostics (%d):\n", len(ds))
	for _, d := range ds {
		fmt.Fprintf(w, "  - %s\n", d.Message)
	}
}
