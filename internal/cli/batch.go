package cli

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openpatterns/opf/pkg/opf"
	"github.com/openpatterns/opf/pkg/opf/report"
)

func (c *CLI) newBatchCommand() *cobra.Command {
	var workers int
	var pattern string
	var textfile string
	var archive bool

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Translate every matching drawing under a directory and print a report",
		Args:  cobra.ExactArgs(1),
		Example: `  # Parse all *.json drawings below ./drawings
  opf batch ./drawings

  # Eight workers, export node_exporter textfile metrics
  opf batch ./drawings --workers 8 --metrics-textfile /var/lib/node_exporter/opf.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.comp.Config
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Batch.Workers
			}
			if !cmd.Flags().Changed("pattern") {
				pattern = cfg.Batch.Pattern
			}
			if !cmd.Flags().Changed("metrics-textfile") {
				textfile = cfg.Metrics.Textfile
			}
			if workers < 1 {
				return fmt.Errorf("--workers must be positive, got %d", workers)
			}
			if archive {
				if err := c.requireArchive(); err != nil {
					return err
				}
			}

			files, err := findFiles(args[0], pattern)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No files matching %q found.\n", pattern)
				return nil
			}
			c.comp.Logger.Info("batch started",
				zap.String("dir", args[0]),
				zap.Int("files", len(files)),
				zap.Int("workers", workers))

			rep, err := runBatch(cmd.Context(), c.parser(archive), files, workers, c.comp.Logger)
			if err != nil {
				return err
			}
			if err := rep.Write(cmd.OutOrStdout()); err != nil {
				return err
			}

			if textfile != "" {
				if err := c.comp.Metrics.WriteTextfile(textfile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
				c.comp.Logger.Debug("metrics written", zap.String("path", textfile))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Files parsed concurrently (default from batch.workers)")
	cmd.Flags().StringVar(&pattern, "pattern", "*.json", "File name glob (default from batch.pattern)")
	cmd.Flags().StringVar(&textfile, "metrics-textfile", "", "Write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&archive, "archive", false, "Also store every successful pattern in the archive")
	return cmd
}

// findFiles walks dir and returns the files whose base name matches pattern,
// sorted.
func findFiles(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// runBatch parses files with at most workers in flight. Per-file failures
// end up in the report; only cancellation aborts the batch.
func runBatch(ctx context.Context, p *opf.Parser, files []string, workers int, logger *zap.Logger) (*report.Report, error) {
	rep := report.New()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for _, file := range files {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			out, err := p.ParseFile(egCtx, file)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				logger.Info("file failed", zap.String("file", file), zap.Error(err))
				res := report.FileResult{File: file, Err: err}
				if out != nil {
					res.Diagnostics = out.Result.Diagnostics
				}
				rep.Add(res)
				return nil
			}

			f := out.Result.Data
			logger.Info("file parsed",
				zap.String("file", file),
				zap.Int("pieces", len(f.Pieces)),
				zap.Int("diagnostics", len(out.Result.Diagnostics)))
			rep.Add(report.FileResult{
				File:        file,
				Pieces:      len(f.Pieces),
				Sizes:       len(f.Sizes),
				Diagnostics: out.Result.Diagnostics,
			})
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return rep, nil
}
