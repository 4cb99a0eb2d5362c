package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gbdis/internal/analysis"
)

// BatchResult summarizes one cartridge of a batch run.
type BatchResult struct {
	File    string            `json:"file"`
	Title   string            `json:"title,omitempty"`
	Digest  string            `json:"digest,omitempty"`
	Summary *analysis.Summary `json:"summary,omitempty"`
	Error   string            `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <rom...>",
	Short: "Summarize many cartridges concurrently",
	Long: `Disassemble several cartridges in parallel and print a JSON array with
one summary per file, in argument order. A file that fails to load or decode
is reported in its entry unless --fail-fast is given.`,
	Example: `
# Coverage of a whole collection
gbdis batch --vectors roms/*.gb
  `,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}
		jobs, _ := cmd.Flags().GetInt("jobs")
		failFast, _ := cmd.Flags().GetBool("fail-fast")

		results, err := runBatch(cmd.Context(), args, cfg, jobs, failFast)
		if err != nil {
			return err
		}
		return writeBatch(cmd.OutOrStdout(), results)
	},
}

// runBatch analyzes files with at most jobs running at once. Each file gets
// its own image and engine. With failFast the first failure cancels the
// remaining work and is returned.
func runBatch(ctx context.Context, files []string, cfg Config, jobs int, failFast bool) ([]BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]BatchResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := BatchResult{File: file}
			im, res, err := analyze(file, cfg)
			if im != nil {
				r.Digest = im.Digest()
				if im.Header != nil {
					r.Title = im.Header.Title
				}
			}
			if res != nil {
				s := analysis.Summarize(res, im.Data)
				r.Summary = &s
			}
			if err != nil {
				slog.Debug("Batch entry failed", "file", file, "error", err)
				r.Error = err.Error()
				if failFast {
					return fmt.Errorf("%s: %w", file, err)
				}
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeBatch(w io.Writer, results []BatchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	batchCmd.Flags().IntP("jobs", "J", 0, "Files processed at once (default: number of CPUs)")
	batchCmd.Flags().Bool("fail-fast", false, "Stop at the first file that fails")
	addTraversalFlags(batchCmd)
	rootCmd.AddCommand(batchCmd)
}
