package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/logicossoftware/go-pptxunlock"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		outDir  string
		pattern string
		jobs    int
	)
	cmd := &cobra.Command{
		Use:   "batch DIR",
		Short: "Unlock every matching file in a directory",
		Long: `Unlock every file in DIR whose name matches --pattern.

Results are written to --out under the same file name, or over the input
files when --out is not given. A file that fails is reported and the run
continues with the next one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pattern == "" {
				pattern = a.cfg.Batch.Pattern
			}
			if jobs < 1 {
				jobs = a.cfg.Batch.Jobs
			}
			return a.runBatch(cmd, pptxunlock.BatchOptions{
				InputDir:  args[0],
				OutputDir: outDir,
				Pattern:   pattern,
				Jobs:      jobs,
			})
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: overwrite inputs)")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "file name pattern (default from config, *.pptx)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files processed concurrently (default from config)")
	return cmd
}

func (a *app) runBatch(cmd *cobra.Command, bo pptxunlock.BatchOptions) error {
	report, err := pptxunlock.Batch(cmd.Context(), bo, a.options()...)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	w := cmd.OutOrStdout()
	if report.Total() == 0 {
		fmt.Fprintln(w, WarningStyle.Render("no files matching "+bo.Pattern+" in ")+PathStyle.Render(bo.InputDir))
		return nil
	}
	printBatchReport(w, report)
	if report.Failed() > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d of %d files failed", report.Failed(), report.Total())}
	}
	return nil
}

func printBatchReport(w io.Writer, report *pptxunlock.BatchReport) {
	for _, o := range report.Outcomes {
		name := filepath.Base(o.Source)
		if o.OK() {
			fmt.Fprintf(w, "%s %s %s\n",
				SuccessStyle.Render("✓"),
				PathStyle.Render(name),
				SubtitleStyle.Render(fmt.Sprintf("(%d removed)", o.Removed)))
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", ErrorStyle.Render("✗"), PathStyle.Render(name), o.Err)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Summary"))
	fmt.Fprintf(w, "  total:     %d\n", report.Total())
	fmt.Fprintf(w, "  succeeded: %s\n", SuccessStyle.Render(fmt.Sprint(report.Succeeded())))
	fmt.Fprintf(w, "  failed:    %s\n", failedStyle(report.Failed()).Render(fmt.Sprint(report.Failed())))
}
