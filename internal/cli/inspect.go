package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/logicossoftware/go-pptxunlock"
)

func newInspectCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show whether a file is protected and list its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := pptxunlock.InspectFile(args[0], a.options()...)
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			if asJSON {
				b, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			printReport(cmd.OutOrStdout(), args[0], report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, path string, r *pptxunlock.Report) {
	fmt.Fprintln(w, TitleStyle.Render(path))
	fmt.Fprintf(w, "  entries: %d\n", len(r.Entries))
	if !r.HasTarget {
		fmt.Fprintln(w, "  "+WarningStyle.Render("no "+pptxunlock.TargetEntry+"; not a presentation package"))
		return
	}
	if !r.Protected() {
		fmt.Fprintln(w, "  protected: "+SuccessStyle.Render("no"))
		return
	}
	fmt.Fprintln(w, "  protected: "+ErrorStyle.Render(fmt.Sprintf("yes (%d verifier element(s))", len(r.Verifiers))))
	for i, v := range r.Verifiers {
		fmt.Fprintf(w, "  verifier %d:\n", i+1)
		keys := make([]string, 0, len(v.Attributes))
		for k := range v.Attributes {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "    %s = %s\n", SubtitleStyle.Render(k), v.Attributes[k])
		}
	}
}
