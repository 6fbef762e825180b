package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/logicossoftware/go-pptxunlock"
)

func newUnpackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unpack FILE DIR",
		Short: "Extract the parts of a package into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			pkg, err := pptxunlock.ReadPackage(f, info.Size(), a.options()...)
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			if a.dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "would extract %d entries\n", len(pkg.Entries))
				return nil
			}
			if err := pkg.Extract(args[1]); err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(fmt.Sprintf("✓ extracted %d entries to ", len(pkg.Entries)))+PathStyle.Render(args[1]))
			return nil
		},
	}
}

func newPackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pack DIR FILE",
		Short: "Build a package from a directory of parts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := pptxunlock.LoadDir(args[0])
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			if a.dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "would pack %d entries\n", len(pkg.Entries))
				return nil
			}
			out, err := os.Create(args[1])
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			if err := pkg.Write(out, a.options()...); err != nil {
				out.Close()
				return &ExitError{Code: 1, Err: err}
			}
			if err := out.Close(); err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(fmt.Sprintf("✓ packed %d entries into ", len(pkg.Entries)))+PathStyle.Render(args[1]))
			return nil
		},
	}
}
