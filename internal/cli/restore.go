package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logicossoftware/go-pptxunlock"
)

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore BACKUP [DESTINATION]",
		Short: "Write the original file back from a .bak backup",
		Long: `Decode a backup written with --backup and write the original file.

DESTINATION defaults to the backup path without its .bak suffix.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := ""
			if len(args) == 2 {
				dst = args[1]
			}
			if a.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("dry run: nothing written"))
				return nil
			}
			if err := pptxunlock.Restore(cmd.Context(), args[0], dst, a.options()...); err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			if dst == "" {
				dst = strings.TrimSuffix(args[0], pptxunlock.BackupSuffix)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ restored ")+PathStyle.Render(dst))
			return nil
		},
	}
}
