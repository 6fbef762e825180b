package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect pptxunlock configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.cfg.TOML()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if a.cfgPath != "" {
				fmt.Fprintf(w, "# loaded from %s\n", a.cfgPath)
			} else {
				fmt.Fprintln(w, "# defaults (no config file)")
			}
			fmt.Fprint(w, string(b))
			return nil
		},
	})
	return cmd
}
