// Package cli contains the cobra command tree of the pptxunlock binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/logicossoftware/go-pptxunlock"
	"github.com/logicossoftware/go-pptxunlock/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// app carries flag values and the state built by the persistent pre-run.
type app struct {
	verbose      bool
	cfgFile      string
	cfgDir       string
	backup       bool
	backupComp   string
	deflateLevel int
	dryRun       bool

	cfg     *config.Config
	cfgPath string
	logger  *log.Logger

	// prompter drives interactive mode; nil selects the huh implementation.
	prompter Prompter
	// isTerminal reports whether stdin is a terminal.
	isTerminal func() bool
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// newRootCmd builds a fresh command tree bound to a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pptxunlock [source] [destination]",
		Short: "Remove the modify password from PowerPoint files",
		Long: TitleStyle.Render("pptxunlock") + SubtitleStyle.Render(" - remove the modify password from PowerPoint files") + `

pptxunlock deletes the <p:modifyVerifier/> element from ppt/presentation.xml
and repackages the presentation. Every other part of the file is kept as is.

Without arguments pptxunlock asks what to do. With a source path it unlocks
that file, writing to destination when given and in place otherwise.

` + SubtitleStyle.Render("Examples:") + `
  pptxunlock deck.pptx                    Unlock deck.pptx in place
  pptxunlock deck.pptx unlocked.pptx      Write the result to a new file
  pptxunlock batch ./slides --out ./open  Unlock every .pptx in ./slides
  pptxunlock inspect deck.pptx            Show whether deck.pptx is protected`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.runInteractive(cmd)
			}
			dst := ""
			if len(args) == 2 {
				dst = args[1]
			}
			return a.runSingle(cmd, args[0], dst)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/pptxunlock/config.toml)")
	pf.BoolVar(&a.backup, "backup", false, "keep the overwritten file as <destination>.bak")
	pf.StringVar(&a.backupComp, "backup-compression", "", "backup codec: none, zip, zstd, lz4 or brotli")
	pf.IntVar(&a.deflateLevel, "deflate-level", -1, "deflate level for rewritten entries (-2..9)")
	pf.BoolVar(&a.dryRun, "dry-run", false, "do everything except writing files")

	root.AddCommand(newBatchCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newRestoreCmd(a))
	root.AddCommand(newUnpackCmd(a))
	root.AddCommand(newPackCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

// Execute runs the CLI and exits the process with the resulting status.
func Execute() {
	a := &app{}
	root := newRootCmd(a)
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, path, err := config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: a.cfgFile,
		ConfigDirPath:  a.cfgDir,
	})
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}
	a.cfg, a.cfgPath = cfg, path

	level, _ := log.ParseLevel(cfg.Log.Level)
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "pptxunlock",
		Level:  level,
	})
	if path != "" {
		a.logger.Debug("loaded config", "path", path)
	}

	if !cmd.Flags().Changed("deflate-level") {
		a.deflateLevel = cfg.Deflate.Level
	}
	if !cmd.Flags().Changed("backup") {
		a.backup = cfg.Backup.Enabled
	}
	if a.backupComp == "" {
		a.backupComp = cfg.BackupCompression().String()
	}
	if _, err := pptxunlock.ParseCompression(a.backupComp); err != nil {
		return &ExitError{Code: 2, Err: err}
	}
	return nil
}

// options converts flags and configuration into library options.
func (a *app) options() []pptxunlock.Option {
	opts := []pptxunlock.Option{
		pptxunlock.WithLogger(a.logger),
		pptxunlock.WithLimits(a.cfg.LibraryLimits()),
		pptxunlock.WithDeflateLevel(a.deflateLevel),
		pptxunlock.WithDryRun(a.dryRun),
	}
	if a.backup {
		comp, _ := pptxunlock.ParseCompression(a.backupComp)
		opts = append(opts, pptxunlock.WithBackup(comp))
	}
	return opts
}

func (a *app) stdinIsTerminal() bool {
	if a.isTerminal != nil {
		return a.isTerminal()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// runSingle unlocks one file and prints the outcome.
func (a *app) runSingle(cmd *cobra.Command, src, dst string) error {
	res, err := pptxunlock.PatchFile(cmd.Context(), src, dst, a.options()...)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	printResult(cmd.OutOrStdout(), res, a.dryRun)
	return nil
}

func printResult(w io.Writer, res *pptxunlock.Result, dryRun bool) {
	if res.Removed == 0 {
		fmt.Fprintln(w, WarningStyle.Render("! no modifyVerifier element found; package rewritten unchanged"))
	} else {
		fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("✓ removed %d modifyVerifier element(s)", res.Removed)))
	}
	if dryRun {
		fmt.Fprintln(w, SubtitleStyle.Render("dry run: nothing written"))
		return
	}
	if res.Backup != "" {
		fmt.Fprintln(w, "  backup: "+PathStyle.Render(res.Backup))
	}
	fmt.Fprintln(w, SuccessStyle.Render("✓ saved ")+PathStyle.Render(res.Destination))
}
