package cli

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logicossoftware/go-pptxunlock"
)

const (
	modeSingle = "single"
	modeBatch  = "batch"
)

var (
	errNoPath = errors.New("no path given")
	errNoMode = errors.New("unknown mode")
)

type (
	// Choice is one entry of a Select prompt.
	Choice struct {
		Title string
		Value string
	}

	// Prompter asks the questions of interactive mode.
	Prompter interface {
		Select(title string, options []Choice) (string, error)
		Input(title, placeholder string) (string, error)
		Confirm(title string, def bool) (bool, error)
	}
)

func (a *app) getPrompter(cmd *cobra.Command) Prompter {
	if a.prompter != nil {
		return a.prompter
	}
	return newHuhPrompter(cmd.ErrOrStderr(), !a.stdinIsTerminal())
}

// runInteractive asks for a mode and its paths, then runs it.
func (a *app) runInteractive(cmd *cobra.Command) error {
	p := a.getPrompter(cmd)
	mode, err := p.Select("What do you want to unlock?", []Choice{
		{Title: "A single presentation", Value: modeSingle},
		{Title: "Every presentation in a folder", Value: modeBatch},
	})
	if err != nil {
		return err
	}

	switch mode {
	case modeSingle:
		return a.interactiveSingle(cmd, p)
	case modeBatch:
		return a.interactiveBatch(cmd, p)
	default:
		return &ExitError{Code: 2, Err: errNoMode}
	}
}

func (a *app) interactiveSingle(cmd *cobra.Command, p Prompter) error {
	raw, err := p.Input("Path to the .pptx file", "deck.pptx")
	if err != nil {
		return err
	}
	src := cleanPath(raw)
	if src == "" {
		return &ExitError{Code: 2, Err: errNoPath}
	}

	newFile, err := p.Confirm("Write to a new file?", false)
	if err != nil {
		return err
	}
	dst := ""
	if newFile {
		def := suffixedPath(src, a.cfg.Output.Suffix)
		raw, err := p.Input("Output path (blank for "+filepath.Base(def)+")", def)
		if err != nil {
			return err
		}
		dst = cleanPath(raw)
		if dst == "" {
			dst = def
		}
	}
	return a.runSingle(cmd, src, dst)
}

func (a *app) interactiveBatch(cmd *cobra.Command, p Prompter) error {
	raw, err := p.Input("Folder containing presentations", ".")
	if err != nil {
		return err
	}
	dir := cleanPath(raw)
	if dir == "" {
		return &ExitError{Code: 2, Err: errNoPath}
	}
	raw, err = p.Input("Output folder (blank to overwrite in place)", "")
	if err != nil {
		return err
	}
	return a.runBatch(cmd, pptxunlock.BatchOptions{
		InputDir:  dir,
		OutputDir: cleanPath(raw),
		Pattern:   a.cfg.Batch.Pattern,
		Jobs:      a.cfg.Batch.Jobs,
	})
}

// cleanPath strips whitespace and the quotes terminals add to dropped paths.
func cleanPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// suffixedPath returns path with suffix inserted before the extension.
func suffixedPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
