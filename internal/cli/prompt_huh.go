package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/huh"
)

// huhPrompter implements Prompter with huh forms.
type huhPrompter struct {
	out        io.Writer
	accessible bool
}

func newHuhPrompter(out io.Writer, accessible bool) *huhPrompter {
	if os.Getenv("ACCESSIBLE") != "" {
		accessible = true
	}
	return &huhPrompter{out: out, accessible: accessible}
}

func (h *huhPrompter) run(field huh.Field) error {
	return huh.NewForm(huh.NewGroup(field)).
		WithTheme(huh.ThemeCharm()).
		WithAccessible(h.accessible).
		WithOutput(h.out).
		Run()
}

func (h *huhPrompter) Select(title string, options []Choice) (string, error) {
	var result string
	huhOpts := make([]huh.Option[string], len(options))
	for i, opt := range options {
		huhOpts[i] = huh.NewOption(opt.Title, opt.Value)
	}
	sel := huh.NewSelect[string]().
		Title(title).
		Options(huhOpts...).
		Value(&result)
	if err := h.run(sel); err != nil {
		return "", err
	}
	return result, nil
}

func (h *huhPrompter) Input(title, placeholder string) (string, error) {
	var result string
	in := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&result)
	if err := h.run(in); err != nil {
		return "", err
	}
	return result, nil
}

func (h *huhPrompter) Confirm(title string, def bool) (bool, error) {
	result := def
	c := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&result)
	if err := h.run(c); err != nil {
		return false, err
	}
	return result, nil
}
