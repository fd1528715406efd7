package commands

import (
	"os"

	"github.com/charmbracelet/huh"
	"github.com/dyluth/regent/internal/reconcile"
	"github.com/mattn/go-isatty"
)

// isInteractive reports whether stdin is a terminal. Replaced in tests.
var isInteractive = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// promptSelectionTerminal asks for the download mode and, for explicit
// selections, the level list.
func promptSelectionTerminal() (reconcile.Selection, error) {
	var mode reconcile.Mode
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[reconcile.Mode]().
			Title("Which levels do you want to download?").
			Options(
				huh.NewOption("Levels not yet downloaded", reconcile.ModeMissing),
				huh.NewOption("Specific levels", reconcile.ModeExplicit),
				huh.NewOption("All levels", reconcile.ModeAll),
			).
			Value(&mode),
	)).Run()
	if err != nil {
		return reconcile.Selection{}, err
	}
	if mode != reconcile.ModeExplicit {
		return reconcile.Selection{Mode: mode}, nil
	}

	var raw string
	err = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Levels to download").
			Placeholder("1,2,3").
			Validate(func(s string) error {
				_, err := reconcile.ParseIDs(s)
				return err
			}).
			Value(&raw),
	)).Run()
	if err != nil {
		return reconcile.Selection{}, err
	}

	ids, err := reconcile.ParseIDs(raw)
	if err != nil {
		return reconcile.Selection{}, err
	}
	return reconcile.Selection{Mode: reconcile.ModeExplicit, IDs: ids}, nil
}
