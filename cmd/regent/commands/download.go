package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dyluth/regent/internal/acquire"
	"github.com/dyluth/regent/internal/convert"
	"github.com/dyluth/regent/internal/display"
	"github.com/dyluth/regent/internal/ledger"
	"github.com/dyluth/regent/internal/metrics"
	"github.com/dyluth/regent/internal/printer"
	"github.com/dyluth/regent/internal/reconcile"
	"github.com/dyluth/regent/internal/render"
	"github.com/spf13/cobra"
)

var (
	downloadAll          bool
	downloadLevels       string
	downloadMissing      bool
	downloadStableLabels bool
	downloadNoLedger     string
	downloadLedgerPolicy string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download puzzles from the remote catalog",
	Long: `Download puzzles from the remote catalog into the local store.

Modes (choose one):
  --all      Download every level in the catalog
  --levels   Download the listed levels, e.g. --levels 1,2,3
  --missing  Download levels not yet recorded in the ledger

Without a mode flag, an interactive prompt is shown when stdin is a
terminal.

A failing level never stops the run. Failed levels are listed in the
report at the end; re-run with --missing to retry them.

Examples:
  # Fetch everything new since the last run
  regent download --missing

  # Re-download two levels with deterministic color labels
  regent download --levels 12,40 --stable-labels`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().BoolVar(&downloadAll, "all", false, "Download every level in the catalog")
	downloadCmd.Flags().StringVar(&downloadLevels, "levels", "", "Comma-separated levels to download")
	downloadCmd.Flags().BoolVar(&downloadMissing, "missing", false, "Download levels missing from the ledger")
	downloadCmd.Flags().BoolVar(&downloadStableLabels, "stable-labels", false, "Number colors in first-seen order instead of randomly")
	downloadCmd.Flags().StringVar(&downloadNoLedger, "missing-without-ledger", "", "With --missing and no ledger: all or none (overrides config)")
	downloadCmd.Flags().StringVar(&downloadLedgerPolicy, "ledger-policy", "", "Ledger update policy: merge or replace (overrides config)")
	rootCmd.AddCommand(downloadCmd)
}

// promptSelection asks for a mode interactively. Replaced in tests.
var promptSelection = promptSelectionTerminal

func runDownload(cmd *cobra.Command, args []string) error {
	sel, err := selectionFromFlags(cmd)
	if err != nil {
		return err
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	applyDownloadOverrides(cmd, s)
	policy, noLedger, err := downloadPolicies(s)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, err := s.fetcher()
	if err != nil {
		return err
	}

	printer.Step("Fetching catalog...\n")
	remote, err := s.catalog(ctx, fetcher)
	if err != nil {
		return err
	}
	if len(remote) == 0 {
		printer.Warning("No levels found in the remote catalog\n")
		return nil
	}

	led := s.ledger()
	known, err := led.Load()
	if err != nil {
		return printer.ErrorWithContext(
			"failed to read ledger",
			err.Error(),
			map[string]string{"Ledger": led.Path()},
			[]string{"Fix or remove the ledger file, then run 'regent download --all'"},
		)
	}

	workSet, err := reconcile.Reconcile(remote, sel,
		reconcile.Ledger{IDs: known, Exists: led.Exists()},
		reconcile.Options{NoLedger: noLedger})
	if err != nil {
		if reconcile.IsSelectionError(err) {
			return printer.Error(
				"invalid level selection",
				err.Error(),
				[]string{"List available levels:\n  regent catalog"},
			)
		}
		return err
	}
	if len(workSet) == 0 {
		printer.Success("Nothing to download\n")
		return nil
	}

	st, err := s.openStore(ctx)
	if err != nil {
		return err
	}

	m := metrics.New()
	engine, err := acquire.New(acquire.Options{LedgerPolicy: policy}, acquire.Deps{
		Fetcher:   fetcher,
		Renderer:  render.NewPNGRenderer(),
		Converter: newConverter(s.cfg.Download.StableLabels),
		Store:     st,
		Ledger:    led,
		Artifacts: s.artifacts(),
		Metrics:   m,
		Logger:    s.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create download engine: %w", err)
	}

	printer.Step("Downloading %d level(s)...\n", len(workSet))
	summary, runErr := engine.Run(ctx, workSet)
	if summary != nil {
		display.FormatReport(printer.Out, summary)
	}

	if err := m.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		s.logger.Warn("failed to write metrics textfile", "path", s.cfg.Metrics.Textfile, "error", err)
	}

	if runErr != nil {
		var perr *acquire.PersistenceError
		if errors.As(runErr, &perr) {
			return printer.ErrorWithContext(
				"failed to save download results",
				runErr.Error(),
				map[string]string{"Backend": s.cfg.Store.Backend, "Ledger": led.Path()},
				[]string{"Fix the problem above and re-run with --missing"},
			)
		}
		return runErr
	}
	return nil
}

// selectionFromFlags maps mode flags to a selection, prompting when none is
// given and stdin is a terminal.
func selectionFromFlags(cmd *cobra.Command) (reconcile.Selection, error) {
	var modes []string
	if downloadAll {
		modes = append(modes, "--all")
	}
	if cmd.Flags().Changed("levels") {
		modes = append(modes, "--levels")
	}
	if downloadMissing {
		modes = append(modes, "--missing")
	}

	switch len(modes) {
	case 0:
		if !isInteractive() {
			return reconcile.Selection{}, printer.Error(
				"no download mode selected",
				"Choose which levels to download.",
				[]string{
					"Download everything:\n  regent download --all",
					"Download specific levels:\n  regent download --levels 1,2,3",
					"Download what is not yet in the ledger:\n  regent download --missing",
				},
			)
		}
		sel, err := promptSelection()
		if err != nil {
			return reconcile.Selection{}, fmt.Errorf("interactive selection failed: %w", err)
		}
		return sel, nil
	case 1:
	default:
		return reconcile.Selection{}, printer.Error(
			"conflicting download modes",
			fmt.Sprintf("Got %s; choose only one.", strings.Join(modes, ", ")),
			nil,
		)
	}

	switch {
	case downloadAll:
		return reconcile.Selection{Mode: reconcile.ModeAll}, nil
	case downloadMissing:
		return reconcile.Selection{Mode: reconcile.ModeMissing}, nil
	}

	ids, err := reconcile.ParseIDs(downloadLevels)
	if err != nil {
		return reconcile.Selection{}, printer.Error(
			"invalid --levels value",
			err.Error(),
			[]string{"Pass comma-separated level numbers:\n  regent download --levels 1,2,3"},
		)
	}
	return reconcile.Selection{Mode: reconcile.ModeExplicit, IDs: ids}, nil
}

// applyDownloadOverrides copies explicitly set flags over the loaded config.
func applyDownloadOverrides(cmd *cobra.Command, s *session) {
	flags := cmd.Flags()
	if flags.Changed("stable-labels") {
		s.cfg.Download.StableLabels = downloadStableLabels
	}
	if flags.Changed("missing-without-ledger") {
		s.cfg.Download.MissingWithoutLedger = downloadNoLedger
	}
	if flags.Changed("ledger-policy") {
		s.cfg.Download.LedgerPolicy = downloadLedgerPolicy
	}
}

func downloadPolicies(s *session) (ledger.Policy, reconcile.NoLedgerPolicy, error) {
	policy, err := ledger.ParsePolicy(s.cfg.Download.LedgerPolicy)
	if err != nil {
		return "", "", printer.Error("invalid ledger policy", err.Error(), []string{"Use --ledger-policy merge or --ledger-policy replace"})
	}
	noLedger, err := reconcile.ParseNoLedgerPolicy(s.cfg.Download.MissingWithoutLedger)
	if err != nil {
		return "", "", printer.Error("invalid missing-without-ledger policy", err.Error(), []string{"Use --missing-without-ledger all or --missing-without-ledger none"})
	}
	return policy, noLedger, nil
}

func newConverter(stable bool) *convert.Converter {
	if stable {
		return convert.New(convert.SequentialLabels{})
	}
	return convert.New(convert.NewRandomLabels())
}

// runContext returns the command context, or Background outside cobra.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
