package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dyluth/regent/internal/artifacts"
	"github.com/dyluth/regent/internal/config"
	"github.com/dyluth/regent/internal/fetch"
	"github.com/dyluth/regent/internal/ledger"
	"github.com/dyluth/regent/internal/printer"
	"github.com/dyluth/regent/internal/store"
)

// session holds the configuration and logger shared by one command
// invocation and builds collaborators from them.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer
}

func newSession() (*session, error) {
	cfg, found, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closer, err := cfg.NewLogger(printer.ErrOut)
	if err != nil {
		return nil, printer.Error("failed to set up logging", err.Error(), []string{"Check the log section of your regent.yml"})
	}
	if !found {
		logger.Warn("config file not found, using defaults", "path", configPath)
	}

	return &session{cfg: cfg, logger: logger, closers: []io.Closer{closer}}, nil
}

// Close releases everything opened through the session, newest first.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Warn("failed to close resource", "error", err)
		}
	}
	s.closers = nil
}

// fetcher replays a static directory when remote.static_dir is set and
// fetches over HTTP otherwise.
func (s *session) fetcher() (fetch.Fetcher, error) {
	remote := s.cfg.Remote
	if remote.StaticDir != "" {
		s.logger.Debug("using static fetcher", "dir", remote.StaticDir)
		return fetch.NewStaticFetcher(remote.StaticDir), nil
	}

	f, err := fetch.NewHTTPFetcher(fetch.HTTPOptions{
		BaseURL:           remote.BaseURL,
		UserAgent:         remote.UserAgent,
		Timeout:           remote.Timeout,
		RequestsPerSecond: remote.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	return f, nil
}

func (s *session) ledger() *ledger.Store {
	return ledger.New(s.cfg.LedgerPath())
}

func (s *session) artifacts() *artifacts.Layout {
	return artifacts.New(s.cfg.Paths.BaseDir)
}

// openStore opens the configured backend and loads the puzzle mapping.
func (s *session) openStore(ctx context.Context) (*store.Store, error) {
	sc := s.cfg.Store
	backend, err := store.OpenBackend(ctx, store.BackendConfig{
		Kind:        sc.Backend,
		BaseDir:     s.cfg.Paths.BaseDir,
		RedisURL:    sc.RedisURL,
		Namespace:   sc.Namespace,
		PostgresDSN: sc.PostgresDSN,
		Logger:      s.logger,
	})
	if err != nil {
		return nil, s.storeError(err)
	}

	st, err := store.Open(ctx, backend)
	if err != nil {
		backend.Close()
		return nil, s.storeError(err)
	}
	s.closers = append(s.closers, st)
	return st, nil
}

func (s *session) storeError(err error) error {
	return printer.ErrorWithContext(
		"failed to open puzzle store",
		err.Error(),
		map[string]string{"Backend": s.cfg.Store.Backend, "Base dir": s.cfg.Paths.BaseDir},
		[]string{
			"Check the store section of regent.yml",
			"Switch to the local file backend:\n  store:\n    backend: file",
		},
	)
}

// catalog lists remote identifiers, reporting fetch failures to the user.
func (s *session) catalog(ctx context.Context, f fetch.Fetcher) ([]int, error) {
	ids, err := f.ListIdentifiers(ctx)
	if err != nil {
		source := s.cfg.Remote.BaseURL
		if s.cfg.Remote.StaticDir != "" {
			source = s.cfg.Remote.StaticDir
		}
		return nil, printer.ErrorWithContext(
			"failed to fetch catalog",
			err.Error(),
			map[string]string{"Source": source},
			[]string{"Check remote.base_url and your network connection"},
		)
	}
	return ids, nil
}
