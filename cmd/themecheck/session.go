package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"themecheck/internal/check"
	"themecheck/internal/checks"
	"themecheck/internal/config"
	"themecheck/internal/docset"
	"themecheck/internal/observ"
	"themecheck/internal/source"
	"themecheck/internal/theme"
)

// session is one theme directory with its resolved configuration, shared by
// check, watch and fix.
type session struct {
	cfg      *config.Config
	resolved *config.Resolved
	theme    *theme.Theme
	files    []string
	docset   docset.Provider
	stats    *observ.Stats
	logger   *slog.Logger
	jobs     int
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "TOML configuration file")
	cmd.Flags().StringSlice("only", nil, "run only these checks")
	cmd.Flags().StringSlice("exclude", nil, "skip these checks")
	cmd.Flags().Int("jobs", 0, "documents checked in parallel (0 = GOMAXPROCS)")
}

func newSession(cmd *cobra.Command, args []string) (*session, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	only, err := cmd.Flags().GetStringSlice("only")
	if err != nil {
		return nil, fmt.Errorf("failed to get only flag: %w", err)
	}
	exclude, err := cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return nil, fmt.Errorf("failed to get exclude flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	cfg := config.Default()
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	resolved, err := cfg.Resolve(checks.All(), config.Selection{Only: only, Exclude: exclude})
	if err != nil {
		return nil, err
	}
	th, err := theme.New(dir, nil)
	if err != nil {
		return nil, err
	}
	files, err := theme.Files(th.Dir, cfg.Ignored)
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("theme", th.Dir)
	logger.Debug("session ready", "files", len(files), "checks", len(resolved.Checks), "jobs", jobs)
	return &session{
		cfg:      cfg,
		resolved: resolved,
		theme:    th,
		files:    files,
		docset:   &docset.Builtin{},
		stats:    observ.NewStats(),
		logger:   logger,
		jobs:     jobs,
	}, nil
}

// load reads every listed file into the document store.
func (s *session) load(ctx context.Context) ([]*source.SourceCode, error) {
	return s.theme.Load(ctx, s.files, s.jobs)
}

// run checks docs with the resolved checks. progress may be nil.
func (s *session) run(ctx context.Context, docs []*source.SourceCode, progress func(uri string, offenses int)) (*check.Result, error) {
	shared := &check.Shared{
		Root:     s.theme.Root,
		Theme:    docs,
		FS:       docset.OS{Root: s.theme.Dir},
		Docset:   s.docset,
		Settings: s.resolved.Settings,
		Logger:   s.logger,
		Stats:    s.stats,
		Jobs:     s.jobs,
		Progress: progress,
	}
	res, err := check.RunTheme(ctx, s.resolved.Checks, docs, shared)
	if err != nil {
		return nil, err
	}
	for _, e := range res.Errors {
		s.logger.Error("check failed", "check", e.Check, "uri", e.URI, "err", e.Err)
	}
	return res, nil
}

// text returns the loaded text of uri for report context lines.
func (s *session) text(uri string) (string, bool) {
	doc, ok := s.theme.Docs.Get(uri)
	if !ok {
		return "", false
	}
	return doc.Text, true
}
