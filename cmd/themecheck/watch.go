package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"themecheck/internal/observ"
	"themecheck/internal/theme"
)

// runWatch checks the whole theme once, then re-checks after every batch of
// file changes until interrupted. Only the changed files are re-read; the
// rest keep their parsed trees.
func runWatch(cmd *cobra.Command, sess *session, opts *checkOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := theme.NewWatcher(sess.theme.Dir, sess.cfg.Ignored, theme.DefaultDebounce, sess.logger)
	if err != nil {
		return fmt.Errorf("watch %s: %w", sess.theme.Dir, err)
	}
	defer w.Close()
	go w.Run(ctx)

	// the progress view would fight with the repeated reports
	opts.ui = uiModeOff
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	docs, timer, err := loadTimed(ctx, sess)
	if err != nil {
		return err
	}
	if _, err := checkDocs(ctx, out, errOut, sess, docs, opts, timer); err != nil {
		return err
	}
	for {
		if !opts.quiet {
			fmt.Fprintln(errOut, "watching for changes (ctrl+c to stop)")
		}
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-w.Batches():
			if !ok {
				return nil
			}
			if err := recheck(ctx, cmd, sess, opts, batch); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func recheck(ctx context.Context, cmd *cobra.Command, sess *session, opts *checkOptions, batch []string) error {
	timer := observ.NewTimer()
	idx := timer.Begin("reload")
	for _, rel := range batch {
		if err := sess.theme.Reload(rel); err != nil {
			sess.logger.Warn("reload failed", "file", rel, "err", err)
		}
	}
	timer.End(idx, fmt.Sprintf("%d files", len(batch)))
	if !opts.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%d file(s) changed, re-checking\n", len(batch))
	}
	docs := sess.theme.Docs.Snapshot(sess.theme.Root)
	_, err := checkDocs(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), sess, docs, opts, timer)
	return err
}
