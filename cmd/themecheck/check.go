package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/observ"
	"themecheck/internal/report"
	"themecheck/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [dir]",
	Short: "Check the documents of a theme directory",
	Long: `Run the enabled checks over every Liquid template and JSON file below dir
(default: the current directory) and print the offenses found. The exit
status is 1 when an offense at or above --fail-level is reported.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	addSessionFlags(checkCmd)
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack)")
	checkCmd.Flags().String("fail-level", "error", "lowest severity that fails the run (error|warning|info|none)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("watch", false, "re-check on file changes until interrupted")
}

type checkOptions struct {
	format    report.Format
	failLevel diag.Severity
	failNever bool
	ui        uiMode
	watch     bool
	color     bool
	quiet     bool
	timings   bool
	max       int
}

func readCheckOptions(cmd *cobra.Command) (*checkOptions, error) {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := report.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}
	failStr, err := cmd.Flags().GetString("fail-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get fail-level flag: %w", err)
	}
	failLevel, failNever, err := readFailLevel(failStr)
	if err != nil {
		return nil, err
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiStr)
	if err != nil {
		return nil, err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return nil, fmt.Errorf("failed to get watch flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	color, err := useColor(cmd, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	return &checkOptions{
		format:    format,
		failLevel: failLevel,
		failNever: failNever,
		ui:        mode,
		watch:     watch,
		color:     color && format == report.FormatPretty,
		quiet:     quiet,
		timings:   timings,
		max:       maxDiagnostics,
	}, nil
}

// readFailLevel parses --fail-level; "none" never fails.
func readFailLevel(value string) (diag.Severity, bool, error) {
	if strings.EqualFold(strings.TrimSpace(value), "none") {
		return diag.SevError, true, nil
	}
	sev, err := diag.ParseSeverity(value)
	if err != nil {
		return diag.SevError, false, fmt.Errorf("invalid --fail-level value %q (expected error|warning|info|none)", value)
	}
	return sev, false, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := readCheckOptions(cmd)
	if err != nil {
		return err
	}
	sess, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	if opts.watch {
		return runWatch(cmd, sess, opts)
	}

	docs, timer, err := loadTimed(cmd.Context(), sess)
	if err != nil {
		return err
	}
	failed, err := checkDocs(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), sess, docs, opts, timer)
	if err != nil {
		return err
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

func loadTimed(ctx context.Context, sess *session) ([]*source.SourceCode, *observ.Timer, error) {
	timer := observ.NewTimer()
	idx := timer.Begin("load")
	docs, err := sess.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	timer.End(idx, fmt.Sprintf("%d files", len(docs)))
	return docs, timer, nil
}

// checkDocs runs one pass over docs, writes the report to out and timings
// to errOut. It reports whether the fail level was reached.
func checkDocs(ctx context.Context, out, errOut io.Writer, sess *session, docs []*source.SourceCode, opts *checkOptions, timer *observ.Timer) (bool, error) {
	idx := timer.Begin("check")
	var (
		res *check.Result
		err error
	)
	if shouldUseTUI(opts.ui, opts.format, opts.quiet) {
		res, err = runThemeWithUI(ctx, sess, docs)
	} else {
		res, err = sess.run(ctx, docs, nil)
	}
	if err != nil {
		return false, err
	}
	timer.End(idx, fmt.Sprintf("%d checks, %d offenses", len(sess.resolved.Checks), len(res.Offenses)))

	bag := diag.NewBag(0)
	bag.AddAll(res.Offenses)
	bag.Dedup()
	bag.Sort()

	idx = timer.Begin("report")
	err = report.Write(out, opts.format, bag.Items(), report.Options{
		Color:   opts.color,
		Root:    sess.theme.Root,
		Max:     opts.max,
		Text:    sess.text,
		Context: !opts.quiet,
	})
	timer.End(idx, string(opts.format))
	if err != nil {
		return false, err
	}
	if opts.timings && !opts.quiet {
		fmt.Fprint(errOut, timer.Summary())
		fmt.Fprint(errOut, sess.stats.Summary())
	}
	return !opts.failNever && bag.HasAtLeast(opts.failLevel), nil
}
