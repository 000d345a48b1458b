package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"themecheck/internal/diag"
	"themecheck/internal/fix"
	"themecheck/internal/report"
	"themecheck/internal/source"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [dir]",
	Short: "Apply available fixes to the documents of a theme directory",
	Long: `Run the enabled checks, then apply every fix that does not conflict with
one accepted before it in the same document. With --dry-run the changes are
printed as unified diffs and nothing is written.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runFix,
}

func init() {
	addSessionFlags(fixCmd)
	fixCmd.Flags().Bool("dry-run", false, "print unified diffs instead of writing files")
}

// fileChange is one document rewritten by fix.
type fileChange struct {
	Path      string
	EditCount int
}

type fixResult struct {
	Applied     []fix.AppliedFix
	Skipped     []fix.SkippedFix
	FileChanges []fileChange
}

func runFix(cmd *cobra.Command, args []string) error {
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	sess, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	docs, err := sess.load(ctx)
	if err != nil {
		return err
	}
	res, err := sess.run(ctx, docs, nil)
	if err != nil {
		return err
	}

	byURI := make(map[string][]diag.Offense)
	for _, o := range res.Offenses {
		if o.Fixable() {
			byURI[o.URI] = append(byURI[o.URI], o)
		}
	}

	out := cmd.OutOrStdout()
	summary := out
	if dryRun {
		// diffs own stdout so they can be piped into patch
		summary = cmd.ErrOrStderr()
	}
	result := &fixResult{}
	for _, doc := range docs {
		offenses := byURI[doc.URI]
		if len(offenses) == 0 {
			continue
		}
		rel := sess.theme.Rel(doc.URI)
		applied, err := fixDocument(out, doc, rel, offenses, dryRun)
		if applied != nil {
			result.Applied = append(result.Applied, applied.Applied...)
			result.Skipped = append(result.Skipped, applied.Skipped...)
		}
		if errors.Is(err, fix.ErrNoFixes) {
			continue
		}
		if err != nil {
			return fmt.Errorf("fix %s: %w", rel, err)
		}
		edits := 0
		for _, a := range applied.Applied {
			edits += a.EditCount
		}
		result.FileChanges = append(result.FileChanges, fileChange{Path: rel, EditCount: edits})
	}
	return printFixResult(summary, result, dryRun)
}

// fixDocument applies the fixes of offenses to doc and writes the result,
// or its diff when dryRun is set.
func fixDocument(out io.Writer, doc *source.SourceCode, rel string, offenses []diag.Offense, dryRun bool) (*fix.GreedyResult, error) {
	candidates := make([]fix.Candidate, 0, len(offenses))
	for _, o := range offenses {
		candidates = append(candidates, fix.Candidate{
			ID:    fmt.Sprintf("%s:%d:%d", o.Check, o.Start.Line+1, o.Start.Character+1),
			Title: o.Message,
			Build: o.Fix,
		})
	}
	res, err := fix.Greedy(doc.Kind, doc.Text, candidates)
	if err != nil {
		return res, err
	}
	if dryRun {
		patch, err := report.UnifiedDiff(rel, doc.Text, res.Output)
		if err != nil {
			return res, err
		}
		_, err = out.Write(patch)
		return res, err
	}
	path := source.URIToPath(doc.URI)
	info, err := os.Stat(path)
	if err != nil {
		return res, err
	}
	return res, os.WriteFile(path, []byte(res.Output), info.Mode().Perm())
}

func printFixResult(out io.Writer, res *fixResult, dryRun bool) error {
	var printErr error
	if len(res.Applied) == 0 && len(res.Skipped) == 0 {
		_, printErr = fmt.Fprintln(out, "No fixes available")
		return printErr
	}

	verb := "Applied"
	if dryRun {
		verb = "Would apply"
	}
	if len(res.Applied) > 0 {
		if _, printErr = fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(res.Applied)); printErr != nil {
			return printErr
		}
		for _, item := range res.Applied {
			if _, printErr = fmt.Fprintf(out, "  %s [%s] (%d edits)\n", item.Title, item.ID, item.EditCount); printErr != nil {
				return printErr
			}
		}
	}

	if len(res.FileChanges) > 0 {
		header := "Updated files:"
		if dryRun {
			header = "Files that would change:"
		}
		if _, printErr = fmt.Fprintln(out, header); printErr != nil {
			return printErr
		}
		for _, change := range res.FileChanges {
			if _, printErr = fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount); printErr != nil {
				return printErr
			}
		}
	}

	if len(res.Skipped) > 0 {
		if _, printErr = fmt.Fprintln(out, "Skipped fixes:"); printErr != nil {
			return printErr
		}
		for _, skip := range res.Skipped {
			if _, printErr = fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, skip.ID, skip.Reason); printErr != nil {
				return printErr
			}
		}
	}
	return nil
}
