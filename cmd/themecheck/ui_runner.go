package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"themecheck/internal/check"
	"themecheck/internal/source"
	"themecheck/internal/ui"
)

type checkOutcome struct {
	result *check.Result
	err    error
}

// runThemeWithUI runs the theme check while a Bubble Tea progress view
// renders per-file completion.
func runThemeWithUI(ctx context.Context, sess *session, docs []*source.SourceCode) (*check.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	files := make([]string, len(docs))
	broken := make(map[string]bool)
	for i, doc := range docs {
		files[i] = sess.theme.Rel(doc.URI)
		if doc.ParseErr != nil {
			broken[doc.URI] = true
		}
	}
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		res, err := sess.run(ctx, docs, func(uri string, offenses int) {
			status := ui.StatusDone
			if broken[uri] {
				status = ui.StatusError
			}
			events <- ui.Event{File: sess.theme.Rel(uri), Status: status, Offenses: offenses}
		})
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("Checking theme", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// the view may quit early; keep the workers from blocking on events
	go func() {
		for range events {
		}
	}()
	var outcome checkOutcome
	select {
	case outcome = <-outcomeCh:
	default:
		// quit before the run finished
		cancel()
		outcome = <-outcomeCh
	}
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
