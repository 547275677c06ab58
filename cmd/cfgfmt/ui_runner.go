package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"cfgfmt/internal/driver"
	"cfgfmt/internal/fsscan"
	"cfgfmt/internal/ui"
)

type formatOutcome struct {
	results []driver.FileResult
	summary driver.Summary
	err     error
}

// runFormatWithUI runs FormatTree behind a Bubble Tea progress screen.
// The file list for the screen comes from the same discovery options the
// driver uses, so the rows match the actual run.
func runFormatWithUI(ctx context.Context, root string, opts driver.Options) ([]driver.FileResult, driver.Summary, error) {
	files, err := fsscan.Collect(root, fsscan.Options{
		Recursive: opts.Recursive,
		Excludes:  opts.Excludes,
	})
	if err != nil {
		return nil, driver.Summary{}, err
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan formatOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		results, sum, err := driver.FormatTree(ctx, root, optsCopy)
		outcomeCh <- formatOutcome{results: results, summary: sum, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("formatting "+root, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, outcome.summary, uiErr
	}
	return outcome.results, outcome.summary, outcome.err
}
