package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"shadersmith/internal/build"
	"shadersmith/internal/ui"
)

type batchOutcome struct {
	results []build.Result
	err     error
}

// buildAllWithUI runs the batch while a progress view renders its events.
func buildAllWithUI(ctx context.Context, s *session, targets []target, jobs int) ([]build.Result, error) {
	events := make(chan build.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	files := make([]string, len(targets))
	labels := make([]string, len(targets))
	for i, t := range targets {
		files[i] = t.source
		labels[i] = s.displayPath(t.source)
	}

	go func() {
		b := s.builder.WithProgress(build.ChannelSink{Ch: events})
		res, err := b.BuildAll(ctx, jobsOf(targets), jobs)
		outcomeCh <- batchOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("building shaders", files, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// The view may quit before the batch ends; keep the sink unblocked.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
