package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"smartcast/internal/driver"
	"smartcast/internal/ui"
)

type analyzeOutcome struct {
	results []driver.Result
	err     error
}

// runAnalyzeWithUI runs driver.AnalyzeUnits in the background and renders
// its progress events until the run finishes.
func runAnalyzeWithUI(ctx context.Context, title string, units []string, opts driver.Options) ([]driver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan analyzeOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.AnalyzeUnits(ctx, units, optsCopy)
		outcomeCh <- analyzeOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, units, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// модель могла выйти раньше (ctrl+c): дочитываем события, чтобы воркеры не заблокировались
	go func() {
		for range events {
		}
	}()
	var outcome analyzeOutcome
	select {
	case outcome = <-outcomeCh:
	default:
		// пользователь прервал UI до конца анализа
		cancel()
		outcome = <-outcomeCh
	}
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
