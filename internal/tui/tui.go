package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the annotation view of one text and blocks until the user quits.
// opts.State, when set, is updated with where the user left off.
func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference(opts.Profile)

	m := newAppModel(ctx, opts)
	final, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(appModel); ok && opts.State != nil {
		*opts.State = *fm.finalState()
	}
	return nil
}
