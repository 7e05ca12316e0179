package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type testModel[T any] interface {
	Update(tea.Msg) (T, tea.Cmd)
}

// pumpModel executes a command, feeds the resulting messages back into
// the model, and repeats until the command chain settles. Spinner
// frames are dropped so the loop terminates; timer-driven messages are
// synthesized by the tests instead.
func pumpModel[T testModel[T]](t *testing.T, m T, cmd tea.Cmd) T {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 50, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if _, ok := msg.(spinner.TickMsg); ok {
			continue
		}
		var next tea.Cmd
		m, next = m.Update(msg)
		if next != nil {
			queue = append(queue, next)
		}
	}
	return m
}

// pumpApp is the shell variant: App.Update returns tea.Model, so the
// generic helper cannot type it.
func pumpApp(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 50, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if _, ok := msg.(spinner.TickMsg); ok {
			continue
		}
		model, next := a.Update(msg)
		a = model.(App)
		if next != nil {
			queue = append(queue, next)
		}
	}
	return a
}
