package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/flow"
)

// FlowFetcher loads a process flow graph. *api.Client satisfies it.
type FlowFetcher interface {
	Flow(ctx context.Context, name string) (*flow.Graph, error)
}

type flowLoadedMsg struct {
	name  string
	graph *flow.Graph
	err   error
}

const severityBarWidth = 20

// FlowPage renders the production line as an ordered list of steps with
// load severity bars and a bottleneck callout.
type FlowPage struct {
	name    string
	fetcher FlowFetcher
	styles  Styles
	log     *zap.Logger

	graph   *flow.Graph
	loading bool
	loadErr error

	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
}

// NewFlowPage creates the flow board for the named flow.
func NewFlowPage(fetcher FlowFetcher, name string, styles Styles, log *zap.Logger) FlowPage {
	if log == nil {
		log = zap.NewNop()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return FlowPage{
		name:     name,
		fetcher:  fetcher,
		styles:   styles,
		log:      log,
		loading:  true,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		width:    100,
		height:   30,
	}
}

// Init starts the graph fetch.
func (m FlowPage) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m FlowPage) loadCmd() tea.Cmd {
	fetcher := m.fetcher
	name := m.name
	return func() tea.Msg {
		graph, err := fetcher.Flow(context.Background(), name)
		return flowLoadedMsg{name: name, graph: graph, err: err}
	}
}

// Update handles messages.
func (m FlowPage) Update(msg tea.Msg) (FlowPage, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case flowLoadedMsg:
		if msg.name != m.name {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.graph = msg.graph
		m.refreshContent()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			m.loadErr = nil
			return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *FlowPage) refreshContent() {
	if m.graph == nil {
		m.viewport.SetContent("")
		return
	}

	var sb strings.Builder
	if step, ok := m.graph.Bottleneck(); ok {
		line := fmt.Sprintf("Bottleneck: %s (%s)", step.Name, step.Band())
		sb.WriteString(m.bandStyle(step.Band()).Render(line))
		sb.WriteString("\n\n")
	}

	for i, step := range m.graph.Steps {
		sb.WriteString(m.styles.Bold.Render(step.Name))
		if step.Station != "" {
			sb.WriteString(m.styles.Muted.Render("  @ " + step.Station))
		}
		sb.WriteString("\n")

		stats := fmt.Sprintf("queue %d | avg %.0fm | capacity %d", step.Queue, step.AvgMinutes, step.Capacity)
		sb.WriteString(m.styles.Muted.Render(stats))
		sb.WriteString("\n")

		sb.WriteString(m.severityLine(step))
		sb.WriteString("\n")

		if i < len(m.graph.Steps)-1 {
			sb.WriteString(m.styles.Muted.Render("  ↓"))
			sb.WriteString("\n")
		}
	}

	m.viewport.SetContent(sb.String())
}

func (m FlowPage) severityLine(step flow.Step) string {
	sev := step.Severity()
	filled := int(sev / 100 * severityBarWidth)
	if filled > severityBarWidth {
		filled = severityBarWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", severityBarWidth-filled)
	label := fmt.Sprintf(" %3.0f%% %s", sev, step.Band())
	return m.bandStyle(step.Band()).Render(bar) + m.styles.Muted.Render(label)
}

func (m FlowPage) bandStyle(b flow.Band) lipgloss.Style {
	switch b {
	case flow.High:
		return m.styles.Error
	case flow.Watch:
		return m.styles.Warning
	}
	return m.styles.Success
}

// SetSize updates the size.
func (m *FlowPage) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - 4
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.refreshContent()
}

// View renders the page.
func (m FlowPage) View() string {
	title := m.styles.Title.Render("Process Flow")
	if m.graph != nil {
		title += m.styles.Muted.Render(" / " + m.graph.Name)
	}
	if m.loading {
		title += "  " + m.spinner.View()
	}

	sections := []string{title, m.styles.RenderDivider(m.width)}
	switch {
	case m.loadErr != nil:
		sections = append(sections,
			m.styles.Error.Render("Error loading process flow"),
			m.styles.Muted.Render(m.loadErr.Error()),
			m.styles.Muted.Render("Press r to retry."))
	default:
		sections = append(sections, m.viewport.View())
	}
	sections = append(sections, m.styles.Footer.Render("↑/↓ scroll | r refresh | esc back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
