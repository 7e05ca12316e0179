package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

// RecordGetter fetches one record by id. *api.Client satisfies it.
type RecordGetter interface {
	Get(ctx context.Context, resourcePath, id string) (api.Record, error)
}

type recordLoadedMsg struct {
	resource string
	id       string
	record   api.Record
	err      error
}

// markdownFields render as formatted text blocks under the field list
// instead of inline rows.
var markdownFields = []string{"description", "notes", "instructions"}

// DetailPage shows a single record: the column fields first, any
// remaining fields after, and long-form text rendered as markdown. The
// row the list already had paints immediately; a background fetch
// refreshes it.
type DetailPage struct {
	res    resources.Resource
	id     string
	getter RecordGetter
	styles Styles
	log    *zap.Logger

	record  api.Record
	loading bool
	loadErr error

	viewport viewport.Model
	renderer *glamour.TermRenderer
	spinner  spinner.Model

	width     int
	height    int
	status    string
	statusSeq int
}

// NewDetailPage creates a detail view seeded with the record the list
// page selected.
func NewDetailPage(getter RecordGetter, res resources.Resource, record api.Record, styles Styles, log *zap.Logger) DetailPage {
	if log == nil {
		log = zap.NewNop()
	}

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := DetailPage{
		res:      res,
		id:       record.ID(),
		getter:   getter,
		styles:   styles,
		log:      log,
		record:   record,
		loading:  true,
		viewport: vp,
		renderer: newMarkdownRenderer(styles.Theme, 76),
		spinner:  sp,
		width:    100,
		height:   30,
	}
	m.refreshContent()
	return m
}

func newMarkdownRenderer(theme Theme, wrap int) *glamour.TermRenderer {
	if wrap < 20 {
		wrap = 20
	}
	var renderer *glamour.TermRenderer
	if theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(wrap),
		)
	}
	return renderer
}

// Init starts the authoritative fetch for the record.
func (m DetailPage) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m DetailPage) loadCmd() tea.Cmd {
	getter := m.getter
	path := m.res.Path
	id := m.id
	return func() tea.Msg {
		rec, err := getter.Get(context.Background(), path, id)
		return recordLoadedMsg{resource: path, id: id, record: rec, err: err}
	}
}

// Update handles messages.
func (m DetailPage) Update(msg tea.Msg) (DetailPage, tea.Cmd) {
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

	case recordLoadedMsg:
		if msg.resource != m.res.Path || msg.id != m.id {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			// The seeded row stays visible under the error banner.
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.record = msg.record
		m.refreshContent()
		return m, nil

	case statusExpireMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			m.loadErr = nil
			return m, tea.Batch(m.loadCmd(), m.spinner.Tick)
		case "y":
			if err := clipboardWriteAll(m.id); err != nil {
				return m.flash("Clipboard unavailable")
			}
			return m.flash("Copied " + m.id)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DetailPage) flash(text string) (DetailPage, tea.Cmd) {
	m.status = text
	m.statusSeq++
	seq := m.statusSeq
	return m, tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusExpireMsg{seq: seq}
	})
}

// refreshContent rebuilds the viewport body from the current record.
func (m *DetailPage) refreshContent() {
	if m.record == nil {
		m.viewport.SetContent("")
		return
	}

	labelWidth := 0
	for _, col := range m.res.Columns {
		if w := len(col.Title); w > labelWidth {
			labelWidth = w
		}
	}

	shown := map[string]bool{"id": true}
	var sb strings.Builder

	for _, col := range m.res.Columns {
		shown[col.Field] = true
		sb.WriteString(m.fieldRow(col.Title, col.Render(m.record), labelWidth))
	}

	// Remaining fields, minus the ones that render as markdown below.
	extras := make([]string, 0, len(m.record))
	for field := range m.record {
		if shown[field] || isMarkdownField(field) {
			continue
		}
		extras = append(extras, field)
	}
	sort.Strings(extras)
	for _, field := range extras {
		value := fmt.Sprintf("%v", m.record[field])
		title := api.Titleize(field)
		if len(title) > labelWidth {
			labelWidth = len(title)
		}
		sb.WriteString(m.fieldRow(title, value, labelWidth))
	}

	for _, field := range markdownFields {
		text := m.record.String(field)
		if text == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(m.styles.Subtitle.Render(api.Titleize(field)))
		sb.WriteString("\n")
		sb.WriteString(m.renderMarkdown(text))
		sb.WriteString("\n")
	}

	m.viewport.SetContent(sb.String())
}

func (m DetailPage) fieldRow(label, value string, width int) string {
	padded := fmt.Sprintf("%-*s", width, label)
	return m.styles.Muted.Render(padded) + "  " + m.styles.Body.Render(value) + "\n"
}

func (m DetailPage) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func isMarkdownField(field string) bool {
	for _, f := range markdownFields {
		if f == field {
			return true
		}
	}
	return false
}

// SetSize updates the size.
func (m *DetailPage) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - 4
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.renderer = newMarkdownRenderer(m.styles.Theme, w-4)
	m.refreshContent()
}

// View renders the page.
func (m DetailPage) View() string {
	title := m.styles.Title.Render(m.res.Title) + m.styles.Muted.Render(" / "+m.id)
	if m.loading {
		title += "  " + m.spinner.View()
	}

	sections := []string{title, m.styles.RenderDivider(m.width)}
	if m.loadErr != nil {
		sections = append(sections,
			m.styles.Error.Render("Error loading record"),
			m.styles.Muted.Render(m.loadErr.Error()))
	}
	sections = append(sections, m.viewport.View(), m.renderDetailFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DetailPage) renderDetailFooter() string {
	if m.status != "" {
		return m.styles.Success.Render(m.status)
	}
	return m.styles.Footer.Render("↑/↓ scroll | r refresh | y copy id | esc back")
}
