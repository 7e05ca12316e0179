package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/export"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

// Client is everything the app shell needs from the backend.
// *api.Client satisfies it.
type Client interface {
	Provider
	RecordGetter
	FlowFetcher
	Delete(ctx context.Context, resourcePath, id string) error
}

type viewKind int

const (
	viewList viewKind = iota
	viewDetail
	viewFlow
)

type deleteDoneMsg struct {
	res string
	id  string
	err error
}

type exportDoneMsg struct {
	path string
	n    int
	err  error
}

type appStatusExpireMsg struct {
	seq int
}

type deleteConfirm struct {
	res    resources.Resource
	record api.Record
}

// AppOptions tune the shell.
type AppOptions struct {
	PageSize int
	FlowName string
}

// App is the root model: the resource tab bar, one list page per
// visited resource, and the detail and flow views layered on top.
type App struct {
	client Client
	styles Styles
	log    *zap.Logger
	opts   AppOptions

	registry []resources.Resource
	active   int
	pages    map[string]*ListPage

	view   viewKind
	detail *DetailPage
	flow   *FlowPage

	confirm *deleteConfirm

	width     int
	height    int
	status    string
	statusSeq int
}

// NewApp creates the shell over the built-in resource registry.
func NewApp(client Client, styles Styles, log *zap.Logger, opts AppOptions) App {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.FlowName == "" {
		opts.FlowName = "demo"
	}
	a := App{
		client:   client,
		styles:   styles,
		log:      log,
		opts:     opts,
		registry: resources.Builtin(),
		pages:    make(map[string]*ListPage),
		width:    100,
		height:   30,
	}
	a.ensurePage(a.registry[0])
	return a
}

func (a *App) ensurePage(res resources.Resource) *ListPage {
	if page, ok := a.pages[res.Name]; ok {
		return page
	}
	page := NewListPage(a.client, res, a.styles, a.log, a.opts.PageSize)
	if res.CanDelete {
		page.RowActions = func(api.Record) string { return "d del" }
	}
	page.SetSize(a.width, a.contentHeight())
	a.pages[res.Name] = &page
	return &page
}

func (a App) activePage() *ListPage {
	return a.pages[a.registry[a.active].Name]
}

func (a App) contentHeight() int {
	h := a.height - 2
	if h < 5 {
		h = 5
	}
	return h
}

// Init starts the first resource view.
func (a App) Init() tea.Cmd {
	return a.activePage().Init()
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		ch := a.contentHeight()
		for _, page := range a.pages {
			page.SetSize(msg.Width, ch)
		}
		if a.detail != nil {
			a.detail.SetSize(msg.Width, ch)
		}
		if a.flow != nil {
			a.flow.SetSize(msg.Width, ch)
		}
		return a, nil

	case openDetailMsg:
		detail := NewDetailPage(a.client, msg.res, msg.record, a.styles, a.log)
		detail.SetSize(a.width, a.contentHeight())
		a.detail = &detail
		a.view = viewDetail
		return a, detail.Init()

	case deleteRequestMsg:
		a.confirm = &deleteConfirm{res: msg.res, record: msg.record}
		return a, nil

	case exportRequestMsg:
		return a, a.exportCmd(msg)

	case deleteDoneMsg:
		if msg.err != nil {
			return a.flash("Delete failed: " + msg.err.Error())
		}
		next, cmd := a.flash("Deleted " + msg.id)
		if page, ok := next.pages[msg.res]; ok {
			cmd = tea.Batch(cmd, page.Refetch())
		}
		return next, cmd

	case exportDoneMsg:
		if msg.err != nil {
			return a.flash("Export failed: " + msg.err.Error())
		}
		return a.flash(fmt.Sprintf("Exported %d records to %s", msg.n, msg.path))

	case appStatusExpireMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}

	return a.fanOut(msg)
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.confirm != nil {
		return a.updateConfirm(msg)
	}

	s := msg.String()
	if s == "ctrl+c" {
		return a, tea.Quit
	}

	// While the list page is capturing text or showing a menu, every
	// key belongs to it.
	capturing := a.view == viewList && a.activePage().capturing()
	if !capturing {
		switch s {
		case "q":
			if a.view == viewList {
				return a, tea.Quit
			}
			a.view = viewList
			return a, nil

		case "esc":
			if a.view != viewList {
				a.view = viewList
				return a, nil
			}

		case "tab":
			if a.view == viewList {
				return a.switchResource((a.active + 1) % len(a.registry))
			}

		case "shift+tab":
			if a.view == viewList {
				return a.switchResource((a.active - 1 + len(a.registry)) % len(a.registry))
			}

		case "w":
			if a.view == viewList {
				return a.openFlow()
			}

		default:
			if a.view == viewList && len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
				if i := int(s[0] - '1'); i < len(a.registry) {
					return a.switchResource(i)
				}
			}
		}
	}

	switch a.view {
	case viewDetail:
		if a.detail == nil {
			return a, nil
		}
		next, cmd := a.detail.Update(msg)
		a.detail = &next
		return a, cmd

	case viewFlow:
		if a.flow == nil {
			return a, nil
		}
		next, cmd := a.flow.Update(msg)
		a.flow = &next
		return a, cmd
	}

	page := a.activePage()
	next, cmd := page.Update(msg)
	*page = next
	return a, cmd
}

func (a App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		c := a.confirm
		a.confirm = nil
		return a, a.deleteCmd(c.res, c.record)
	case "n", "esc":
		a.confirm = nil
		return a, nil
	}
	return a, nil
}

// fanOut delivers data and timer messages to every live view. Each view
// keeps what is addressed to it and ignores the rest.
func (a App) fanOut(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, res := range a.registry {
		page, ok := a.pages[res.Name]
		if !ok {
			continue
		}
		next, cmd := page.Update(msg)
		*page = next
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if a.detail != nil {
		next, cmd := a.detail.Update(msg)
		a.detail = &next
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if a.flow != nil {
		next, cmd := a.flow.Update(msg)
		a.flow = &next
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return a, tea.Batch(cmds...)
}

func (a App) switchResource(i int) (tea.Model, tea.Cmd) {
	if i == a.active {
		return a, nil
	}
	a.active = i
	res := a.registry[i]
	if _, ok := a.pages[res.Name]; !ok {
		a.ensurePage(res)
		return a, a.pages[res.Name].Init()
	}
	return a, nil
}

func (a App) openFlow() (tea.Model, tea.Cmd) {
	a.view = viewFlow
	if a.flow == nil {
		fp := NewFlowPage(a.client, a.opts.FlowName, a.styles, a.log)
		fp.SetSize(a.width, a.contentHeight())
		a.flow = &fp
		return a, fp.Init()
	}
	return a, nil
}

func (a App) deleteCmd(res resources.Resource, rec api.Record) tea.Cmd {
	client := a.client
	path := res.Path
	name := res.Name
	id := rec.ID()
	return func() tea.Msg {
		err := client.Delete(context.Background(), path, id)
		return deleteDoneMsg{res: name, id: id, err: err}
	}
}

func (a App) exportCmd(req exportRequestMsg) tea.Cmd {
	client := a.client
	log := a.log
	return func() tea.Msg {
		name := fmt.Sprintf("%s-%s.csv", req.res.Name, time.Now().Format("20060102-150405"))
		f, err := os.Create(name)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		n, err := export.Run(context.Background(), client, f, export.Options{
			Resource: req.res,
			Params:   req.params,
			Format:   export.CSV,
			Logger:   log,
		})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: name, n: n}
	}
}

func (a App) flash(text string) (App, tea.Cmd) {
	a.status = text
	a.statusSeq++
	seq := a.statusSeq
	return a, tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return appStatusExpireMsg{seq: seq}
	})
}

// View renders the app.
func (a App) View() string {
	sections := []string{a.renderTabs()}

	switch {
	case a.confirm != nil:
		sections = append(sections, a.renderConfirm())
	case a.view == viewDetail && a.detail != nil:
		sections = append(sections, a.detail.View())
	case a.view == viewFlow && a.flow != nil:
		sections = append(sections, a.flow.View())
	default:
		sections = append(sections, a.activePage().View())
	}

	if a.status != "" {
		sections = append(sections, a.styles.Success.Render(a.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a App) renderTabs() string {
	parts := make([]string, 0, len(a.registry)+1)
	for i, res := range a.registry {
		label := fmt.Sprintf("%d %s", i+1, res.Title)
		if i == a.active && a.view == viewList {
			parts = append(parts, a.styles.Badge.Render(label))
			continue
		}
		parts = append(parts, a.styles.Muted.Render(label))
	}
	if a.view == viewFlow {
		parts = append(parts, a.styles.Badge.Render("w Flow"))
	} else {
		parts = append(parts, a.styles.Muted.Render("w Flow"))
	}
	return strings.Join(parts, a.styles.Muted.Render(" | "))
}

func (a App) renderConfirm() string {
	res := a.confirm.res
	label := a.confirm.record.ID()
	if len(res.Columns) > 0 {
		if v := res.Columns[0].Render(a.confirm.record); v != "" {
			label = v
		}
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Bold.Render(fmt.Sprintf("Delete %s?", label)),
		a.styles.Muted.Render("This cannot be undone."),
		"",
		a.styles.Muted.Render("y confirm | n cancel"),
	)
	return a.styles.Dialog.Render(body)
}
