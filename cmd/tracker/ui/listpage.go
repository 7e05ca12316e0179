package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

// SearchDebounce is how long typing in the search box must be idle
// before the query fires.
const SearchDebounce = 500 * time.Millisecond

const (
	statusTTL    = 2 * time.Second
	skeletonRows = 8
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// Provider supplies list pages and resource metadata. *api.Client
// satisfies it; tests substitute scripted fakes.
type Provider interface {
	List(ctx context.Context, resourcePath string, params api.ListParams) (*api.ListResult, error)
	Metadata(ctx context.Context, resourcePath string) (*api.ResourceMeta, error)
}

// pageLoadedMsg carries one fetched page. gen ties it to the fetch that
// requested it; stale generations are dropped.
type pageLoadedMsg struct {
	resource string
	gen      int
	result   *api.ListResult
	err      error
}

// metaLoadedMsg carries resource metadata. A nil meta means the fetch
// failed and the view keeps its defaults.
type metaLoadedMsg struct {
	resource string
	meta     *api.ResourceMeta
}

type searchTickMsg struct {
	resource string
	seq      int
}

type statusExpireMsg struct {
	seq int
}

// Requests bubbled up to the app shell.
type openDetailMsg struct {
	res    resources.Resource
	record api.Record
}

type deleteRequestMsg struct {
	res    resources.Resource
	record api.Record
}

type exportRequestMsg struct {
	res    resources.Resource
	params api.ListParams
}

type menuState int

const (
	menuNone menuState = iota
	menuFilterField
	menuFilterValue
	menuSort
)

// ListPage is the paginated table view for one resource. It owns the
// query state (offset, search, ordering, filters), debounces search
// input, and drops fetch results that a newer query has superseded.
type ListPage struct {
	res      resources.Resource
	provider Provider
	styles   Styles
	log      *zap.Logger

	// OnCreate, when set, is invoked by the n key to start creating a
	// record. Pages without it ignore the key.
	OnCreate func() tea.Cmd
	// RowActions, when set, appends an actions cell to every table row.
	RowActions func(api.Record) string

	params        api.ListParams
	search        textinput.Model
	searchFocused bool
	searchSeq     int

	meta        *api.ResourceMeta
	sortOptions []api.SortOption

	result  *api.ListResult
	cursor  int
	loaded  bool
	loading bool
	loadErr error
	gen     int

	menu       menuState
	menuCursor int
	menuFilter api.FieldFilter

	spinner   spinner.Model
	width     int
	height    int
	status    string
	statusSeq int
}

// NewListPage creates a list view for the resource. The first fetch is
// issued by Init.
func NewListPage(provider Provider, res resources.Resource, styles Styles, log *zap.Logger, pageSize int) ListPage {
	if pageSize <= 0 {
		pageSize = 25
	}
	if log == nil {
		log = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = res.SearchHint
	if ti.Placeholder == "" {
		ti.Placeholder = "Search " + strings.ToLower(res.Title) + "..."
	}
	ti.Prompt = "/ "
	ti.CharLimit = 120
	ti.PromptStyle = styles.SearchPrompt

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return ListPage{
		res:      res,
		provider: provider,
		styles:   styles,
		log:      log,
		params:   api.ListParams{Limit: pageSize},
		search:   ti,
		spinner:  sp,
		// Explicit presets until metadata extends them.
		sortOptions: res.SortOptions,
		loading:     true,
		gen:         1,
		width:       100,
		height:      30,
	}
}

// Init starts the first page fetch and, for bound resources, the
// metadata fetch.
func (m ListPage) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.loadCmd(m.gen)}
	if m.res.Path != "" {
		cmds = append(cmds, m.metaCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m ListPage) Update(msg tea.Msg) (ListPage, tea.Cmd) {
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

	case pageLoadedMsg:
		if msg.resource != m.res.Path || msg.gen != m.gen {
			// A newer query is in flight; this page is stale.
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.loaded = true
		m.result = msg.result
		if n := len(msg.result.Results); m.cursor >= n {
			m.cursor = n - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		// The data shrank under a stale offset; snap to the last page.
		if len(msg.result.Results) == 0 && msg.result.Count > 0 && m.params.Offset > 0 {
			m.params.Offset = lastPageOffset(msg.result.Count, m.params.Limit)
			return m, m.refetch()
		}
		return m, nil

	case metaLoadedMsg:
		if msg.resource != m.res.Path || msg.meta == nil {
			return m, nil
		}
		m.meta = msg.meta
		m.sortOptions = api.MergeSortOptions(m.res.SortOptions, api.DeriveSortOptions(msg.meta))
		if ph := searchPlaceholder(msg.meta); ph != "" {
			m.search.Placeholder = ph
		}
		return m, nil

	case searchTickMsg:
		if msg.resource != m.res.Path || msg.seq != m.searchSeq {
			return m, nil
		}
		return m, m.commitSearch()

	case statusExpireMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.menu != menuNone {
			return m.updateMenu(msg)
		}
		if m.searchFocused {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m ListPage) updateKeys(msg tea.KeyMsg) (ListPage, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.result != nil && m.cursor < len(m.result.Results)-1 {
			m.cursor++
		}
		return m, nil

	case "left", "h":
		return m, m.prevPage()

	case "right", "l":
		return m, m.nextPage()

	case "/":
		m.searchFocused = true
		m.search.Focus()
		return m, textinput.Blink

	case "f":
		filters := m.interactiveFilters()
		if len(filters) == 0 {
			return m.flash("No filters for this view")
		}
		m.menu = menuFilterField
		m.menuCursor = 0
		return m, nil

	case "s":
		if len(m.sortOptions) == 0 {
			return m.flash("No sort options for this view")
		}
		m.menu = menuSort
		m.menuCursor = m.sortValueIndex()
		return m, nil

	case "r":
		return m, m.refetch()

	case "esc":
		if m.params.Search != "" || m.search.Value() != "" {
			m.search.SetValue("")
			m.searchSeq++
			return m, m.commitSearch()
		}
		return m, nil

	case "enter":
		if m.res.Path == "" {
			m.log.Warn("details requested for a view with no resource binding",
				zap.String("title", m.res.Title))
			return m.flash("Details unavailable for this view")
		}
		if rec, ok := m.SelectedRecord(); ok {
			res := m.res
			return m, func() tea.Msg { return openDetailMsg{res: res, record: rec} }
		}
		return m, nil

	case "n":
		if m.OnCreate == nil {
			return m, nil
		}
		return m, m.OnCreate()

	case "y":
		rec, ok := m.SelectedRecord()
		if !ok {
			return m, nil
		}
		id := rec.ID()
		if err := clipboardWriteAll(id); err != nil {
			return m.flash("Clipboard unavailable")
		}
		return m.flash("Copied " + id)

	case "d":
		if !m.res.CanDelete {
			return m, nil
		}
		if rec, ok := m.SelectedRecord(); ok {
			res := m.res
			return m, func() tea.Msg { return deleteRequestMsg{res: res, record: rec} }
		}
		return m, nil

	case "x":
		if m.res.Path == "" {
			return m.flash("Export unavailable for this view")
		}
		res := m.res
		params := m.params.Clone()
		return m, func() tea.Msg { return exportRequestMsg{res: res, params: params} }
	}

	return m, nil
}

func (m ListPage) updateSearch(msg tea.KeyMsg) (ListPage, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Abandon the edit and orphan any pending debounce tick.
		m.searchFocused = false
		m.search.Blur()
		m.search.SetValue(m.params.Search)
		m.searchSeq++
		return m, nil

	case "enter":
		m.searchFocused = false
		m.search.Blur()
		m.searchSeq++
		return m, m.commitSearch()
	}

	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	m.searchSeq++
	seq := m.searchSeq
	resource := m.res.Path
	tick := tea.Tick(SearchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{resource: resource, seq: seq}
	})
	return m, tea.Batch(cmd, tick)
}

func (m ListPage) updateMenu(msg tea.KeyMsg) (ListPage, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.menu = menuNone
		return m, nil

	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
		return m, nil

	case "down", "j":
		if m.menuCursor < m.menuLen()-1 {
			m.menuCursor++
		}
		return m, nil

	case "x", "backspace", "delete":
		// Clearing a filter is the same as picking All.
		if m.menu == menuFilterField {
			filters := m.interactiveFilters()
			if m.menuCursor < len(filters) {
				field := filters[m.menuCursor].Name
				m.menu = menuNone
				return m, m.setFilter(field, api.FilterAll)
			}
		}
		return m, nil

	case "enter":
		return m.selectMenuItem()
	}

	return m, nil
}

func (m ListPage) selectMenuItem() (ListPage, tea.Cmd) {
	switch m.menu {
	case menuFilterField:
		filters := m.interactiveFilters()
		if m.menuCursor < len(filters) {
			m.menuFilter = filters[m.menuCursor]
			m.menu = menuFilterValue
			m.menuCursor = m.filterValueIndex(m.menuFilter)
		}
		return m, nil

	case menuFilterValue:
		field := m.menuFilter.Name
		value := api.FilterAll
		if m.menuCursor > 0 && m.menuCursor-1 < len(m.menuFilter.Choices) {
			value = m.menuFilter.Choices[m.menuCursor-1].Value
		}
		m.menu = menuNone
		return m, m.setFilter(field, value)

	case menuSort:
		value := ""
		if m.menuCursor > 0 && m.menuCursor-1 < len(m.sortOptions) {
			value = m.sortOptions[m.menuCursor-1].Value
		}
		m.menu = menuNone
		return m, m.setOrdering(value)
	}

	m.menu = menuNone
	return m, nil
}

// refetch issues a new query for the current parameters, invalidating
// any fetch still in flight.
func (m *ListPage) refetch() tea.Cmd {
	m.gen++
	m.loading = true
	m.loadErr = nil
	return tea.Batch(m.loadCmd(m.gen), m.spinner.Tick)
}

func (m ListPage) loadCmd(gen int) tea.Cmd {
	provider := m.provider
	path := m.res.Path
	params := m.params.Clone()
	return func() tea.Msg {
		result, err := provider.List(context.Background(), path, params)
		return pageLoadedMsg{resource: path, gen: gen, result: result, err: err}
	}
}

func (m ListPage) metaCmd() tea.Cmd {
	provider := m.provider
	path := m.res.Path
	log := m.log
	return func() tea.Msg {
		meta, err := provider.Metadata(context.Background(), path)
		if err != nil {
			// The view degrades to defaults without metadata.
			log.Debug("metadata unavailable", zap.String("resource", path), zap.Error(err))
			return metaLoadedMsg{resource: path}
		}
		return metaLoadedMsg{resource: path, meta: meta}
	}
}

func (m *ListPage) commitSearch() tea.Cmd {
	text := m.search.Value()
	if text == m.params.Search {
		return nil
	}
	m.params.Search = text
	m.params.Offset = 0
	m.cursor = 0
	return m.refetch()
}

func (m *ListPage) setFilter(field, value string) tea.Cmd {
	if value == "" || value == api.FilterAll {
		if _, ok := m.params.Filters[field]; !ok {
			return nil
		}
		delete(m.params.Filters, field)
	} else {
		if m.params.Filters == nil {
			m.params.Filters = make(map[string]string)
		}
		if m.params.Filters[field] == value {
			return nil
		}
		m.params.Filters[field] = value
	}
	m.params.Offset = 0
	m.cursor = 0
	return m.refetch()
}

func (m *ListPage) setOrdering(value string) tea.Cmd {
	if m.params.Ordering == value {
		return nil
	}
	m.params.Ordering = value
	m.params.Offset = 0
	m.cursor = 0
	return m.refetch()
}

func (m *ListPage) nextPage() tea.Cmd {
	if m.result == nil || m.params.Offset+m.params.Limit >= m.result.Count {
		return nil
	}
	m.params.Offset += m.params.Limit
	m.cursor = 0
	return m.refetch()
}

func (m *ListPage) prevPage() tea.Cmd {
	if m.params.Offset <= 0 {
		return nil
	}
	m.params.Offset -= m.params.Limit
	if m.params.Offset < 0 {
		m.params.Offset = 0
	}
	m.cursor = 0
	return m.refetch()
}

// Refetch reloads the current page. The app shell calls it after a
// delete so the count and rows catch up.
func (m *ListPage) Refetch() tea.Cmd {
	return m.refetch()
}

func (m ListPage) flash(text string) (ListPage, tea.Cmd) {
	m.status = text
	m.statusSeq++
	seq := m.statusSeq
	return m, tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusExpireMsg{seq: seq}
	})
}

// capturing reports whether the page wants every keystroke: while the
// search box is focused or a menu is open, shell shortcuts stay out of
// the way.
func (m ListPage) capturing() bool {
	return m.searchFocused || m.menu != menuNone
}

// SelectedRecord returns the record under the cursor.
func (m ListPage) SelectedRecord() (api.Record, bool) {
	if m.result == nil || m.cursor < 0 || m.cursor >= len(m.result.Results) {
		return nil, false
	}
	return m.result.Results[m.cursor], true
}

func (m ListPage) interactiveFilters() []api.FieldFilter {
	return m.meta.InteractiveFilters()
}

func (m ListPage) menuLen() int {
	switch m.menu {
	case menuFilterField:
		return len(m.interactiveFilters())
	case menuFilterValue:
		return len(m.menuFilter.Choices) + 1
	case menuSort:
		return len(m.sortOptions) + 1
	}
	return 0
}

// filterValueIndex maps the active value of a filter to its menu row,
// with row 0 being All.
func (m ListPage) filterValueIndex(f api.FieldFilter) int {
	value, ok := m.params.Filters[f.Name]
	if !ok {
		return 0
	}
	for i, c := range f.Choices {
		if c.Value == value {
			return i + 1
		}
	}
	return 0
}

func (m ListPage) sortValueIndex() int {
	if m.params.Ordering == "" {
		return 0
	}
	for i, opt := range m.sortOptions {
		if opt.Value == m.params.Ordering {
			return i + 1
		}
	}
	return 0
}

// SetSize updates the size.
func (m *ListPage) SetSize(w, h int) {
	m.width = w
	m.height = h
	sw := w - 4
	if sw > 60 {
		sw = 60
	}
	if sw < 10 {
		sw = 10
	}
	m.search.Width = sw
}

// View renders the page.
func (m ListPage) View() string {
	sections := []string{m.renderHeader()}

	if m.searchFocused || m.search.Value() != "" {
		sections = append(sections, m.search.View())
	}
	if bar := m.renderFilterBar(); bar != "" {
		sections = append(sections, bar)
	}

	switch {
	case m.menu != menuNone:
		sections = append(sections, m.renderMenu())
	case m.loadErr != nil:
		sections = append(sections, m.renderError())
	case !m.loaded:
		sections = append(sections, Skeleton(m.styles, m.res.Columns, skeletonRows, m.width))
	default:
		sections = append(sections, m.renderTable())
	}

	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ListPage) renderHeader() string {
	parts := []string{m.styles.Title.Render(m.res.Title)}
	if m.result != nil && m.loadErr == nil {
		parts = append(parts, m.styles.Muted.Render(fmt.Sprintf("%d items", m.result.Count)))
	}
	if m.loading {
		parts = append(parts, m.spinner.View())
	}
	line := strings.Join(parts, "  ")
	return lipgloss.JoinVertical(lipgloss.Left, line, m.styles.RenderDivider(m.width))
}

func (m ListPage) renderFilterBar() string {
	var parts []string
	if label := m.sortLabel(); label != "" {
		parts = append(parts, m.styles.FilterOn.Render("Sort: "+label))
	}
	for _, f := range m.interactiveFilters() {
		value, ok := m.params.Filters[f.Name]
		if !ok {
			parts = append(parts, m.styles.FilterOff.Render(f.Label+": All"))
			continue
		}
		parts = append(parts, m.styles.FilterOn.Render(f.Label+": "+choiceLabel(f, value)))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, m.styles.Muted.Render(" | "))
}

func (m ListPage) renderTable() string {
	var rows []api.Record
	if m.result != nil {
		rows = m.result.Results
	}
	table := Table{
		Columns: m.res.Columns,
		Rows:    rows,
		Cursor:  m.cursor,
		Width:   m.width,
		Actions: m.RowActions,
	}
	view := table.View(m.styles)
	if len(rows) == 0 {
		view = lipgloss.JoinVertical(lipgloss.Left, view, m.styles.Muted.Render("No records found."))
	}
	return view
}

func (m ListPage) renderError() string {
	lines := []string{
		m.styles.Error.Render(fmt.Sprintf("Error loading %s", m.res.Title)),
	}
	if m.loadErr != nil {
		lines = append(lines, m.styles.Muted.Render(m.loadErr.Error()))
	}
	lines = append(lines, m.styles.Muted.Render("Press r to retry."))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m ListPage) renderMenu() string {
	var title string
	var items []string
	hint := "enter: apply | esc: close"

	switch m.menu {
	case menuFilterField:
		title = "Filter by"
		hint = "enter: choose | x: clear | esc: close"
		for _, f := range m.interactiveFilters() {
			current := "All"
			if v, ok := m.params.Filters[f.Name]; ok {
				current = choiceLabel(f, v)
			}
			items = append(items, fmt.Sprintf("%s: %s", f.Label, current))
		}
	case menuFilterValue:
		title = m.menuFilter.Label
		items = append(items, "All")
		for _, c := range m.menuFilter.Choices {
			items = append(items, c.Label)
		}
	case menuSort:
		title = "Sort by"
		items = append(items, "Default")
		for _, opt := range m.sortOptions {
			items = append(items, opt.Label)
		}
	}

	var sb strings.Builder
	sb.WriteString(m.styles.MenuTitle.Render(title))
	sb.WriteString("\n")
	for i, item := range items {
		style := m.styles.MenuItem
		if i == m.menuCursor {
			style = m.styles.MenuItemSel
		}
		sb.WriteString(style.Render(item))
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Muted.Render(hint))
	return sb.String()
}

func (m ListPage) renderFooter() string {
	if m.status != "" {
		return m.styles.Success.Render(m.status)
	}

	parts := []string{}
	if label := m.pageLabel(); label != "" {
		parts = append(parts, label)
	}
	hints := []string{"↑/↓ move", "←/→ page", "/ search", "f filter", "s sort", "r refresh", "enter open"}
	if m.OnCreate != nil {
		hints = append(hints, "n new")
	}
	if m.res.CanDelete {
		hints = append(hints, "d delete")
	}
	hints = append(hints, "y copy id", "x export")
	parts = append(parts, strings.Join(hints, " | "))
	return m.styles.Footer.Render(strings.Join(parts, "   "))
}

// pageLabel formats the pagination indicator. An empty result set reads
// "Page 1 of 0".
func (m ListPage) pageLabel() string {
	if m.result == nil {
		return ""
	}
	limit := m.params.Limit
	if limit <= 0 {
		limit = 1
	}
	totalPages := (m.result.Count + limit - 1) / limit
	current := m.params.Offset/limit + 1
	if m.result.Count == 0 {
		current = 1
	}
	return fmt.Sprintf("Page %d of %d", current, totalPages)
}

func (m ListPage) sortLabel() string {
	if m.params.Ordering == "" {
		return ""
	}
	for _, opt := range m.sortOptions {
		if opt.Value == m.params.Ordering {
			return opt.Label
		}
	}
	return m.params.Ordering
}

func choiceLabel(f api.FieldFilter, value string) string {
	for _, c := range f.Choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

func searchPlaceholder(meta *api.ResourceMeta) string {
	if meta == nil || len(meta.SearchFieldsDisplay) == 0 {
		return ""
	}
	return "Search by " + strings.Join(meta.SearchFieldsDisplay, ", ") + "..."
}

func lastPageOffset(count, limit int) int {
	if count <= 0 || limit <= 0 {
		return 0
	}
	return ((count - 1) / limit) * limit
}
