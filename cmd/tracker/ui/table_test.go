package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

func breakpointColumns() []resources.Column {
	return []resources.Column{
		{Title: "A", Field: "a", Priority: 1},
		{Title: "B", Field: "b", Priority: 2},
		{Title: "C", Field: "c", Priority: 3},
		{Title: "D", Field: "d", Priority: 4},
		{Title: "E", Field: "e", Priority: 5},
		{Title: "F", Field: "f", Priority: 7},
	}
}

func TestVisibleColumnsBreakpoints(t *testing.T) {
	tests := []struct {
		width  int
		fields []string
	}{
		{0, []string{"a"}},
		{79, []string{"a"}},
		{80, []string{"a", "b"}},
		{99, []string{"a", "b"}},
		{100, []string{"a", "b", "c"}},
		{119, []string{"a", "b", "c"}},
		{120, []string{"a", "b", "c", "d"}},
		{139, []string{"a", "b", "c", "d"}},
		{140, []string{"a", "b", "c", "d", "e", "f"}},
		{200, []string{"a", "b", "c", "d", "e", "f"}},
	}
	for _, tt := range tests {
		got := VisibleColumns(breakpointColumns(), tt.width)
		fields := make([]string, len(got))
		for i, c := range got {
			fields[i] = c.Field
		}
		assert.Equal(t, tt.fields, fields, "width %d", tt.width)
	}
}

func TestVisibleColumnsZeroPriorityAlwaysShown(t *testing.T) {
	cols := []resources.Column{{Title: "ID", Field: "id"}}
	got := VisibleColumns(cols, 10)
	require.Len(t, got, 1)
}

func TestTableViewRendersRows(t *testing.T) {
	table := Table{
		Columns: []resources.Column{
			{Title: "Order", Field: "erp_id", Kind: resources.Text, Priority: 1},
			{Title: "Qty", Field: "quantity", Kind: resources.Number, Priority: 1},
			{Title: "Rush", Field: "is_rush", Kind: resources.Bool, Priority: 1},
		},
		Rows: []api.Record{
			{"erp_id": "WO-1001", "quantity": float64(250), "is_rush": true},
			{"erp_id": "WO-1002", "quantity": float64(75), "is_rush": false},
		},
		Cursor: 1,
		Width:  80,
	}

	view := table.View(DefaultStyles())
	assert.Contains(t, view, "Order")
	assert.Contains(t, view, "WO-1001")
	assert.Contains(t, view, "250")
	assert.Contains(t, view, "yes")
	assert.Contains(t, view, "no")

	lines := strings.Split(strings.TrimRight(view, "\n"), "\n")
	// Header, divider, two rows.
	assert.Len(t, lines, 4)
}

func TestTableViewAppendsActionsColumn(t *testing.T) {
	table := Table{
		Columns: []resources.Column{
			{Title: "Order", Field: "erp_id", Priority: 1},
		},
		Rows: []api.Record{
			{"erp_id": "WO-1001"},
			{"erp_id": "WO-1002"},
		},
		Width:   80,
		Actions: func(api.Record) string { return "d del" },
	}

	view := table.View(DefaultStyles())
	assert.Contains(t, view, "Actions")
	assert.Equal(t, 2, strings.Count(view, "d del"), "one actions cell per row")

	// The actions cell sits outside the priority machinery and stays
	// visible when data columns drop out.
	table.Columns = append(table.Columns, resources.Column{
		Title: "Created", Field: "created_at", Kind: resources.DateTime, Priority: 5,
	})
	view = table.View(DefaultStyles())
	assert.NotContains(t, view, "Created")
	assert.Contains(t, view, "Actions")
}

func TestTableViewFitsNarrowWidth(t *testing.T) {
	long := strings.Repeat("x", 70)
	table := Table{
		Columns: []resources.Column{
			{Title: "Name", Field: "name", Priority: 1},
			{Title: "Status", Field: "status", Priority: 1},
		},
		Rows: []api.Record{
			{"name": long, "status": "ACTIVE"},
		},
		Width: 40,
	}

	view := table.View(DefaultStyles())
	for _, line := range strings.Split(view, "\n") {
		if line == "" {
			continue
		}
		assert.LessOrEqual(t, lipgloss.Width(line), 40, "line overflows: %q", line)
	}
	assert.Contains(t, view, "...")
}

func TestTableViewHidesLowPriorityColumns(t *testing.T) {
	table := Table{
		Columns: []resources.Column{
			{Title: "Order", Field: "erp_id", Priority: 1},
			{Title: "Created", Field: "created_at", Kind: resources.DateTime, Priority: 5},
		},
		Rows: []api.Record{
			{"erp_id": "WO-1", "created_at": "2026-08-01T10:00:00Z"},
		},
		Width: 60,
	}

	view := table.View(DefaultStyles())
	assert.Contains(t, view, "WO-1")
	assert.NotContains(t, view, "Created")
	assert.NotContains(t, view, "2026-08-01")
}

func TestSkeletonShape(t *testing.T) {
	cols := []resources.Column{
		{Title: "Order", Field: "erp_id", Priority: 1},
		{Title: "Status", Field: "status", Priority: 1},
	}
	view := Skeleton(DefaultStyles(), cols, 5, 80)

	assert.Contains(t, view, "Order")
	assert.Contains(t, view, "░")

	lines := strings.Split(strings.TrimRight(view, "\n"), "\n")
	// Header, divider, five placeholder rows.
	assert.Len(t, lines, 7)

	assert.Empty(t, Skeleton(DefaultStyles(), cols, 0, 80))
}

func TestShrinkToFitKeepsFloor(t *testing.T) {
	widths := []int{20, 8}
	shrinkToFit(widths, 10)
	assert.GreaterOrEqual(t, widths[0], minColWidth)
	assert.GreaterOrEqual(t, widths[1], minColWidth)

	// A budget wider than the content leaves widths alone.
	widths = []int{10, 10}
	shrinkToFit(widths, 100)
	assert.Equal(t, []int{10, 10}, widths)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "a...", truncate("abcdefgh", 2))
}
