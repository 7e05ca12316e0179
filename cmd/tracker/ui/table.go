package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

// Column visibility breakpoints. Narrow terminals keep only priority 1
// columns; each step up reveals the next priority band.
const (
	widthForPriority2 = 80
	widthForPriority3 = 100
	widthForPriority4 = 120
	widthForPriority5 = 140

	minColWidth = 6
)

// VisibleColumns filters columns by priority for the given terminal
// width. Priorities below 1 are treated as 1 and always shown.
func VisibleColumns(columns []resources.Column, width int) []resources.Column {
	limit := visiblePriority(width)
	out := make([]resources.Column, 0, len(columns))
	for _, col := range columns {
		p := col.Priority
		if p < 1 {
			p = 1
		}
		if p <= limit {
			out = append(out, col)
		}
	}
	return out
}

func visiblePriority(width int) int {
	switch {
	case width >= widthForPriority5:
		return int(^uint(0) >> 1)
	case width >= widthForPriority4:
		return 4
	case width >= widthForPriority3:
		return 3
	case width >= widthForPriority2:
		return 2
	default:
		return 1
	}
}

// Table renders one page of records as an aligned grid with a
// highlighted cursor row.
type Table struct {
	Columns []resources.Column
	Rows    []api.Record
	Cursor  int
	Width   int
	// Actions, when set, appends a trailing per-row cell the way a web
	// table appends a row-actions column. Never hidden by priority.
	Actions func(api.Record) string
}

// View renders the table using the provided styles.
func (t Table) View(styles Styles) string {
	cols := VisibleColumns(t.Columns, t.Width)
	if len(cols) == 0 {
		return ""
	}

	titles := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		titles = append(titles, col.Title)
	}
	if t.Actions != nil {
		titles = append(titles, "Actions")
	}

	cells := make([][]string, len(t.Rows))
	for i, rec := range t.Rows {
		row := make([]string, 0, len(titles))
		for _, col := range cols {
			row = append(row, col.Render(rec))
		}
		if t.Actions != nil {
			row = append(row, t.Actions(rec))
		}
		cells[i] = row
	}

	// Calculate column widths
	colWidths := make([]int, len(titles))
	for j, title := range titles {
		colWidths[j] = lipgloss.Width(title)
	}
	for _, row := range cells {
		for j, cell := range row {
			if w := lipgloss.Width(cell); w > colWidths[j] {
				colWidths[j] = w
			}
		}
	}

	// Add padding to widths because lipgloss Width includes padding
	for j := range colWidths {
		colWidths[j] += 2
	}
	shrinkToFit(colWidths, t.Width-(len(titles)-1))

	headerStyle := styles.TableHeader
	rowStyle := styles.TableRow
	selStyle := styles.TableRowSel
	sepStyle := styles.Muted

	var sb strings.Builder

	// Render Header
	for j, title := range titles {
		sb.WriteString(headerStyle.Width(colWidths[j]).Render(truncate(title, colWidths[j]-2)))
		if j < len(titles)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")

	// Render Divider
	totalWidth := len(titles) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(sepStyle.Render(strings.Repeat("-", totalWidth)))
	sb.WriteString("\n")

	// Render Rows
	for i, row := range cells {
		cellStyle := rowStyle
		if i == t.Cursor {
			cellStyle = selStyle
		}
		for j, cell := range row {
			sb.WriteString(cellStyle.Width(colWidths[j]).Render(truncate(cell, colWidths[j]-2)))
			if j < len(row)-1 {
				sb.WriteString(sepStyle.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Skeleton renders placeholder rows shown before the first page of data
// arrives, sized from the column titles so the layout does not jump.
func Skeleton(styles Styles, columns []resources.Column, rows, width int) string {
	cols := VisibleColumns(columns, width)
	if len(cols) == 0 || rows <= 0 {
		return ""
	}

	colWidths := make([]int, len(cols))
	for j, col := range cols {
		w := lipgloss.Width(col.Title)
		if w < 8 {
			w = 8
		}
		colWidths[j] = w + 2
	}
	shrinkToFit(colWidths, width-(len(cols)-1))

	headerStyle := styles.TableHeader
	sepStyle := styles.Muted

	var sb strings.Builder
	for j, col := range cols {
		sb.WriteString(headerStyle.Width(colWidths[j]).Render(truncate(col.Title, colWidths[j]-2)))
		if j < len(cols)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")

	totalWidth := len(cols) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(sepStyle.Render(strings.Repeat("-", totalWidth)))
	sb.WriteString("\n")

	for i := 0; i < rows; i++ {
		for j := range cols {
			bar := strings.Repeat("░", colWidths[j]-2)
			sb.WriteString(styles.Skeleton.Copy().Padding(0, 1).Render(bar))
			if j < len(cols)-1 {
				sb.WriteString(sepStyle.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// shrinkToFit trims the widest columns until the row fits the budget.
// Columns never drop below minColWidth; once everything is at the floor
// the table is allowed to overflow.
func shrinkToFit(widths []int, budget int) {
	if budget <= 0 {
		return
	}
	total := 0
	for _, w := range widths {
		total += w
	}
	for total > budget {
		widest := 0
		for j, w := range widths {
			if w > widths[widest] {
				widest = j
			}
		}
		if widths[widest] <= minColWidth {
			return
		}
		widths[widest]--
		total--
	}
}

func truncate(s string, l int) string {
	if l < 4 {
		l = 4
	}
	if len(s) > l {
		return s[:l-3] + "..."
	}
	return s
}
