// Package resources declares the tracker collections the client knows how
// to browse. Each view is configured by an explicit Resource record — name,
// endpoint path, columns, optional sort presets — passed to the list
// controller by its caller; there is no hidden name-to-endpoint table
// consulted at render time.
package resources

import (
	"fmt"
	"strconv"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
)

// ColumnKind selects how a record field is formatted for display.
type ColumnKind int

const (
	Text ColumnKind = iota
	Number
	Decimal
	Date
	DateTime
	Bool
)

// Column maps one record field to a table column. Priority drives
// responsive visibility: 1 (or 0) is always shown, higher values drop out
// first on narrow terminals.
type Column struct {
	Title    string
	Field    string
	Kind     ColumnKind
	Priority int
}

// Render formats the field of rec for a table cell.
func (c Column) Render(rec api.Record) string {
	switch c.Kind {
	case Number:
		return strconv.Itoa(rec.Int(c.Field))
	case Decimal:
		return fmt.Sprintf("%.2f", rec.Float(c.Field))
	case Date:
		t := rec.Time(c.Field)
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	case DateTime:
		t := rec.Time(c.Field)
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	case Bool:
		if rec.Bool(c.Field) {
			return "yes"
		}
		return "no"
	default:
		return rec.String(c.Field)
	}
}

// Resource binds a browsable collection: its registry name, endpoint path
// segment, display title, column layout, and optional sort presets that
// take precedence over metadata-derived options.
type Resource struct {
	Name        string
	Path        string
	Title       string
	Columns     []Column
	SortOptions []api.SortOption
	// SearchHint overrides the default search placeholder until the
	// metadata fetch supplies the field list.
	SearchHint string
	// CanDelete enables the delete row action in interactive views.
	CanDelete bool
}

// Builtin returns the standard tracker collections in menu order.
func Builtin() []Resource {
	return []Resource{
		{
			Name:  "work-orders",
			Path:  "work-orders",
			Title: "Work Orders",
			Columns: []Column{
				{Title: "ERP ID", Field: "erp_id", Priority: 1},
				{Title: "Part", Field: "part_number", Priority: 1},
				{Title: "Status", Field: "status", Priority: 1},
				{Title: "Qty", Field: "quantity", Kind: Number, Priority: 2},
				{Title: "Due", Field: "due_date", Kind: Date, Priority: 2},
				{Title: "Customer", Field: "customer", Priority: 3},
				{Title: "Rush", Field: "is_rush", Kind: Bool, Priority: 4},
				{Title: "Created", Field: "created_at", Kind: DateTime, Priority: 5},
			},
			SortOptions: []api.SortOption{
				{Label: "Due soonest", Value: "due_date"},
				{Label: "Newest first", Value: "-created_at"},
			},
			CanDelete: true,
		},
		{
			Name:  "parts",
			Path:  "parts",
			Title: "Parts",
			Columns: []Column{
				{Title: "Part No", Field: "part_number", Priority: 1},
				{Title: "Name", Field: "name", Priority: 1},
				{Title: "Rev", Field: "revision", Priority: 2},
				{Title: "Status", Field: "status", Priority: 2},
				{Title: "Material", Field: "material", Priority: 3},
				{Title: "On Hand", Field: "on_hand", Kind: Number, Priority: 3},
				{Title: "Unit Cost", Field: "unit_cost", Kind: Decimal, Priority: 4},
				{Title: "Updated", Field: "updated_at", Kind: DateTime, Priority: 5},
			},
			CanDelete: true,
		},
		{
			Name:  "quality-reports",
			Path:  "quality-reports",
			Title: "Quality Reports",
			Columns: []Column{
				{Title: "Report #", Field: "report_number", Priority: 1},
				{Title: "Part", Field: "part_number", Priority: 1},
				{Title: "Result", Field: "result", Priority: 1},
				{Title: "Reported", Field: "created_at", Kind: Date, Priority: 2},
				{Title: "Severity", Field: "severity", Priority: 2},
				{Title: "Inspector", Field: "inspector", Priority: 3},
				{Title: "Defects", Field: "defect_count", Kind: Number, Priority: 3},
				{Title: "Work Order", Field: "erp_id", Priority: 4},
			},
			SearchHint: "Search report #, part number, inspector...",
		},
		{
			Name:  "capas",
			Path:  "capas",
			Title: "CAPAs",
			Columns: []Column{
				{Title: "CAPA #", Field: "capa_number", Priority: 1},
				{Title: "Title", Field: "title", Priority: 1},
				{Title: "Status", Field: "status", Priority: 1},
				{Title: "Owner", Field: "owner", Priority: 2},
				{Title: "Opened", Field: "opened_on", Kind: Date, Priority: 2},
				{Title: "Due", Field: "due_date", Kind: Date, Priority: 3},
				{Title: "Source", Field: "source", Priority: 4},
				{Title: "Closed", Field: "closed_on", Kind: Date, Priority: 5},
			},
		},
		{
			Name:  "calibrations",
			Path:  "calibrations",
			Title: "Calibrations",
			Columns: []Column{
				{Title: "Instrument", Field: "instrument", Priority: 1},
				{Title: "Serial", Field: "serial_number", Priority: 1},
				{Title: "Status", Field: "status", Priority: 1},
				{Title: "Last Cal", Field: "last_calibrated_on", Kind: Date, Priority: 2},
				{Title: "Next Due", Field: "next_due_on", Kind: Date, Priority: 2},
				{Title: "Technician", Field: "technician", Priority: 3},
				{Title: "Location", Field: "location", Priority: 4},
				{Title: "Interval", Field: "interval_days", Kind: Number, Priority: 5},
			},
			SearchHint: "Search instrument, serial number...",
		},
		{
			Name:  "training-records",
			Path:  "training-records",
			Title: "Training Records",
			Columns: []Column{
				{Title: "Employee", Field: "employee", Priority: 1},
				{Title: "Course", Field: "course", Priority: 1},
				{Title: "Status", Field: "status", Priority: 1},
				{Title: "Completed", Field: "completed_on", Kind: Date, Priority: 2},
				{Title: "Expires", Field: "expires_on", Kind: Date, Priority: 2},
				{Title: "Trainer", Field: "trainer", Priority: 3},
				{Title: "Hours", Field: "total_hours", Kind: Decimal, Priority: 4},
			},
		},
		{
			Name:  "approvals",
			Path:  "approvals",
			Title: "Approvals",
			Columns: []Column{
				{Title: "Request #", Field: "request_number", Priority: 1},
				{Title: "Subject", Field: "subject", Priority: 1},
				{Title: "State", Field: "state", Priority: 1},
				{Title: "Requested By", Field: "requested_by", Priority: 2},
				{Title: "Requested", Field: "created_at", Kind: Date, Priority: 2},
				{Title: "Approver", Field: "approver", Priority: 3},
				{Title: "Type", Field: "approval_type", Priority: 3},
				{Title: "Decided", Field: "decided_at", Kind: DateTime, Priority: 4},
			},
		},
	}
}

// Lookup finds a built-in resource by its registry name.
func Lookup(name string) (Resource, bool) {
	for _, r := range Builtin() {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// Names lists the registry names in menu order.
func Names() []string {
	builtin := Builtin()
	names := make([]string, len(builtin))
	for i, r := range builtin {
		names[i] = r.Name
	}
	return names
}
