package api

import "strings"

// SortOption is one entry in a sort selector: a human label plus the
// ordering string the backend understands ("field" or "-field").
type SortOption struct {
	Label string
	Value string
}

// DeriveSortOptions expands resource metadata into a sort option list: one
// ascending and one descending entry per orderable field. The label pair is
// picked by a lightweight field-name heuristic so dates read
// "(Newest)/(Oldest)", quantities "(High-Low)/(Low-High)", and everything
// else "(A-Z)/(Z-A)".
func DeriveSortOptions(meta *ResourceMeta) []SortOption {
	if meta == nil {
		return nil
	}
	opts := make([]SortOption, 0, 2*len(meta.OrderingFields))
	for i, field := range meta.OrderingFields {
		if field == "" {
			continue
		}
		label := meta.OrderingFieldLabel(i)
		desc := SortOption{Value: "-" + field}
		asc := SortOption{Value: field}
		switch classifyOrderingField(field) {
		case fieldDate:
			desc.Label = label + " (Newest)"
			asc.Label = label + " (Oldest)"
			opts = append(opts, desc, asc)
		case fieldCount:
			desc.Label = label + " (High-Low)"
			asc.Label = label + " (Low-High)"
			opts = append(opts, desc, asc)
		default:
			asc.Label = label + " (A-Z)"
			desc.Label = label + " (Z-A)"
			opts = append(opts, asc, desc)
		}
	}
	return opts
}

// MergeSortOptions combines caller-supplied options with metadata-derived
// ones. Explicit options come first and win on duplicate ordering values;
// derived entries fill in behind them.
func MergeSortOptions(explicit, derived []SortOption) []SortOption {
	if len(explicit) == 0 {
		return derived
	}
	merged := make([]SortOption, 0, len(explicit)+len(derived))
	seen := make(map[string]bool, len(explicit))
	for _, opt := range explicit {
		if seen[opt.Value] {
			continue
		}
		seen[opt.Value] = true
		merged = append(merged, opt)
	}
	for _, opt := range derived {
		if seen[opt.Value] {
			continue
		}
		seen[opt.Value] = true
		merged = append(merged, opt)
	}
	return merged
}

type orderingFieldClass int

const (
	fieldText orderingFieldClass = iota
	fieldDate
	fieldCount
)

func classifyOrderingField(field string) orderingFieldClass {
	name := strings.ToLower(field)
	switch {
	case strings.HasSuffix(name, "_at"),
		strings.HasSuffix(name, "_on"),
		strings.Contains(name, "date"),
		strings.Contains(name, "time"),
		strings.Contains(name, "created"),
		strings.Contains(name, "updated"):
		return fieldDate
	case strings.Contains(name, "count"),
		strings.Contains(name, "quantity"),
		strings.Contains(name, "qty"),
		strings.Contains(name, "total"),
		strings.Contains(name, "amount"):
		return fieldCount
	default:
		return fieldText
	}
}
