// Package api implements the REST client for the tracker backend: paginated
// list queries, per-resource metadata, and single-record operations. The TUI
// treats this package as its list query provider; retry and supersession
// policy live here, not in the views.
package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// FilterAll is the sentinel a filter control reports when the user picks
// "All". Callers must drop the filter entry instead of sending it; Values
// enforces that as a backstop.
const FilterAll = "__all__"

// ListParams is one page worth of query state for a list endpoint.
type ListParams struct {
	Offset   int
	Limit    int
	Ordering string            // field name, "-"-prefixed for descending; empty = backend default
	Search   string            // free-text search, empty = none
	Filters  map[string]string // flat field -> value constraints
}

// Values encodes the parameters the way the backend expects them: limit and
// offset always present, ordering/search only when set, filters merged flat
// into the query string.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(p.Limit))
	v.Set("offset", strconv.Itoa(p.Offset))
	if p.Ordering != "" {
		v.Set("ordering", p.Ordering)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	for field, value := range p.Filters {
		if value == "" || value == FilterAll {
			continue
		}
		v.Set(field, value)
	}
	return v
}

// Clone returns a deep copy so views can mutate parameters without sharing
// the filter map.
func (p ListParams) Clone() ListParams {
	out := p
	if p.Filters != nil {
		out.Filters = make(map[string]string, len(p.Filters))
		for k, v := range p.Filters {
			out.Filters[k] = v
		}
	}
	return out
}

// Record is one row from a list endpoint. Resources are schemaless on the
// client side; typed accessors cover the handful of shapes columns render.
type Record map[string]any

// String returns the field as a string, or "" when absent or not a string.
func (r Record) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the field as an int. JSON numbers decode as float64, so both
// forms are accepted.
func (r Record) Int(key string) int {
	switch n := r[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}

// Float returns the field as a float64, or 0 when absent.
func (r Record) Float(key string) float64 {
	switch n := r[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

// Bool returns the field as a bool, or false when absent.
func (r Record) Bool(key string) bool {
	b, ok := r[key].(bool)
	return ok && b
}

// Time parses the field as RFC 3339 or a bare date. The zero time means
// absent or unparseable.
func (r Record) Time(key string) time.Time {
	s := r.String(key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ID renders the record's "id" field as a string regardless of whether the
// backend serialized it as a number, UUID, or code.
func (r Record) ID() string {
	switch id := r["id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case json.Number:
		return id.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}

// ListResult is the provider's answer to a ListParams query: the visible
// window plus the total match count.
type ListResult struct {
	Count   int      `json:"count"`
	Results []Record `json:"results"`
}
