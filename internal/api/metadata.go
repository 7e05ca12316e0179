package api

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FilterKind classifies a backend field descriptor.
type FilterKind string

const (
	FilterText       FilterKind = "text"
	FilterChoice     FilterKind = "choice"
	FilterBoolean    FilterKind = "boolean"
	FilterForeignKey FilterKind = "foreign_key"
)

// Choice is one selectable value of a choice/boolean filter.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldFilter describes one filterable field as reported by the metadata
// endpoint.
type FieldFilter struct {
	Name    string     `json:"name"`
	Label   string     `json:"label"`
	Kind    FilterKind `json:"kind"`
	Choices []Choice   `json:"choices,omitempty"`
}

// Interactive reports whether the field gets a filter control: only choice
// and boolean kinds with at least one choice qualify.
func (f FieldFilter) Interactive() bool {
	return (f.Kind == FilterChoice || f.Kind == FilterBoolean) && len(f.Choices) > 0
}

// ResourceMeta is the per-resource descriptor served by
// GET /api/{resource}/meta/. Missing meta degrades the UI to defaults, so
// every field here is optional.
type ResourceMeta struct {
	SearchFieldsDisplay   []string               `json:"search_fields_display"`
	OrderingFields        []string               `json:"ordering_fields"`
	OrderingFieldsDisplay []string               `json:"ordering_fields_display"`
	Filters               map[string]FieldFilter `json:"filters"`
}

// InteractiveFilters returns the surfaceable filters in stable label order.
// Map iteration order would shuffle the filter bar between renders.
func (m *ResourceMeta) InteractiveFilters() []FieldFilter {
	if m == nil {
		return nil
	}
	out := make([]FieldFilter, 0, len(m.Filters))
	for name, f := range m.Filters {
		if f.Name == "" {
			f.Name = name
		}
		if f.Interactive() {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// OrderingFieldLabel returns the display label for ordering field i, falling
// back to a titleized field name when the display list is short or empty.
func (m *ResourceMeta) OrderingFieldLabel(i int) string {
	if m == nil || i < 0 || i >= len(m.OrderingFields) {
		return ""
	}
	if i < len(m.OrderingFieldsDisplay) && m.OrderingFieldsDisplay[i] != "" {
		return m.OrderingFieldsDisplay[i]
	}
	return Titleize(m.OrderingFields[i])
}

// Titleize turns a snake_case field name into a display label:
// "erp_id" -> "Erp Id".
func Titleize(field string) string {
	words := strings.FieldsFunc(field, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// metaCache memoizes resource metadata for the lifetime of the client.
// Metadata is treated as immutable for the session; only successful fetches
// are cached so a flaky backend can still recover on the next view open.
type metaCache struct {
	mu    sync.RWMutex
	byRes map[string]*ResourceMeta
	group singleflight.Group
}

func (mc *metaCache) get(resource string) *ResourceMeta {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.byRes[resource]
}

func (mc *metaCache) put(resource string, meta *ResourceMeta) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.byRes == nil {
		mc.byRes = make(map[string]*ResourceMeta)
	}
	mc.byRes[resource] = meta
}

// Metadata fetches the field descriptors for a resource, deduplicating
// concurrent fetches and caching the result for the session.
func (c *Client) Metadata(ctx context.Context, resourcePath string) (*ResourceMeta, error) {
	if meta := c.meta.get(resourcePath); meta != nil {
		return meta, nil
	}
	v, err, _ := c.meta.group.Do(resourcePath, func() (any, error) {
		var meta ResourceMeta
		if err := c.getJSON(ctx, "/api/"+resourcePath+"/meta/", nil, &meta); err != nil {
			return nil, err
		}
		return &meta, nil
	})
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", resourcePath, err)
	}
	meta := v.(*ResourceMeta)
	c.meta.put(resourcePath, meta)
	return meta, nil
}
