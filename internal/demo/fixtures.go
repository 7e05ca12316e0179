// Package demo runs a self-contained tracker backend for local use and
// tests: a chi HTTP server over a SQLite record store, seeded from a YAML
// fixture corpus. It speaks the same list/detail/meta contract the real
// backend does, including offset pagination, free-text search, field
// filters, and ordering.
package demo

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/flow"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

// Meta is the fixture-side description of one collection's query surface.
// It carries both the display lists the client renders and the concrete
// field lists the server queries by, plus the required fields enforced on
// create.
type Meta struct {
	SearchFields          []string                   `yaml:"search_fields"`
	SearchFieldsDisplay   []string                   `yaml:"search_fields_display"`
	OrderingFields        []string                   `yaml:"ordering_fields"`
	OrderingFieldsDisplay []string                   `yaml:"ordering_fields_display"`
	Filters               map[string]api.FieldFilter `yaml:"filters"`
	Required              []string                   `yaml:"required"`
}

// ResourceMeta converts the fixture meta into the wire shape served at
// /api/{resource}/meta/, titleizing display labels that were not authored.
func (m Meta) ResourceMeta() api.ResourceMeta {
	searchDisplay := m.SearchFieldsDisplay
	if len(searchDisplay) == 0 {
		for _, f := range m.SearchFields {
			searchDisplay = append(searchDisplay, api.Titleize(f))
		}
	}
	orderingDisplay := m.OrderingFieldsDisplay
	if len(orderingDisplay) == 0 {
		for _, f := range m.OrderingFields {
			orderingDisplay = append(orderingDisplay, api.Titleize(f))
		}
	}
	filters := make(map[string]api.FieldFilter, len(m.Filters))
	for name, f := range m.Filters {
		if f.Name == "" {
			f.Name = name
		}
		filters[name] = f
	}
	return api.ResourceMeta{
		SearchFieldsDisplay:   searchDisplay,
		OrderingFields:        m.OrderingFields,
		OrderingFieldsDisplay: orderingDisplay,
		Filters:               filters,
	}
}

// Collection is one resource's fixture block: its meta plus seed records.
type Collection struct {
	Meta    Meta         `yaml:"meta"`
	Records []api.Record `yaml:"records"`
}

// Fixtures is a parsed fixture corpus.
type Fixtures struct {
	Resources map[string]Collection `yaml:"resources"`
	Flows     map[string]flow.Graph `yaml:"flows"`
}

// DefaultFixtures parses the embedded fixture corpus.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// LoadFixtures reads and parses a fixture file from disk.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	f, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("fixtures %s: %w", path, err)
	}
	return f, nil
}

// ParseFixtures unmarshals and validates a fixture corpus.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

var validFilterKinds = map[api.FilterKind]bool{
	api.FilterText:       true,
	api.FilterChoice:     true,
	api.FilterBoolean:    true,
	api.FilterForeignKey: true,
}

// Validate checks internal consistency: display lists match their field
// lists, filter kinds are known, choice filters carry choices, and flow
// graphs are well formed.
func (f *Fixtures) Validate() error {
	if len(f.Resources) == 0 {
		return fmt.Errorf("fixtures declare no resources")
	}
	for name, coll := range f.Resources {
		m := coll.Meta
		if n, d := len(m.SearchFields), len(m.SearchFieldsDisplay); d > 0 && n != d {
			return fmt.Errorf("%s: search_fields_display has %d entries for %d search_fields", name, d, n)
		}
		if n, d := len(m.OrderingFields), len(m.OrderingFieldsDisplay); d > 0 && n != d {
			return fmt.Errorf("%s: ordering_fields_display has %d entries for %d ordering_fields", name, d, n)
		}
		for field, filter := range m.Filters {
			if !validFilterKinds[filter.Kind] {
				return fmt.Errorf("%s: filter %q has unknown kind %q", name, field, filter.Kind)
			}
			if (filter.Kind == api.FilterChoice || filter.Kind == api.FilterBoolean) && len(filter.Choices) == 0 {
				return fmt.Errorf("%s: filter %q (%s) has no choices", name, field, filter.Kind)
			}
		}
	}
	for key, g := range f.Flows {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("flow %q: %w", key, err)
		}
	}
	return nil
}
