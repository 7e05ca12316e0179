package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/flow"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/resources"
)

func TestDefaultFixturesParse(t *testing.T) {
	f, err := DefaultFixtures()
	require.NoError(t, err)
	require.NotEmpty(t, f.Resources)

	// The corpus must cover every built-in resource, and every column the
	// client renders must appear in at least one seed record.
	for _, res := range resources.Builtin() {
		coll, ok := f.Resources[res.Path]
		require.True(t, ok, "no fixture collection for %s", res.Path)
		require.NotEmpty(t, coll.Records, "%s has no records", res.Path)

		for _, col := range res.Columns {
			found := false
			for _, rec := range coll.Records {
				if _, ok := rec[col.Field]; ok {
					found = true
					break
				}
			}
			assert.True(t, found, "%s: no record carries column field %q", res.Path, col.Field)
		}

		for _, opt := range res.SortOptions {
			field := opt.Value
			if field[0] == '-' {
				field = field[1:]
			}
			assert.Contains(t, coll.Meta.OrderingFields, field,
				"%s: preset sort %q not orderable server-side", res.Path, opt.Value)
		}
	}
}

func TestDefaultFixturesMetaShape(t *testing.T) {
	f, err := DefaultFixtures()
	require.NoError(t, err)

	coll := f.Resources["work-orders"]
	meta := coll.Meta.ResourceMeta()
	assert.Equal(t, []string{"ERP ID", "Part Number", "Customer"}, meta.SearchFieldsDisplay)
	assert.Equal(t, []string{"created_at", "due_date", "quantity"}, meta.OrderingFields)

	interactive := meta.InteractiveFilters()
	require.Len(t, interactive, 2, "text filters must not surface as controls")
	assert.Equal(t, "is_rush", interactive[0].Name)
	assert.Equal(t, "status", interactive[1].Name)
}

func TestMetaDisplayFallback(t *testing.T) {
	m := Meta{
		SearchFields:   []string{"erp_id", "customer"},
		OrderingFields: []string{"due_date"},
	}
	got := m.ResourceMeta()
	assert.Equal(t, []string{"Erp Id", "Customer"}, got.SearchFieldsDisplay)
	assert.Equal(t, []string{"Due Date"}, got.OrderingFieldsDisplay)
}

func TestParseFixturesRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"no resources",
			`flows: {}`,
			"no resources",
		},
		{
			"unknown filter kind",
			`resources:
  parts:
    meta:
      filters:
        status: {label: Status, kind: dropdown}`,
			"unknown kind",
		},
		{
			"choice without choices",
			`resources:
  parts:
    meta:
      filters:
        status: {label: Status, kind: choice}`,
			"no choices",
		},
		{
			"display length mismatch",
			`resources:
  parts:
    meta:
      search_fields: [a, b]
      search_fields_display: [Only One]`,
			"search_fields_display",
		},
		{
			"dangling flow step",
			`resources:
  parts:
    meta: {}
flows:
  demo:
    name: Line
    steps:
      - {id: a, next: [missing]}`,
			"unknown step",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFlowFixture(t *testing.T) {
	f, err := DefaultFixtures()
	require.NoError(t, err)

	g, ok := f.Flows["demo"]
	require.True(t, ok)
	require.NoError(t, g.Validate())

	bottleneck, ok := g.Bottleneck()
	require.True(t, ok)
	assert.Equal(t, "cnc-mill", bottleneck.ID)
	assert.Equal(t, flow.High, bottleneck.Band())
}
