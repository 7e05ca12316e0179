package api

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestListParamsValues(t *testing.T) {
	tests := []struct {
		name   string
		params ListParams
		want   url.Values
	}{
		{
			name:   "minimal",
			params: ListParams{Offset: 0, Limit: 25},
			want:   url.Values{"limit": {"25"}, "offset": {"0"}},
		},
		{
			name: "full set",
			params: ListParams{
				Offset:   50,
				Limit:    25,
				Ordering: "-created_at",
				Search:   "injector",
				Filters:  map[string]string{"status": "PASS"},
			},
			want: url.Values{
				"limit":    {"25"},
				"offset":   {"50"},
				"ordering": {"-created_at"},
				"search":   {"injector"},
				"status":   {"PASS"},
			},
		},
		{
			name: "all sentinel and empty values are dropped",
			params: ListParams{
				Limit:   10,
				Filters: map[string]string{"status": FilterAll, "severity": "", "line": "3"},
			},
			want: url.Values{"limit": {"10"}, "offset": {"0"}, "line": {"3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.params.Values()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Values() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListParamsValuesIdempotent(t *testing.T) {
	p := ListParams{Offset: 25, Limit: 25, Search: "seal", Filters: map[string]string{"status": "OPEN"}}
	first := p.Values().Encode()
	second := p.Values().Encode()
	assert.Equal(t, first, second, "encoding must not accumulate state across calls")
}

func TestListParamsClone(t *testing.T) {
	p := ListParams{Limit: 25, Filters: map[string]string{"status": "OPEN"}}
	c := p.Clone()
	c.Filters["status"] = "CLOSED"
	c.Offset = 75

	assert.Equal(t, "OPEN", p.Filters["status"], "clone must not share the filter map")
	assert.Equal(t, 0, p.Offset)
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{
		"id":         float64(42),
		"name":       "Plunger Assembly",
		"quantity":   float64(12),
		"unit_cost":  3.75,
		"is_active":  true,
		"created_at": "2025-11-04T09:30:00Z",
		"due_date":   "2025-12-01",
	}

	assert.Equal(t, "42", rec.ID())
	assert.Equal(t, "Plunger Assembly", rec.String("name"))
	assert.Equal(t, 12, rec.Int("quantity"))
	assert.InDelta(t, 3.75, rec.Float("unit_cost"), 1e-9)
	assert.True(t, rec.Bool("is_active"))
	assert.Equal(t, time.Date(2025, 11, 4, 9, 30, 0, 0, time.UTC), rec.Time("created_at"))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), rec.Time("due_date"))

	// Absent or mistyped fields degrade to zero values rather than panic.
	assert.Equal(t, "", rec.String("missing"))
	assert.Equal(t, 0, rec.Int("name"))
	assert.False(t, rec.Bool("name"))
	assert.True(t, rec.Time("missing").IsZero())
}

func TestRecordIDShapes(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"numeric", Record{"id": float64(7)}, "7"},
		{"uuid", Record{"id": "0d1f2c1e-9a7b-4c1d-8a74-1d2c3b4a5e6f"}, "0d1f2c1e-9a7b-4c1d-8a74-1d2c3b4a5e6f"},
		{"missing", Record{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.ID())
		})
	}
}
