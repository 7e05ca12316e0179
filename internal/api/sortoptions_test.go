package api

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDeriveSortOptions(t *testing.T) {
	meta := &ResourceMeta{
		OrderingFields:        []string{"created_at", "quantity", "name"},
		OrderingFieldsDisplay: []string{"Created", "Quantity", "Name"},
	}

	want := []SortOption{
		{Label: "Created (Newest)", Value: "-created_at"},
		{Label: "Created (Oldest)", Value: "created_at"},
		{Label: "Quantity (High-Low)", Value: "-quantity"},
		{Label: "Quantity (Low-High)", Value: "quantity"},
		{Label: "Name (A-Z)", Value: "name"},
		{Label: "Name (Z-A)", Value: "-name"},
	}
	got := DeriveSortOptions(meta)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DeriveSortOptions mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveSortOptionsNilAndEmpty(t *testing.T) {
	assert.Nil(t, DeriveSortOptions(nil))
	assert.Empty(t, DeriveSortOptions(&ResourceMeta{}))
}

func TestClassifyOrderingField(t *testing.T) {
	tests := []struct {
		field string
		want  orderingFieldClass
	}{
		{"created_at", fieldDate},
		{"completed_on", fieldDate},
		{"due_date", fieldDate},
		{"updated", fieldDate},
		{"quantity", fieldCount},
		{"defect_count", fieldCount},
		{"total_hours", fieldCount},
		{"qty_shipped", fieldCount},
		{"name", fieldText},
		{"erp_id", fieldText},
		{"serial_number", fieldText},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyOrderingField(tt.field))
		})
	}
}

func TestMergeSortOptionsPrecedence(t *testing.T) {
	explicit := []SortOption{
		{Label: "Due soonest", Value: "due_date"},
		{Label: "Newest first", Value: "-created_at"},
	}
	derived := []SortOption{
		{Label: "Due Date (Newest)", Value: "-due_date"},
		{Label: "Due Date (Oldest)", Value: "due_date"}, // duplicate value, must lose
		{Label: "Created (Newest)", Value: "-created_at"},
		{Label: "Created (Oldest)", Value: "created_at"},
	}

	got := MergeSortOptions(explicit, derived)

	want := []SortOption{
		{Label: "Due soonest", Value: "due_date"},
		{Label: "Newest first", Value: "-created_at"},
		{Label: "Due Date (Newest)", Value: "-due_date"},
		{Label: "Created (Oldest)", Value: "created_at"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeSortOptions mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeSortOptionsEdges(t *testing.T) {
	derived := []SortOption{{Label: "Name (A-Z)", Value: "name"}}

	assert.Equal(t, derived, MergeSortOptions(nil, derived), "no explicit config falls through to derived")
	assert.Empty(t, MergeSortOptions(nil, nil))

	explicit := []SortOption{{Label: "Name", Value: "name"}, {Label: "Name again", Value: "name"}}
	assert.Len(t, MergeSortOptions(explicit, nil), 1, "explicit list self-deduplicates")
}
