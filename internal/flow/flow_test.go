package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepSeverity(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want float64
	}{
		{"empty queue", Step{Queue: 0, AvgMinutes: 12, Capacity: 2}, 0},
		{"negative queue", Step{Queue: -3, AvgMinutes: 12, Capacity: 2}, 0},
		{"zero avg", Step{Queue: 10, AvgMinutes: 0, Capacity: 2}, 0},
		{"typical", Step{Queue: 8, AvgMinutes: 10, Capacity: 2}, 40},
		{"fractional", Step{Queue: 3, AvgMinutes: 7.5, Capacity: 4}, 5.625},
		{"clamped high", Step{Queue: 500, AvgMinutes: 30, Capacity: 1}, 100},
		{"stalled station", Step{Queue: 1, AvgMinutes: 5, Capacity: 0}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.step.Severity(), 1e-9)
		})
	}
}

func TestStepBand(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want Band
	}{
		{"idle is low", Step{}, Low},
		{"just under watch", Step{Queue: 34, AvgMinutes: 1, Capacity: 1}, Low},
		{"watch floor", Step{Queue: 35, AvgMinutes: 1, Capacity: 1}, Watch},
		{"just under high", Step{Queue: 69, AvgMinutes: 1, Capacity: 1}, Watch},
		{"high floor", Step{Queue: 70, AvgMinutes: 1, Capacity: 1}, High},
		{"clamped is high", Step{Queue: 1000, AvgMinutes: 60, Capacity: 1}, High},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.Band())
		})
	}
}

func TestBandString(t *testing.T) {
	assert.Equal(t, "Low", Low.String())
	assert.Equal(t, "Watch", Watch.String())
	assert.Equal(t, "High", High.String())
}

func TestGraphBottleneck(t *testing.T) {
	g := Graph{
		Name: "cnc-line",
		Steps: []Step{
			{ID: "saw", Name: "Saw", Queue: 2, AvgMinutes: 5, Capacity: 2},
			{ID: "mill", Name: "Mill", Queue: 12, AvgMinutes: 18, Capacity: 3},
			{ID: "grind", Name: "Grind", Queue: 6, AvgMinutes: 9, Capacity: 1},
		},
	}
	got, ok := g.Bottleneck()
	require.True(t, ok)
	assert.Equal(t, "mill", got.ID)

	_, ok = Graph{}.Bottleneck()
	assert.False(t, ok)
}

func TestGraphBottleneckTieKeepsFirst(t *testing.T) {
	g := Graph{Steps: []Step{
		{ID: "a", Queue: 4, AvgMinutes: 10, Capacity: 2},
		{ID: "b", Queue: 4, AvgMinutes: 10, Capacity: 2},
	}}
	got, ok := g.Bottleneck()
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
}

func TestGraphValidate(t *testing.T) {
	valid := Graph{Name: "line", Steps: []Step{
		{ID: "a", Next: []string{"b"}},
		{ID: "b"},
	}}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		graph   Graph
		wantErr string
	}{
		{
			"missing id",
			Graph{Name: "line", Steps: []Step{{Name: "Saw"}}},
			"has no id",
		},
		{
			"duplicate id",
			Graph{Name: "line", Steps: []Step{{ID: "a"}, {ID: "a"}}},
			"duplicate step id",
		},
		{
			"dangling next",
			Graph{Name: "line", Steps: []Step{{ID: "a", Next: []string{"zz"}}}},
			"unknown step",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.graph.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
