package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSteps(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "   ", want: nil},
		{name: "single sentence", in: "Summarize the report", want: []string{"Summarize the report"}},
		{
			name: "sequencing words",
			in:   "Search for X, then summarize it and then email the team",
			want: []string{"Search for X", "summarize it", "email the team"},
		},
		{
			name: "sentences",
			in:   "Fetch the page. Extract the table; save it to out.csv.",
			want: []string{"Fetch the page", "Extract the table", "save it to out.csv"},
		},
		{
			name: "numbered list",
			in:   "1. Search for X\n2) Summarize X\n\n- Email it",
			want: []string{"Search for X", "Summarize X", "Email it"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSteps(tt.in))
		})
	}
}

func TestStaticPlanner(t *testing.T) {
	ctx := context.Background()

	resp, err := StaticPlanner{Steps: []string{"a", "b"}}.Plan(ctx, PlanRequest{Input: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, PlanSuccess, resp.Status)
	assert.Equal(t, []string{"a", "b"}, resp.Steps)

	resp, err = StaticPlanner{}.Plan(ctx, PlanRequest{Input: "Search for X then summarize"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Search for X", "summarize"}, resp.Steps)

	resp, err = StaticPlanner{}.Plan(ctx, PlanRequest{})
	require.NoError(t, err)
	assert.Equal(t, PlanError, resp.Status)
	assert.NotEmpty(t, resp.Message)
}
