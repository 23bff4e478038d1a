package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_RunWithSystem(t *testing.T) {
	client, fake := newFakeClient(textMessage("answer"))
	runner := NewRunner(client)

	out, err := runner.RunWithSystem(context.Background(), "be brief", "question")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)

	calls := fake.calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].System, 1)
	assert.Equal(t, "be brief", calls[0].System[0].Text)
	assert.Len(t, calls[0].Messages, 1)
}

func TestRunner_RunOmitsEmptySystem(t *testing.T) {
	client, fake := newFakeClient(textMessage("ok"))

	_, err := NewRunner(client).Run(context.Background(), "hello")
	require.NoError(t, err)
	assert.Empty(t, fake.calls()[0].System)
}

func TestRunner_RunJSON(t *testing.T) {
	client, _ := newFakeClient(textMessage("Here you go:\n```json\n{\"steps\": [\"a\", \"b\"]}\n```"))

	var payload planPayload
	require.NoError(t, NewRunner(client).RunJSON(context.Background(), "", "plan", &payload))
	assert.Equal(t, []string{"a", "b"}, payload.Steps)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "plain", input: `{"steps": ["x"]}`, want: []string{"x"}},
		{name: "prose around", input: `Sure! {"steps": ["x", "y"]} Hope that helps.`, want: []string{"x", "y"}},
		{name: "trailing comma", input: `{"steps": ["x", "y",]}`, want: []string{"x", "y"}},
		{name: "unterminated", input: `{"steps": ["x", "y"`, want: []string{"x", "y"}},
		{name: "no json", input: "no structure here", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload planPayload
			err := DecodeJSON(tt.input, &payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, payload.Steps)
		})
	}
}

func TestExtractJSON_Array(t *testing.T) {
	assert.Equal(t, `[1, 2]`, extractJSON("result: [1, 2] done"))
}
