package api

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// fakeMessages replays canned responses in order and records every request.
type fakeMessages struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []anthropic.MessageNewParams
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, body)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("no canned response left")
	}
	raw := f.responses[0]
	f.responses = f.responses[1:]

	var msg anthropic.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (f *fakeMessages) calls() []anthropic.MessageNewParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]anthropic.MessageNewParams(nil), f.requests...)
}

func textMessage(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":          "msg_text",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
	})
	return string(b)
}

func toolUseMessage(id, name string, input map[string]any) string {
	b, _ := json.Marshal(map[string]any{
		"id":    "msg_tool",
		"type":  "message",
		"role":  "assistant",
		"model": "claude-test",
		"content": []map[string]any{
			{"type": "text", "text": "using a tool"},
			{"type": "tool_use", "id": id, "name": name, "input": input},
		},
		"stop_reason": "tool_use",
		"usage":       map[string]any{"input_tokens": 20, "output_tokens": 7},
	})
	return string(b)
}

func newFakeClient(responses ...string) (*Client, *fakeMessages) {
	fake := &fakeMessages{responses: responses}
	return NewClientWithAPI(fake, "claude-test"), fake
}
