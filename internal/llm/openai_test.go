package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"appforge/internal/tools"
)

func newTestClient(url string) *OpenAIClient {
	return NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "gpt-5",
		Timeout: 5 * time.Second,
	})
}

func TestOpenAICompleteParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}

		var body map[string]any
		json.NewDecoder(req.Body).Decode(&body)
		if body["model"] != "gpt-5" {
			t.Errorf("unexpected model: %v", body["model"])
		}
		if _, ok := body["tools"]; !ok {
			t.Error("tools not sent")
		}

		w.Write([]byte(`{
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [
						{"id": "call_1", "type": "function",
						 "function": {"name": "write_file", "arguments": "{\"path\":\"a.js\",\"content\":\"x\"}"}},
						{"id": "call_2", "type": "function",
						 "function": {"name": "read_file", "arguments": "{\"path\":\"b.js\"}"}}
					]
				},
				"finish_reason": "tool_calls"
			}],
			"usage": {"total_tokens": 100}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	defs := []ToolDef{{Name: "write_file", Parameters: tools.Schema{
		Required:   []string{"path"},
		Properties: map[string]tools.Property{"path": {Type: "string"}},
	}}}

	completion, err := c.Complete(context.Background(), []Message{UserMessage("edit the file")}, defs)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(completion.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(completion.ToolCalls))
	}

	first := completion.ToolCalls[0]
	if first.ID != "call_1" || first.Name != "write_file" || first.Index != 0 {
		t.Errorf("unexpected first call: %+v", first)
	}
	if first.Arguments["path"] != "a.js" {
		t.Errorf("arguments not decoded: %v", first.Arguments)
	}
	if completion.ToolCalls[1].Index != 1 {
		t.Errorf("indices must be sequential: %+v", completion.ToolCalls[1])
	}
}

func TestOpenAICompleteTextOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "All done."}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	completion, err := newTestClient(srv.URL).Complete(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if completion.Content != "All done." || len(completion.ToolCalls) != 0 {
		t.Errorf("unexpected completion: %+v", completion)
	}
}

func TestOpenAICompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "boom"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), []Message{UserMessage("hi")}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenAIRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	defer srv.Close()

	completion, err := newTestClient(srv.URL).Complete(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if completion.Content != "ok" || calls.Load() != 2 {
		t.Errorf("expected success on second call, got %d calls", calls.Load())
	}
}

func TestOpenAIMissingAPIKey(t *testing.T) {
	c := NewOpenAIClient(OpenAIConfig{Model: "gpt-5"})
	if _, err := c.Complete(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestToChatMessagesRoundTrip(t *testing.T) {
	messages := []Message{
		SystemMessage("you are a builder"),
		UserMessage("add a button"),
		{
			Role: RoleAssistant,
			ToolCalls: []tools.Call{
				{ID: "call_1", Name: "write_file", Arguments: map[string]any{"path": "a.js"}},
			},
		},
		ToolResultMessage(tools.Call{ID: "call_1", Name: "write_file"}, `{"success":true}`),
	}

	out := toChatMessages(messages)
	if len(out) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(out))
	}
	if out[2].ToolCalls[0].Function.Name != "write_file" {
		t.Errorf("assistant tool call lost: %+v", out[2])
	}
	if out[3].Role != "tool" || out[3].ToolCallID != "call_1" || out[3].Name != "write_file" {
		t.Errorf("tool result message malformed: %+v", out[3])
	}
}
