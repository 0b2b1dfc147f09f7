package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/veridraft/internal/model"
)

func anthropicStub(text string) *anthropicResponse {
	resp := &anthropicResponse{
		ID:    "msg_test",
		Type:  "message",
		Role:  "assistant",
		Model: "claude-3-5-sonnet-20241022",
	}
	resp.Content = []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{
		{Type: "text", Text: text},
	}
	resp.Usage.InputTokens = 15
	resp.Usage.OutputTokens = 25
	return resp
}

func TestAnthropicAgent_Invoke_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Expected anthropic-version header")
		}

		var apiReq anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if apiReq.System != "audit the draft" {
			t.Errorf("Expected system prompt, got %s", apiReq.System)
		}

		_ = json.NewEncoder(w).Encode(anthropicStub(`{"audit_status": "PASS"}`))
	}))
	defer server.Close()

	agent, err := NewAnthropicAgent(model.AgentConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create agent: %v", err)
	}

	resp, err := agent.Invoke(context.Background(), Request{
		Stage:       model.StageAudit,
		System:      "audit the draft",
		Inputs:      map[string]string{"claim_ledger": "{}"},
		OutputField: "audit_report",
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if resp.Field("audit_report") != `{"audit_status": "PASS"}` {
		t.Errorf("Unexpected payload: %s", resp.Field("audit_report"))
	}
	if resp.TokensUsed != 40 {
		t.Errorf("Unexpected token usage: %d", resp.TokensUsed)
	}
}

func TestAnthropicAgent_Invoke_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "rate_limit_error", "message": "Rate limited"}}`))
	}))
	defer server.Close()

	agent, err := NewAnthropicAgent(model.AgentConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create agent: %v", err)
	}

	_, err = agent.Invoke(context.Background(), Request{OutputField: "out"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "rate_limit_error") {
		t.Errorf("Expected rate limit error, got %v", err)
	}
}

func TestAnthropicAgent_Invoke_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicStub("")
		resp.Content = nil
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	agent, err := NewAnthropicAgent(model.AgentConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create agent: %v", err)
	}

	_, err = agent.Invoke(context.Background(), Request{OutputField: "out"})
	if err == nil {
		t.Fatal("Expected error for empty content, got nil")
	}
	if !strings.Contains(err.Error(), "no content") {
		t.Errorf("Expected no content error, got %v", err)
	}
}

func TestNewAnthropicAgent_RequiresKey(t *testing.T) {
	_, err := NewAnthropicAgent(model.AgentConfig{})
	if err == nil {
		t.Fatal("Expected error for missing API key, got nil")
	}
}
