package agent

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ppiankov/veridraft/internal/model"
	"github.com/ppiankov/veridraft/internal/util"
)

// OpenAIAgent implements the Agent interface over OpenAI's Chat Completions API
type OpenAIAgent struct {
	client *openai.Client
	config model.AgentConfig
}

// NewOpenAIAgent creates a new OpenAI-backed agent
func NewOpenAIAgent(config model.AgentConfig) (*OpenAIAgent, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIAgent{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (a *OpenAIAgent) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (a *OpenAIAgent) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := a.client.ListModels(ctx)
	if err != nil {
		// Log the actual error for debugging (this helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Invoke performs one chat completion and returns the payload under the
// request's output field.
func (a *OpenAIAgent) Invoke(ctx context.Context, req Request) (Response, error) {
	model := a.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 4000
	}

	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: BuildPrompt(req),
	})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(a.config.Temperature),
	})
	if err != nil {
		return Response{}, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("no choices in OpenAI response")
	}

	return textResponse(req, resp.Choices[0].Message.Content, resp.Model, resp.Usage.TotalTokens), nil
}
