package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/woox/commerce-relay-go/internal/errors"
)

type openAIProvider struct {
	// baseURL overrides the API endpoint in tests; empty means the default.
	baseURL string
}

func newOpenAIProvider(baseURL string) *openAIProvider {
	return &openAIProvider{baseURL: baseURL}
}

func (p *openAIProvider) client(apiKey string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if p.baseURL != "" {
		config.BaseURL = p.baseURL
	}
	return openai.NewClientWithConfig(config)
}

func (p *openAIProvider) complete(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", apperrors.Config("openai: missing api key")
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Turns)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, turn := range req.Turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Text,
		})
	}

	resp, err := p.client(req.APIKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", apperrors.Provider("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.Provider("openai", errEmptyCompletion)
	}

	return resp.Choices[0].Message.Content, nil
}
