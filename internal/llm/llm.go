// Package llm issues completion requests to the merchant's configured model
// provider. Dispatch is by model-name prefix: OpenAI-style chat completion
// models go through the official API shape, everything else is treated as a
// Gemini generateContent model.
package llm

import (
	"context"
	"strings"
	"time"
)

const (
	requestTimeout = 15 * time.Second
	temperature    = 0.7
	maxTokens      = 1024
)

// Turn is one conversation exchange in provider-neutral form. Role is
// either "user" or "model".
type Turn struct {
	Role string
	Text string
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Request carries everything needed for one completion call. Credentials
// are per merchant, so the key travels with the request rather than the
// client.
type Request struct {
	Model        string
	APIKey       string
	SystemPrompt string
	Turns        []Turn
}

type provider interface {
	complete(ctx context.Context, req Request) (string, error)
}

// Gateway routes completion requests to the matching provider.
type Gateway struct {
	openai provider
	gemini provider
}

func NewGateway() *Gateway {
	return &Gateway{
		openai: newOpenAIProvider(""),
		gemini: newGeminiProvider(""),
	}
}

// NewGatewayWith is used by tests to inject stub providers.
func NewGatewayWith(openai, gemini provider) *Gateway {
	return &Gateway{openai: openai, gemini: gemini}
}

var openAIPrefixes = []string{"gpt-", "o1-", "o3-"}

func isOpenAIModel(model string) bool {
	for _, prefix := range openAIPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Complete runs one completion with the request timeout applied. Failures
// surface as provider errors; callers substitute a user-visible apology
// rather than crash the webhook handler.
func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if isOpenAIModel(req.Model) {
		return g.openai.complete(ctx, req)
	}
	return g.gemini.complete(ctx, req)
}
