package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/woox/commerce-relay-go/internal/errors"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

var errEmptyCompletion = errors.New("completion returned no candidates")

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float32 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type geminiProvider struct {
	client  *http.Client
	baseURL string
}

func newGeminiProvider(baseURL string) *geminiProvider {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &geminiProvider{client: &http.Client{}, baseURL: baseURL}
}

// complete calls generateContent. The system prompt goes in the dedicated
// system_instruction field; models that reject it get exactly one retry
// with the prompt blended into the first user turn. Gemma models never
// accept the field, so they skip straight to the blended form.
func (p *geminiProvider) complete(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", apperrors.Config("gemini: missing api key")
	}

	if strings.Contains(req.Model, "gemma-3") {
		return p.generate(ctx, req, true)
	}

	text, err := p.generate(ctx, req, false)
	if err != nil && req.SystemPrompt != "" {
		log.Debug().
			Str("model", req.Model).
			Msg("gemini rejected system_instruction, retrying with blended prompt")
		return p.generate(ctx, req, true)
	}
	return text, err
}

func (p *geminiProvider) generate(ctx context.Context, req Request, blendSystem bool) (string, error) {
	body := geminiRequest{Contents: p.contents(req, blendSystem)}
	body.GenerationConfig.Temperature = temperature
	body.GenerationConfig.MaxOutputTokens = maxTokens
	if !blendSystem && req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, req.Model, req.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", apperrors.Provider("gemini", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var parsed geminiResponse
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Str("model", req.Model).
			Str("message", parsed.Error.Message).
			Msg("gemini request failed")
		return "", apperrors.Provider("gemini", fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Error.Message))
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.Provider("gemini", errEmptyCompletion)
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func (p *geminiProvider) contents(req Request, blendSystem bool) []geminiContent {
	contents := make([]geminiContent, 0, len(req.Turns))
	for _, turn := range req.Turns {
		contents = append(contents, geminiContent{
			Role:  turn.Role,
			Parts: []geminiPart{{Text: turn.Text}},
		})
	}

	if blendSystem && req.SystemPrompt != "" && len(contents) > 0 {
		first := &contents[0]
		first.Parts[0].Text = req.SystemPrompt + "\n\n" + first.Parts[0].Text
	}
	return contents
}
