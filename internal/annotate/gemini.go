package annotate

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Generator produces annotation text for a prompt. The Gemini client is
// the production implementation; tests substitute their own.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	http   *resty.Client
	model  string
	apiKey string
}

// NewGeminiClient creates a generation client for the given model and key.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		http:   resty.New().SetBaseURL(defaultGeminiBaseURL),
		model:  model,
		apiKey: apiKey,
	}
}

// SetBaseURL overrides the API host, used in tests.
func (g *GeminiClient) SetBaseURL(baseURL string) {
	g.http.SetBaseURL(baseURL)
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

// generateResponse covers the response shapes the API is known to return:
// a direct text field, a nested response.text, or the candidate/parts
// form. It is decoded once here so callers never poke at raw JSON.
type generateResponse struct {
	Text     string `json:"text"`
	Response *struct {
		Text string `json:"text"`
	} `json:"response"`
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// text extracts the generated text, checking the known shapes in priority
// order and defaulting to the empty string.
func (r *generateResponse) text() string {
	if r.Text != "" {
		return r.Text
	}
	if r.Response != nil && r.Response.Text != "" {
		return r.Response.Text
	}
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}

// Generate submits the prompt and returns the extracted text.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var out generateResponse

	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(generateRequest{
			Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
		}).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	if resp.IsError() {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("generation API error: %s", out.Error.Message)
		}
		return "", fmt.Errorf("generation API returned status %s", resp.Status())
	}

	return out.text(), nil
}
