package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"studybuddy/internal/config"
	"studybuddy/internal/domain"
	"studybuddy/internal/extract"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel   = "gemini-1.5-pro"
)

// Client implements port.TextGenerator using Google's Gemini generateContent API.
type Client struct {
	apiKey          string
	model           string
	endpoint        string
	temperature     float64
	maxOutputTokens int
	client          *http.Client
}

// NewClient creates a Gemini client from config.
func NewClient(cfg *config.GeminiConfig) *Client {
	return newClient(cfg, "")
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.GeminiConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.GeminiConfig, endpoint string) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", baseURL, model)
	}
	return &Client{
		apiKey:          cfg.APIKey,
		model:           model,
		endpoint:        endpoint,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		client:          &http.Client{Timeout: timeout},
	}
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Generate sends one prompt and returns the first candidate's text with the raw response.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini: api key not set: %w", domain.ErrConfiguration)
	}

	bodyBytes, err := json.Marshal(c.buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: calling gemini API: %w", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", domain.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: gemini API error (status %d): %s",
			domain.ErrUpstream, resp.StatusCode, extract.Truncate(string(respBody), 500))
	}

	text, err := firstCandidateText(respBody)
	if err != nil {
		return nil, err
	}

	return &domain.GenerationResult{
		Raw:   json.RawMessage(respBody),
		Text:  text,
		Model: c.model,
	}, nil
}

func (c *Client) buildRequestBody(req domain.GenerationRequest) map[string]interface{} {
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	candidateCount := req.CandidateCount
	if candidateCount <= 0 {
		candidateCount = 1
	}
	genConfig := map[string]interface{}{
		"temperature":    temperature,
		"candidateCount": candidateCount,
	}
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = c.maxOutputTokens
	}
	if maxTokens > 0 {
		genConfig["maxOutputTokens"] = maxTokens
	}

	return map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": req.Prompt},
				},
			},
		},
		"generationConfig": genConfig,
	}
}

// generateResponse models the parts of the Gemini response we read. Candidates
// are kept raw because their shape differs across API versions.
type generateResponse struct {
	Candidates     []json.RawMessage `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type candidate struct {
	FinishReason string `json:"finishReason"`
	Content      *struct {
		Parts []struct {
			Text *string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	Output []struct {
		Content []struct {
			Text *string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func firstCandidateText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: unmarshaling response: %w", domain.ErrUpstream, err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked: %s", domain.ErrUpstream, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: empty response from API: no candidates", domain.ErrUpstream)
	}

	text, finishReason, ok := candidateText(resp.Candidates[0])
	if !ok {
		if finishReason != "" {
			return "", fmt.Errorf("%w: candidate has no text (finishReason %s)", domain.ErrUpstream, finishReason)
		}
		return "", fmt.Errorf("%w: candidate has no text", domain.ErrUpstream)
	}
	return text, nil
}

// candidateText tries content.parts[0].text, then output[0].content[0].text,
// then a bare string candidate. A candidate without text (safety or recitation
// stops) reports ok=false along with its finishReason.
func candidateText(raw json.RawMessage) (text, finishReason string, ok bool) {
	var cand candidate
	if err := json.Unmarshal(raw, &cand); err == nil {
		if cand.Content != nil && len(cand.Content.Parts) > 0 && cand.Content.Parts[0].Text != nil {
			return *cand.Content.Parts[0].Text, cand.FinishReason, true
		}
		if len(cand.Output) > 0 && len(cand.Output[0].Content) > 0 && cand.Output[0].Content[0].Text != nil {
			return *cand.Output[0].Content[0].Text, cand.FinishReason, true
		}
		return "", cand.FinishReason, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, "", true
	}
	return "", "", false
}
