package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/internal/config"
	"studybuddy/internal/domain"
	"studybuddy/internal/llm/gemini"
)

func newTestClient(serverURL string) *gemini.Client {
	cfg := &config.GeminiConfig{
		APIKey:      "test-gemini-key",
		Model:       "gemini-1.5-pro",
		TimeoutSecs: 30,
		Temperature: 0.2,
	}
	return gemini.NewClientWithEndpoint(cfg, serverURL)
}

func geminiSuccessResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role": "model",
					"parts": []map[string]interface{}{
						{"text": text},
					},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func serveJSON(t *testing.T, status int, body interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)

		contents := reqBody["contents"].([]interface{})
		assert.Len(t, contents, 1)
		msg := contents[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])
		parts := msg["parts"].([]interface{})
		assert.Equal(t, "Explain osmosis", parts[0].(map[string]interface{})["text"])

		genConfig := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, 0.2, genConfig["temperature"])
		assert.Equal(t, float64(1), genConfig["candidateCount"])
		assert.Equal(t, float64(512), genConfig["maxOutputTokens"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(geminiSuccessResponse("Osmosis is..."))
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	res, err := c.Generate(context.Background(), domain.GenerationRequest{
		Prompt:          "Explain osmosis",
		MaxOutputTokens: 512,
	})

	require.NoError(t, err)
	assert.Equal(t, "Osmosis is...", res.Text)
	assert.Equal(t, "gemini-1.5-pro", res.Model)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Raw, &raw))
	assert.Contains(t, raw, "candidates")
}

func TestClient_Generate_TemperatureOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&reqBody)
		genConfig := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, 0.9, genConfig["temperature"])
		assert.NotContains(t, genConfig, "maxOutputTokens")
		_ = json.NewEncoder(w).Encode(geminiSuccessResponse("ok"))
	}))
	defer server.Close()

	temp := 0.9
	_, err := newTestClient(server.URL).Generate(context.Background(), domain.GenerationRequest{
		Prompt:      "hi",
		Temperature: &temp,
	})
	require.NoError(t, err)
}

func TestClient_Generate_MissingAPIKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := gemini.NewClientWithEndpoint(&config.GeminiConfig{}, server.URL)

	_, err := c.Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.False(t, called, "no outbound call without an API key")
}

func TestClient_Generate_NonOKStatus(t *testing.T) {
	server := serveJSON(t, http.StatusBadRequest, map[string]interface{}{
		"error": map[string]interface{}{"code": 400, "message": "API key not valid"},
	})

	_, err := newTestClient(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestClient_Generate_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestClient_Generate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
	}))
	defer server.Close()

	c := gemini.NewClientWithEndpoint(&config.GeminiConfig{APIKey: "k", TimeoutSecs: 1}, server.URL)

	_, err := c.Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestClient_Generate_NoCandidates(t *testing.T) {
	server := serveJSON(t, http.StatusOK, map[string]interface{}{"candidates": []interface{}{}})

	_, err := newTestClient(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestClient_Generate_PromptBlocked(t *testing.T) {
	server := serveJSON(t, http.StatusOK, map[string]interface{}{
		"promptFeedback": map[string]interface{}{
			"blockReason":   "SAFETY",
			"safetyRatings": []interface{}{map[string]interface{}{"category": "HARM", "probability": "HIGH"}},
		},
	})

	_, err := newTestClient(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestClient_Generate_InvalidJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestClient_Generate_LegacyOutputShape(t *testing.T) {
	server := serveJSON(t, http.StatusOK, map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"output": []interface{}{
					map[string]interface{}{
						"content": []interface{}{map[string]interface{}{"text": "legacy text"}},
					},
				},
			},
		},
	})

	res, err := newTestClient(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "legacy text", res.Text)
}

func TestClient_Generate_StringCandidate(t *testing.T) {
	server := serveJSON(t, http.StatusOK, map[string]interface{}{
		"candidates": []interface{}{"plain candidate"},
	})

	res, err := newTestClient(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "plain candidate", res.Text)
}

func TestClient_Generate_CandidateWithoutText(t *testing.T) {
	server := serveJSON(t, http.StatusOK, map[string]interface{}{
		"candidates": []interface{}{map[string]interface{}{"finishReason": "MAX_TOKENS"}},
	})

	_, err := newTestClient(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "MAX_TOKENS")
}

func TestClient_Generate_SafetyStopWithoutParts(t *testing.T) {
	server := serveJSON(t, http.StatusOK, map[string]interface{}{
		"candidates": []interface{}{map[string]interface{}{
			"content":      map[string]interface{}{"role": "model"},
			"finishReason": "SAFETY",
			"safetyRatings": []interface{}{
				map[string]interface{}{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "probability": "HIGH"},
			},
		}},
	})

	res, err := newTestClient(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "finishReason SAFETY")
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	c := gemini.NewClient(&config.GeminiConfig{APIKey: "k"})

	assert.Equal(t, "gemini-1.5-pro", c.Model())
}
