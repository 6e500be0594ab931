package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studybuddy/internal/config"
	"studybuddy/internal/domain"
	"studybuddy/internal/handler"
	"studybuddy/internal/llm/gemini"
	"studybuddy/internal/router"
	"studybuddy/internal/service"
	"studybuddy/internal/usage"
	"studybuddy/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{MaxBodyMB: 1},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// fakeGemini serves a fixed reply text and counts the prompts it receives.
type fakeGemini struct {
	mu      sync.Mutex
	prompts []string
}

func (f *fakeGemini) server(t *testing.T, replyText string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			f.prompts = append(f.prompts, body.Contents[0].Parts[0].Text)
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]interface{}{{"text": replyText}}}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newStack wires the real client, service and handlers against a fake provider.
func newStack(t *testing.T, providerURL string, recorder *mocks.MockUsageRecorder) (*gin.Engine, *usage.Tracker) {
	t.Helper()
	client := gemini.NewClientWithEndpoint(&config.GeminiConfig{
		APIKey:      "test-key",
		Model:       "gemini-1.5-pro",
		TimeoutSecs: 5,
		Temperature: 0.2,
	}, providerURL)
	tracker := usage.NewTracker(recorder, usage.TrackerConfig{CostPerToken: 0.000001}, zerolog.Nop())
	svc := service.NewStudyService(client, tracker, zerolog.Nop())
	r := router.Setup(testConfig(), zerolog.Nop(), handler.NewStudyHandler(svc), handler.NewHealthHandler(nil))
	return r, tracker
}

func quizReply(n int) string {
	items := make([]map[string]interface{}, n)
	for i := range items {
		items[i] = map[string]interface{}{
			"question":     "Question " + string(rune('A'+i)),
			"options":      []string{"a", "b", "c", "d"},
			"correctIndex": i % 4,
			"explanation":  "because",
		}
	}
	data, _ := json.Marshal(items)
	return "Here is the quiz you asked for:\n" + string(data)
}

func TestQuizEndToEnd_ReturnsRequestedCount(t *testing.T) {
	fake := &fakeGemini{}
	provider := fake.server(t, quizReply(5))

	rec := new(mocks.MockUsageRecorder)
	rec.On("Record", mock.Anything, mock.MatchedBy(func(r domain.UsageRecord) bool {
		return r.UserID == "student-1" && r.FunctionName == domain.FunctionQuiz && r.TokensUsed > 0
	})).Return(nil).Once()

	r, tracker := newStack(t, provider.URL, rec)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "student-1"}).SignedString([]byte("k"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/quiz", strings.NewReader(`{"syllabus":"Photosynthesis and respiration","count":5}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	tracker.Wait()

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		OK   bool             `json:"ok"`
		Quiz []map[string]any `json:"quiz"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Len(t, body.Quiz, 5)
	assert.Equal(t, "Question A", body.Quiz[0]["question"])

	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "Generate 5 multiple-choice questions")
	assert.Contains(t, fake.prompts[0], "Photosynthesis and respiration")
	rec.AssertExpectations(t)
}

func TestQuizEndToEnd_UnparsableReply(t *testing.T) {
	fake := &fakeGemini{}
	provider := fake.server(t, "I'm sorry, I can't help with that.")

	rec := new(mocks.MockUsageRecorder)
	r, tracker := newStack(t, provider.URL, rec)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/quiz", strings.NewReader(`{"syllabus":"Algebra"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	tracker.Wait()

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"could not parse structured reply","rawText":"I'm sorry, I can't help with that."}`, w.Body.String())
	rec.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestChatEndToEnd(t *testing.T) {
	fake := &fakeGemini{}
	provider := fake.server(t, "Mitochondria make ATP.")

	r, tracker := newStack(t, provider.URL, new(mocks.MockUsageRecorder))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"What do mitochondria do?"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	tracker.Wait()

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Mitochondria make ATP.", body["reply"])
	assert.Contains(t, body["raw"], "candidates")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r, _ := newStack(t, "http://127.0.0.1:0", new(mocks.MockUsageRecorder))

	for _, path := range []string{"/api/chat", "/api/quiz", "/api/schedule"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, path)
		assert.JSONEq(t, `{"ok":false,"error":"POST only"}`, w.Body.String(), path)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/health", http.NoBody)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"GET only"}`, w.Body.String())
}

func TestRouter_Preflight(t *testing.T) {
	r, _ := newStack(t, "http://127.0.0.1:0", new(mocks.MockUsageRecorder))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/quiz", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Health(t *testing.T) {
	r, _ := newStack(t, "http://127.0.0.1:0", new(mocks.MockUsageRecorder))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestQuizEndToEnd_SafetyStopIsUpstreamError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model"},"finishReason":"SAFETY",` +
			`"safetyRatings":[{"category":"HARM_CATEGORY_DANGEROUS_CONTENT","probability":"HIGH"}]}]}`))
	}))
	t.Cleanup(provider.Close)

	rec := new(mocks.MockUsageRecorder)
	r, tracker := newStack(t, provider.URL, rec)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "student-2"}).SignedString([]byte("k"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/quiz", strings.NewReader(`{"syllabus":"x","count":5}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	tracker.Wait()

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"generation provider request failed"}`, w.Body.String())
	rec.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}
