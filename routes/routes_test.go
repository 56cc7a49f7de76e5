package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chatbot/client"
	"chatbot/controllers"
	"chatbot/models"
	"chatbot/services"
)

type scriptedCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (s *scriptedCompleter) Name() string { return "scripted" }

func (s *scriptedCompleter) Complete(context.Context, string, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply, s.err
}

func (s *scriptedCompleter) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func setupTestRouter(t *testing.T, completer services.Completer) (*gin.Engine, services.ExchangeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ks, err := services.NewKnowledgeService(services.DefaultKnowledge())
	require.NoError(t, err)

	store := services.NewMemoryStore()
	logger := zap.NewNop().Sugar()
	chat := services.NewChatService(ks, completer, store, logger)
	return SetupRouter(controllers.NewChatController(chat, logger), logger), store
}

func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(method, path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, data []byte, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, out))
}

func TestHealth(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedCompleter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "SITCOE College Chatbot", resp.Service)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestKnowledge(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedCompleter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/knowledge", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.KnowledgeResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Contains(t, resp.KnowledgeBase, "admissions")
	assert.Contains(t, resp.KnowledgeBase["fees"]["tuition"], "₹1,25,000")
	assert.NotEmpty(t, resp.LastUpdated)
}

func TestChat(t *testing.T) {
	router, store := setupTestRouter(t, &scriptedCompleter{reply: "Fees are ₹50,000/year."})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newJSONRequest(t, http.MethodPost, "/chat", map[string]string{
		"message": "What are the admission fees?",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "Fees are ₹50,000/year.", resp["reply"])
	assert.Equal(t, "What are the admission fees?", resp["user_message"])
	assert.NotEmpty(t, resp["timestamp"])
	assert.NotEmpty(t, resp["id"])

	recent, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, resp["id"], recent[0].ID)
}

func TestChatValidation(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedCompleter{reply: "unused"})

	for name, body := range map[string]any{
		"missing message": map[string]string{"text": "hi"},
		"blank message":   map[string]string{"message": "   "},
		"wrong type":      map[string]int{"message": 3},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, newJSONRequest(t, http.MethodPost, "/chat", body))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp models.ErrorResponse
			decodeBody(t, rec.Body.Bytes(), &resp)
			assert.Equal(t, "Message is required", resp.Error)
		})
	}
}

func TestChatProviderFailure(t *testing.T) {
	router, store := setupTestRouter(t, &scriptedCompleter{err: errors.New("rate limited")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newJSONRequest(t, http.MethodPost, "/chat", map[string]string{"message": "hello"}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp models.ErrorResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	assert.Equal(t, "An error occurred while processing your request", resp.Error)
	assert.Contains(t, resp.Details, "rate limited")

	recent, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestExchanges(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedCompleter{reply: "ok"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/exchanges", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exchanges":[]}`, rec.Body.String())

	for _, msg := range []string{"one", "two", "three"} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, newJSONRequest(t, http.MethodPost, "/chat", map[string]string{"message": msg}))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/exchanges?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ExchangesResponse
	decodeBody(t, rec.Body.Bytes(), &resp)
	require.Len(t, resp.Exchanges, 2)
	assert.Equal(t, "three", resp.Exchanges[0].UserMessage)
	assert.Equal(t, "two", resp.Exchanges[1].UserMessage)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/exchanges?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreflight(t *testing.T) {
	router, _ := setupTestRouter(t, &scriptedCompleter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "POST, GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestChatClientAgainstBackend(t *testing.T) {
	completer := &scriptedCompleter{reply: "Fees are ₹50,000/year."}
	router, _ := setupTestRouter(t, completer)
	srv := httptest.NewServer(router)
	defer srv.Close()

	c, err := client.New(client.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	require.NoError(t, c.Submit(context.Background(), "What are the admission fees?"))
	state := c.Snapshot()
	require.Len(t, state.History, 2)
	assert.Equal(t, "Fees are ₹50,000/year.", state.History[1].Content)
	assert.NotEmpty(t, state.History[1].Timestamp)
	assert.Empty(t, state.LastError)

	completer.fail(errors.New("upstream down"))
	err = c.Submit(context.Background(), "hello")

	var serverErr *client.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)

	state = c.Snapshot()
	require.Len(t, state.History, 3)
	assert.Equal(t, "An error occurred while processing your request", state.LastError)
	assert.False(t, state.IsLoading)
}
