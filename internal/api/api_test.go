package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danielpatrickdp/stress-dost/internal/dataset"
	"github.com/danielpatrickdp/stress-dost/internal/metrics"
	"github.com/danielpatrickdp/stress-dost/internal/orchestrator"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/profiler"
	"github.com/danielpatrickdp/stress-dost/internal/session"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// #region fixture

type testServer struct {
	router *gin.Engine
	hub    *Hub
	orch   *orchestrator.Orchestrator
}

func newTestServer(t *testing.T, hub *Hub) *testServer {
	t.Helper()
	opts := session.DefaultOptions()
	opts.Seed = 9
	sessions, err := session.NewStore(8, opts, nil)
	require.NoError(t, err)

	bank := &profiler.Bank{Dimensions: append([]personality.Dimension(nil), personality.CoreDimensions...)}
	for i, d := range personality.CoreDimensions {
		bank.Questions = append(bank.Questions, profiler.Question{
			ID:   i + 1,
			Text: "How do you handle " + string(d) + "?",
			Options: []profiler.Option{
				{Text: "Well", Scores: map[personality.Dimension]float64{d: 0.7}},
				{Text: "Badly", Scores: map[personality.Dimension]float64{d: 0.3}},
			},
		})
	}

	popups := []trigger.Popup{
		{ID: "f1", Text: "Time is running out.", Type: trigger.TypeSarcasm, Category: trigger.CategoryFear, Value: 0.6, Tags: []string{"supportive", "encouragement"}},
		{ID: "f2", Text: "What if you blank out?", Type: trigger.TypeOptionBased, Category: trigger.CategoryFear, Value: 0.8,
			Tags: []string{"supportive", "encouragement"}, Options: []string{"Panic", "Breathe", "Skip"}},
	}

	reg := prometheus.NewRegistry()
	deps := orchestrator.Deps{
		Sessions: sessions,
		Assessor: profiler.NewAssessor(bank, profiler.AssessorConfig{}, rand.New(rand.NewPCG(5, 6))),
		Dataset:  dataset.New(popups),
		Metrics:  metrics.MustNewMetrics(reg),
	}
	if hub != nil {
		deps.Notifier = hub
	}
	orch, err := orchestrator.New(orchestrator.DefaultConfig(), deps)
	require.NoError(t, err)

	h := NewHandler(orch, hub, HandlerConfig{Sinks: []string{"sqlite"}}, nil)
	return &testServer{router: NewRouter(h, reg), hub: hub, orch: orch}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func answers() []map[string]any {
	out := make([]map[string]any, len(personality.CoreDimensions))
	for i := range out {
		out[i] = map[string]any{"question_id": i + 1, "option_index": 0}
	}
	return out
}

// #endregion

// #region system

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	router := NewRouter(NewHandler(s.orch, nil, HandlerConfig{EnableCORS: true}, nil), prometheus.NewRegistry())

	req := httptest.NewRequest(http.MethodOptions, "/api/trigger", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	plain := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	plain.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, plain)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndConfig(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
	assert.Equal(t, false, body["generator_configured"])
	assert.Equal(t, false, body["questions_api"])
	assert.Equal(t, []any{"sqlite"}, body["sinks"])

	code, body = s.do(t, http.MethodGet, "/api/config", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.8, body["meter_threshold"])
	assert.Equal(t, 0.1, body["difficulty_increment"])
	assert.Equal(t, 30.0, body["timeout"])
	features := body["features"].(map[string]any)
	assert.Equal(t, false, features["live_updates"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	sid := startAssessed(t, s)
	code, _ := s.do(t, http.MethodPost, "/api/trigger", map[string]any{"session_id": sid, "question_index": 1})
	require.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stressdost_trigger_selections_total")
}

// #endregion

// #region flow

func startAssessed(t *testing.T, s *testServer) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/session", map[string]any{"user_id": "u1", "label": "fear"})
	require.Equal(t, http.StatusOK, code)
	sid := body["session_id"].(string)
	code, _ = s.do(t, http.MethodPost, "/api/personality/submit", map[string]any{"session_id": sid, "responses": answers()})
	require.Equal(t, http.StatusOK, code)
	return sid
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(t, http.MethodGet, "/api/personality/questions", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, len(personality.CoreDimensions), body["total_questions"])
	assert.NotContains(t, mustJSON(t, body), "scores")

	code, body = s.do(t, http.MethodPost, "/api/session", map[string]any{"user_id": "u1", "total_questions": 3, "label": "fear"})
	require.Equal(t, http.StatusOK, code)
	sid := body["session_id"].(string)
	require.NotEmpty(t, sid)

	code, body = s.do(t, http.MethodPost, "/api/trigger", map[string]any{"session_id": sid, "question_index": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "pending_personality", body["status"])

	code, body = s.do(t, http.MethodPost, "/api/personality/submit", map[string]any{"session_id": sid, "responses": answers()})
	require.Equal(t, http.StatusOK, code)
	result := body["result"].(map[string]any)
	assert.NotNil(t, result["personality_vector"])

	code, body = s.do(t, http.MethodPost, "/api/trigger", map[string]any{"session_id": sid, "question_index": 1})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "trigger_ready", body["status"])
	popup := body["trigger"].(map[string]any)

	code, body = s.do(t, http.MethodPost, "/api/trigger/response", map[string]any{
		"session_id":     sid,
		"trigger_text":   popup["text"],
		"trigger_type":   popup["type"],
		"trigger_value":  popup["value"],
		"label":          "fear",
		"time_taken":     2.5,
		"question_time":  4.0,
		"answer_correct": false,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "response_recorded", body["status"])
	assert.Contains(t, body, "threshold_reached")
	assert.Contains(t, body, "current_difficulty")

	code, body = s.do(t, http.MethodGet, "/api/session/"+sid, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["session"].(map[string]any)["triggers_served"])

	code, body = s.do(t, http.MethodPost, "/api/session/end", map[string]any{"session_id": sid})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "session_ended", body["status"])
	report := body["report"].(map[string]any)
	assert.EqualValues(t, 1, report["triggers_shown"])

	code, _ = s.do(t, http.MethodGet, "/api/session/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestErrors(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(t, http.MethodPost, "/api/session", map[string]any{"label": "fear"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", body["kind"])

	code, _ = s.do(t, http.MethodPost, "/api/session", map[string]any{"user_id": "u1", "label": "joy"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/session/end", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodPost, "/api/trigger/response", map[string]any{"session_id": "nope", "trigger_text": "x"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["kind"])

	sid := startAssessed(t, s)
	code, _ = s.do(t, http.MethodPost, "/api/trigger/response", map[string]any{"session_id": sid, "trigger_text": "x", "trigger_type": "rant"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/questions/load", map[string]any{"session_id": sid})
	assert.Equal(t, http.StatusBadGateway, code)

	code, _ = s.do(t, http.MethodPost, "/api/answer", map[string]any{"session_id": sid, "question_id": "q1", "answer": "A"})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodPost, "/api/trigger", map[string]any{"session_id": sid, "label": "frustration"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "no_trigger_available", body["status"])
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// #endregion

// #region websocket

func TestWebSocketReceivesSessionEvents(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	s := newTestServer(t, hub)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	sid := startAssessed(t, s)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sid
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Eventually(t, func() bool { return hub.Clients(sid) == 1 }, 2*time.Second, 10*time.Millisecond)

	code, _ := s.do(t, http.MethodPost, "/api/trigger", map[string]any{"session_id": sid, "question_index": 1})
	require.Equal(t, http.StatusOK, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event orchestrator.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "trigger_delivered", event.Type)
	assert.Equal(t, sid, event.SessionID)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients(sid) == 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-hubDone
}

func TestWebSocketHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	s := newTestServer(t, hub)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	sid := startAssessed(t, s)
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/"+sid, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients(sid) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-hubDone

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.Clients(sid))
}

func TestWebSocketUnknownSession(t *testing.T) {
	s := newTestServer(t, NewHub(nil))
	code, _ := s.do(t, http.MethodGet, "/ws/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebSocketDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	sid := startAssessed(t, s)
	code, _ := s.do(t, http.MethodGet, "/ws/"+sid, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

// #endregion
