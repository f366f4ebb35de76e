package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/orchestrator"
	"github.com/danielpatrickdp/stress-dost/internal/profiler"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// Version is reported by the health and config endpoints.
const Version = "2.0.0"

// #region handler

// Handler adapts the orchestrator to HTTP.
type Handler struct {
	orch    *orchestrator.Orchestrator
	hub     *Hub
	timeout time.Duration
	sinks   []string
	cors    bool
	logger  *zap.Logger
}

// HandlerConfig describes what the health and config endpoints report.
type HandlerConfig struct {
	ResponseTimeout time.Duration // client-side trigger timeout advertised by /api/config
	Sinks           []string      // names of the configured response sinks
	EnableCORS      bool
}

// NewHandler creates a handler. hub may be nil when live updates are off.
func NewHandler(orch *orchestrator.Orchestrator, hub *Hub, cfg HandlerConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 30 * time.Second
	}
	return &Handler{
		orch:    orch,
		hub:     hub,
		timeout: cfg.ResponseTimeout,
		sinks:   cfg.Sinks,
		cors:    cfg.EnableCORS,
		logger:  logger.Named("api"),
	}
}

// respondError maps an error to its status. A pending assessment gets its
// own status string so clients can redirect to the quiz.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if errors.Is(err, orchestrator.ErrAssessmentPending) {
		c.JSON(status, gin.H{"status": "pending_personality", "error": err.Error()})
		return
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"status": "error", "kind": apperr.KindOf(err), "error": err.Error()})
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.respondError(c, apperr.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

// #endregion

// #region system

// Health reports liveness and which integrations are wired.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"version":              Version,
		"timestamp":            time.Now().UTC(),
		"active_sessions":      h.orch.ActiveSessions(),
		"generator_configured": h.orch.GeneratorReady(),
		"sinks":                h.sinks,
		"questions_api":        h.orch.ContentReady(),
	})
}

// Config reports the client-facing constants.
func (h *Handler) Config(c *gin.Context) {
	cfg := h.orch.Config()
	c.JSON(http.StatusOK, gin.H{
		"timeout":              h.timeout.Seconds(),
		"meter_threshold":      cfg.MeterThreshold,
		"difficulty_increment": 0.1,
		"version":              Version,
		"features": gin.H{
			"personality_profiling": true,
			"generated_triggers":    h.orch.GeneratorReady(),
			"content_questions":     h.orch.ContentReady(),
			"response_logging":      h.orch.SinkReady(),
			"live_updates":          h.hub != nil,
		},
	})
}

// #endregion

// #region personality

// PersonalityQuestions returns the quiz without scores.
func (h *Handler) PersonalityQuestions(c *gin.Context) {
	questions := h.orch.PersonalityQuestions()
	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"questions":       questions,
		"total_questions": len(questions),
	})
}

type submitAssessmentRequest struct {
	SessionID string              `json:"session_id" binding:"required"`
	Responses []profiler.Response `json:"responses"`
}

// SubmitPersonality scores the quiz and applies it to the session.
func (h *Handler) SubmitPersonality(c *gin.Context) {
	var req submitAssessmentRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.orch.SubmitAssessment(req.SessionID, req.Responses)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "result": out})
}

// #endregion

// #region session

type startSessionRequest struct {
	UserID         string           `json:"user_id"`
	TotalQuestions int              `json:"total_questions"`
	Category       trigger.Category `json:"label"`
}

// StartSession creates a session.
func (h *Handler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if !h.bind(c, &req) {
		return
	}
	view, err := h.orch.StartSession(req.UserID, req.TotalQuestions, req.Category)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "session_id": view.SessionID, "session": view})
}

// GetSession returns a session snapshot.
func (h *Handler) GetSession(c *gin.Context) {
	view, err := h.orch.Session(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "session": view})
}

type sessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// EndSession returns the closing report and destroys the session.
func (h *Handler) EndSession(c *gin.Context) {
	var req sessionRequest
	if !h.bind(c, &req) {
		return
	}
	report, err := h.orch.EndSession(req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "session_ended", "report": report})
}

// #endregion

// #region questions

type loadQuestionsRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Count     int    `json:"count"`
}

// LoadQuestions fetches main questions for the session.
func (h *Handler) LoadQuestions(c *gin.Context) {
	var req loadQuestionsRequest
	if !h.bind(c, &req) {
		return
	}
	questions, err := h.orch.LoadQuestions(c.Request.Context(), req.SessionID, req.Count)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "questions": questions, "count": len(questions)})
}

// SubmitAnswer checks a main question answer.
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req orchestrator.AnswerInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.orch.SubmitAnswer(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "result": res})
}

// #endregion

// #region triggers

// GetTrigger delivers the popup for the next main question.
func (h *Handler) GetTrigger(c *gin.Context) {
	var req orchestrator.TriggerRequest
	if !h.bind(c, &req) {
		return
	}
	d, err := h.orch.NextTrigger(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !d.Found {
		c.JSON(http.StatusOK, gin.H{"status": "no_trigger_available", "session": d.Session})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "trigger_ready",
		"trigger":       d.Popup,
		"source":        d.Source,
		"level":         d.Level,
		"popup_counter": d.PopupCounter,
		"session":       d.Session,
	})
}

// SubmitTriggerResponse scores an answered popup.
func (h *Handler) SubmitTriggerResponse(c *gin.Context) {
	var req orchestrator.ResponseInput
	if !h.bind(c, &req) {
		return
	}
	out, err := h.orch.SubmitResponse(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// #endregion

// #region websocket

// SessionWebSocket streams session events to the client.
func (h *Handler) SessionWebSocket(c *gin.Context) {
	id := c.Param("session_id")
	if _, err := h.orch.Session(id); err != nil {
		h.respondError(c, err)
		return
	}
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": "live updates are disabled"})
		return
	}
	if err := h.hub.Serve(c.Writer, c.Request, id); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session_id", id), zap.Error(err))
	}
}

// #endregion
