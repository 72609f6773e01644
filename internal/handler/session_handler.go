package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jeeace/backend/internal/evaluator"
	"github.com/jeeace/backend/internal/middleware"
	"github.com/jeeace/backend/internal/model"
	"github.com/jeeace/backend/internal/response"
	"github.com/jeeace/backend/internal/service"
	"github.com/jeeace/backend/internal/session"
	"github.com/jeeace/backend/internal/validator"
)

// SessionHandler handles the live test session endpoints.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Start godoc
// POST /api/v1/sessions
// Starts a timed session from a test configuration.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.Start(c.Request.Context(), claims.UserID, req.Configuration)
	if err != nil {
		if errors.Is(err, session.ErrNoQuestions) || errors.Is(err, session.ErrInvalidDuration) {
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrConfigRequired)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": view})
}

// GetState godoc
// GET /api/v1/sessions/:id
// Returns the current snapshot of a session.
func (h *SessionHandler) GetState(c *gin.Context) {
	claims, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	view, err := h.sessionService.Get(sessionID, claims.UserID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// PutAnswer godoc
// PUT /api/v1/sessions/:id/answers
// Records an answer for a global question index.
func (h *SessionHandler) PutAnswer(c *gin.Context) {
	claims, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var req model.SessionAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.Answer(c.Request.Context(), sessionID, claims.UserID, req.Index, req.Label)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// PutCursor godoc
// PUT /api/v1/sessions/:id/cursor
// Moves the cursor within the filtered view, switching the subject if needed.
func (h *SessionHandler) PutCursor(c *gin.Context) {
	claims, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var req model.SessionCursorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.Navigate(sessionID, claims.UserID, req.Subject, req.Index)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// Submit godoc
// POST /api/v1/sessions/:id/submit
// Freezes the session and grades it. On evaluator failure the session stays
// retryable and the client gets a 502.
func (h *SessionHandler) Submit(c *gin.Context) {
	claims, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	report, err := h.sessionService.Submit(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// GetReport godoc
// GET /api/v1/sessions/:id/report
// Returns the final report of a completed session.
func (h *SessionHandler) GetReport(c *gin.Context) {
	claims, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	report, err := h.sessionService.Report(sessionID, claims.UserID)
	if err != nil {
		if errors.Is(err, session.ErrSessionClosed) {
			response.Fail(c, http.StatusConflict, response.ErrReportNotReady)
			return
		}
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}

func (h *SessionHandler) sessionParams(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, sessionID, true
}

// failSession maps session engine errors onto API error codes.
func (h *SessionHandler) failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrNotSessionOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, session.ErrSessionClosed):
		response.Fail(c, http.StatusConflict, response.ErrSessionClosed)
	case errors.Is(err, session.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
	case errors.Is(err, session.ErrSubmitInFlight):
		response.Fail(c, http.StatusConflict, response.ErrSubmitInFlight)
	case errors.Is(err, session.ErrIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionOutOfRange)
	case errors.Is(err, evaluator.ErrUnavailable):
		response.Fail(c, http.StatusBadGateway, response.ErrEvaluatorDown)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
