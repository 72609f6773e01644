package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jeeace/backend/internal/middleware"
	"github.com/jeeace/backend/internal/service"
	"github.com/jeeace/backend/internal/session"
	ws "github.com/jeeace/backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live session events and accepts session actions over
// WebSocket.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes; the event pump and the read loop both write.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = ws.WriteError(w.conn, msg)
}

// SessionStream godoc
// WS /ws/v1/sessions/:id/stream?token=...
// Upgrades to WebSocket for live clock ticks, warnings and grading events.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	events, cancel, err := h.sessionService.Subscribe(sessionID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	defer cancel()

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer rawConn.Close()

	conn := &wsConn{conn: rawConn}
	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Session stream connected")

	// Event pump: session engine → client.
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for ev := range events {
			if err := conn.write(translateEvent(ev)); err != nil {
				return
			}
		}
	}()

	// Read loop: client actions → session engine.
	for {
		_, raw, err := rawConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			conn.writeError("malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, sessionID, claims.UserID, raw)
		case ws.ActionNavigate:
			h.handleNavigate(conn, sessionID, claims.UserID, raw)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, sessionID, claims.UserID)
		case ws.ActionPing:
			_ = conn.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			conn.writeError("unknown action: " + string(envelope.Action))
		}
	}

	cancel()
	<-pumpDone
}

func (h *WSHandler) handleAnswer(conn *wsConn, sessionID uuid.UUID, userID int, raw []byte) {
	var req ws.AnswerRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Label == "" {
		conn.writeError("index and label are required")
		return
	}

	if _, err := h.sessionService.Answer(context.Background(), sessionID, userID, req.Index, req.Label); err != nil {
		conn.writeError(err.Error())
		return
	}
	_ = conn.write(ws.AckResponse{Event: ws.EventSuccess, Action: ws.ActionAnswer})
}

func (h *WSHandler) handleNavigate(conn *wsConn, sessionID uuid.UUID, userID int, raw []byte) {
	var req ws.NavigateRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Subject == "" {
		conn.writeError("subject and index are required")
		return
	}

	if _, err := h.sessionService.Navigate(sessionID, userID, req.Subject, req.Index); err != nil {
		conn.writeError(err.Error())
		return
	}
	_ = conn.write(ws.AckResponse{Event: ws.EventSuccess, Action: ws.ActionNavigate})
}

func (h *WSHandler) handleSubmit(conn *wsConn, wsLog zerolog.Logger, sessionID uuid.UUID, userID int) {
	if _, err := h.sessionService.Submit(context.Background(), sessionID, userID); err != nil {
		wsLog.Warn().Err(err).Msg("WebSocket submit failed")
		conn.writeError(err.Error())
		return
	}
	// The graded event reaches the client through the event pump.
}

// translateEvent maps a session engine event onto the wire schema.
func translateEvent(ev session.Event) interface{} {
	switch ev.Type {
	case session.EventTick:
		return ws.TickResponse{Event: ws.EventTick, Remaining: ev.Remaining}
	case session.EventThreshold:
		return ws.ThresholdResponse{Event: ws.EventThreshold, Remaining: ev.Remaining}
	case session.EventExpired:
		return ws.ExpiredResponse{Event: ws.EventExpired}
	case session.EventSubmitting:
		return ws.SubmittingResponse{Event: ws.EventSubmitting}
	case session.EventCompleted:
		return ws.GradedResponse{
			Event:      ws.EventGraded,
			Score:      ev.Report.Score,
			Total:      ev.Report.Total,
			Percentage: ev.Report.OverallPercentage,
		}
	case session.EventSubmitFailed:
		return ws.ErrorResponse{Event: ws.EventError, Error: ev.Err.Error()}
	default:
		return ws.ErrorResponse{Event: ws.EventError, Error: "unknown event"}
	}
}
