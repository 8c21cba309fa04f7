package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"sales-competency-service/internal/app"
	"sales-competency-service/internal/domain"
)

// WSHandler runs live, timed attempts over a websocket.
type WSHandler struct {
	service  *app.AssessmentService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startedPayload struct {
	AttemptID string     `json:"attemptId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type answerRecorded struct {
	QuestionID string `json:"questionId"`
	Answered   int    `json:"answered"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives one attempt: answers are buffered until the
// client submits or the deadline passes, whichever comes first.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	respondentID := r.URL.Query().Get("respondentId")
	lang, err := domain.ParseLanguage(r.URL.Query().Get("lang"))
	if respondentID == "" || err != nil {
		http.Error(w, "missing respondentId or unsupported lang", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.service.Start(ctx, respondentID, lang)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	// no-op once the attempt has been submitted
	defer h.service.Abandon(ctx, session.ID())

	started := startedPayload{AttemptID: session.ID()}
	if deadline := session.Deadline(); !deadline.IsZero() {
		started.ExpiresAt = &deadline
		_ = conn.SetReadDeadline(deadline)
	}
	if err := conn.WriteJSON(outboundMessage[startedPayload]{Type: "started", Payload: started}); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// Time ran out: score whatever was answered.
				h.submit(conn, r, session.ID())
				return
			}
			// Client went away without submitting; nothing is scored.
			slog.Info("attempt abandoned", "attempt", session.ID(), "error", err)
			return
		}

		switch inbound.Type {
		case "answer":
			var answer domain.Answer
			if err := json.Unmarshal(inbound.Payload, &answer); err != nil {
				writeError(conn, "invalid answer payload")
				continue
			}
			answered, err := h.service.RecordAnswer(ctx, session.ID(), answer)
			if errors.Is(err, domain.ErrSessionExpired) {
				h.submit(conn, r, session.ID())
				return
			}
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			_ = conn.WriteJSON(outboundMessage[answerRecorded]{Type: "answerRecorded", Payload: answerRecorded{
				QuestionID: answer.QuestionID,
				Answered:   answered,
			}})
		case "submit":
			h.submit(conn, r, session.ID())
			return
		default:
			writeError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) submit(conn *websocket.Conn, r *http.Request, attemptID string) {
	attempt, err := h.service.Submit(r.Context(), attemptID)
	// the read deadline may already have fired; writes get their own
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err != nil {
		writeError(conn, err.Error())
		return
	}
	if err := conn.WriteJSON(outboundMessage[domain.Attempt]{Type: "result", Payload: attempt}); err != nil {
		slog.Warn("ws write error", "attempt", attemptID, "error", err)
	}
}

func writeError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}
