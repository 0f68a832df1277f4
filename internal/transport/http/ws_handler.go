package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"mission-engine/internal/app"
	"mission-engine/internal/domain"
)

// WSHandler drives one quiz mission per connection. The connection is the
// serialization boundary: messages are handled strictly in order, so a
// mission instance never sees two requests at once.
type WSHandler struct {
	registry *app.Registry
	upgrader websocket.Upgrader
}

func NewWSHandler(registry *app.Registry) *WSHandler {
	return &WSHandler{
		registry: registry,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type statePayload struct {
	State         domain.MissionState `json:"state"`
	Points        float64             `json:"points"`
	Step          int                 `json:"step"`
	QuestionsLeft int                 `json:"questionsLeft"`
}

// ServeWS upgrades the request and runs the mission message loop.
// Message types: "question" asks for the next question, "answer" submits
// one, "open" reopens a resolved mission.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	missionID := r.URL.Query().Get("missionId")
	if userID == "" || missionID == "" {
		http.Error(w, "missing userId or missionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	quiz, err := h.registry.New(r.Context(), missionID, userID)
	if err != nil {
		// Construction failure is fatal for this connection.
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	if err := writeState(conn, quiz); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "question":
			h.handlePrepare(r, conn, quiz, nil)
		case "answer":
			var answer domain.Answer
			if err := json.Unmarshal(inbound.Payload, &answer); err != nil {
				writeError(conn, "invalid answer payload")
				continue
			}
			h.handlePrepare(r, conn, quiz, &answer)
		case "open":
			if err := quiz.Open(r.Context()); err != nil {
				writeError(conn, err.Error())
				continue
			}
			if err := writeState(conn, quiz); err != nil {
				return
			}
		default:
			writeError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) handlePrepare(r *http.Request, conn *websocket.Conn, quiz *app.QuizMission, answer *domain.Answer) {
	res, err := quiz.Prepare(r.Context(), answer)
	if err != nil {
		if reqErr, ok := domain.AsRequestError(err); ok {
			writeError(conn, reqErr.Error())
			return
		}
		log.Printf("prepare failed for %s/%s: %v", quiz.UserID(), quiz.MissionID(), err)
		writeError(conn, "internal error")
		return
	}

	switch {
	case res.Question != nil:
		_ = conn.WriteJSON(outboundMessage[*domain.Question]{Type: "question", Payload: res.Question})
	case res.Result != nil:
		_ = conn.WriteJSON(outboundMessage[*domain.AnswerResult]{Type: "result", Payload: res.Result})
	default:
		_ = writeState(conn, quiz)
	}
}

func writeState(conn *websocket.Conn, quiz *app.QuizMission) error {
	return conn.WriteJSON(outboundMessage[statePayload]{Type: "state", Payload: statePayload{
		State:         quiz.State(),
		Points:        quiz.UserPoints(),
		Step:          quiz.Step(),
		QuestionsLeft: quiz.QuestionsLeft(),
	}})
}

func writeError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}
