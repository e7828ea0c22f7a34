package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quizgen-service/internal/domain"
	"quizgen-service/internal/quizflow"
)

// WSHandler runs the interactive quiz flow over a websocket. Each connection
// owns one quizflow.Machine; the session token never leaves the server.
type WSHandler struct {
	engine   quizflow.Engine
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine quizflow.Engine, log *logrus.Logger) *WSHandler {
	if log == nil {
		log = logrus.New()
	}
	return &WSHandler{
		engine: engine,
		log:    log,
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

type generatePayload struct {
	Domain       string `json:"domain"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

type answerMessage struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
}

type answerAck struct {
	Number    int  `json:"number"`
	CanSubmit bool `json:"canSubmit"`
}

type quizPayload struct {
	Questions []domain.PublicQuestion `json:"questions"`
}

type statePayload struct {
	Phase quizflow.Phase `json:"phase"`
}

// ServeWS upgrades the request and dispatches flow transitions until the
// client goes away. Messages are handled one at a time, so the per-connection
// machine needs no locking.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	machine := quizflow.New(h.engine)
	h.sendState(conn, machine)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "generate":
			var payload generatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid generate payload")
				continue
			}
			if err := machine.GenerateQuiz(r.Context(), payload.Domain, payload.NumQuestions, domain.Difficulty(payload.Difficulty)); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, outboundMessage[quizPayload]{Type: "quiz", Payload: quizPayload{Questions: machine.Questions()}})
		case "answer":
			var payload answerMessage
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid answer payload")
				continue
			}
			if err := machine.SelectAnswer(payload.Number, payload.Label); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			h.send(conn, outboundMessage[answerAck]{Type: "answerAck", Payload: answerAck{Number: payload.Number, CanSubmit: machine.CanSubmit()}})
		case "submit":
			if err := machine.SubmitQuiz(r.Context()); err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			result, _ := machine.Result()
			h.send(conn, outboundMessage[domain.ScoredResult]{Type: "results", Payload: result})
		case "reset":
			machine.ResetQuiz()
			h.sendState(conn, machine)
		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) send(conn *websocket.Conn, msg any) {
	if err := conn.WriteJSON(msg); err != nil {
		h.log.WithError(err).Warn("ws write error")
	}
}

func (h *WSHandler) sendState(conn *websocket.Conn, machine *quizflow.Machine) {
	h.send(conn, outboundMessage[statePayload]{Type: "state", Payload: statePayload{Phase: machine.Phase()}})
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}
