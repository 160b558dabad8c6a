package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

type WSHandler struct {
	service  *app.AttemptService
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
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

type selectPayload struct {
	QuestionIndex int `json:"questionIndex"`
	OptionIndex   int `json:"optionIndex"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and drives one user's attempt over them.
// Every state change, including clock ticks, is pushed as a "state" message; the stored
// result follows as a "result" message once the attempt is submitted.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	log := h.log.WithFields(logrus.Fields{"quiz_id": quizID, "user_id": userID})

	state, err := h.service.Start(ctx, quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	if state.Status == domain.StatusSubmitted {
		_ = conn.WriteJSON(outboundMessage[any]{Type: "state", Payload: state})
		if state.Result != nil {
			_ = conn.WriteJSON(outboundMessage[any]{Type: "result", Payload: state.Result})
		}
		return
	}

	updates, cancel, err := h.service.Subscribe(ctx, quizID, userID)
	if err != nil {
		// The clock may have run out between start and subscribe.
		if result, rerr := h.service.Result(ctx, quizID, userID); rerr == nil {
			_ = conn.WriteJSON(outboundMessage[any]{Type: "result", Payload: result})
			return
		}
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write failed")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: "state", Payload: update}}
				if update.Status == domain.StatusSubmitted && update.Result != nil {
					msgs = append(msgs, outboundMessage[any]{Type: "result", Payload: update.Result})
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, quizID, userID, inbound); err != nil {
			if status, _ := classify(err); status == http.StatusInternalServerError {
				log.WithError(err).WithField("type", inbound.Type).Error("ws command failed")
			}
			select {
			case send <- errorMessage(err):
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one client command. Successful commands need no reply: the resulting state
// reaches the client through the subscription.
func (h *WSHandler) dispatch(ctx context.Context, quizID, userID string, in inboundMessage) error {
	var err error
	switch in.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return fmt.Errorf("%w: invalid select payload", domain.ErrValidation)
		}
		_, err = h.service.SelectAnswer(ctx, quizID, userID, payload.QuestionIndex, payload.OptionIndex)
	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return fmt.Errorf("%w: invalid goto payload", domain.ErrValidation)
		}
		_, err = h.service.GoTo(ctx, quizID, userID, payload.Index)
	case "next":
		_, err = h.service.Next(ctx, quizID, userID)
	case "previous":
		_, err = h.service.Previous(ctx, quizID, userID)
	case "submit":
		_, err = h.service.Submit(ctx, quizID, userID)
	default:
		return fmt.Errorf("%w: unsupported message type %q", domain.ErrValidation, in.Type)
	}
	return err
}

func errorMessage(err error) outboundMessage[any] {
	_, payload := classify(err)
	return outboundMessage[any]{Type: "error", Payload: payload}
}
