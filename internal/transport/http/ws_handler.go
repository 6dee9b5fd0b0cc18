package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
)

var errUnsupported = errors.New("unsupported message type")

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
	opts     Options
}

func NewWSHandler(service *app.GameService, opts Options) *WSHandler {
	return &WSHandler{
		service: service,
		opts:    opts,
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

type playerPayload struct {
	PlayerID int `json:"playerId"`
	app.PlayerPatch
}

type reorderPayload struct {
	Order []int `json:"order"`
}

type answerPayload struct {
	PlayerID int     `json:"playerId"`
	Option   *int    `json:"option"`
	Text     *string `json:"text"`
}

type keyPayload struct {
	Key string `json:"key"`
}

type cuePayload struct {
	Cue domain.Cue `json:"cue"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets, streams game events and
// applies the intents sent by the client.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameID")
	game, err := h.service.Game(gameID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), gameID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	logf(h.opts.Verbose, "WS: client %s joined game %s", r.RemoteAddr, gameID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					// The game is gone; unblock the reader.
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game closed"),
						time.Now().Add(time.Second))
					_ = conn.Close()
					return
				}
				select {
				case send <- eventMessage(ev):
				case <-closeSignals:
					return
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
		if err := h.dispatch(r.Context(), game, inbound); err != nil {
			select {
			case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}:
			case <-updatesDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	logf(h.opts.Verbose, "WS: client %s left game %s", r.RemoteAddr, gameID)
}

func eventMessage(ev domain.Event) outboundMessage[any] {
	if ev.Type == domain.EventCue {
		return outboundMessage[any]{Type: string(domain.EventCue), Payload: cuePayload{Cue: ev.Cue}}
	}
	return outboundMessage[any]{Type: string(domain.EventState), Payload: ev.State}
}

// dispatch applies one intent. Resulting state reaches the client through
// the subscription.
func (h *WSHandler) dispatch(ctx context.Context, game *app.Game, msg inboundMessage) error {
	switch msg.Type {
	case "add_player":
		_, err := game.AddPlayer()
		return err
	case "remove_player":
		var p playerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return game.RemovePlayer(p.PlayerID)
	case "update_player":
		var p playerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return game.UpdatePlayer(p.PlayerID, p.PlayerPatch)
	case "reorder":
		var p reorderPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return game.ReorderPlayers(p.Order)
	case "start":
		return game.Start()
	case "answer":
		var p answerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		switch {
		case p.Option != nil:
			return game.SubmitOption(p.PlayerID, *p.Option)
		case p.Text != nil:
			return game.SubmitText(p.PlayerID, *p.Text)
		default:
			return errors.New("answer needs an option or text")
		}
	case "key":
		var p keyPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return game.PressKey(p.Key)
	case "pause":
		return game.Pause()
	case "resume":
		return game.Resume()
	case "play_again":
		return game.PlayAgain()
	case "exit":
		return h.service.Exit(ctx, game.ID())
	default:
		return errUnsupported
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.New("invalid payload")
	}
	return nil
}
