package protocol

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ashish-sjc/scribblAI/domain"
	"github.com/ashish-sjc/scribblAI/metrics"
)

const maxChatLength = 2000

type joinPayload struct {
	Name string `json:"name" validate:"required,max=64"`
	Room string `json:"room" validate:"required,max=128"`
}

type drawPayload struct {
	X     *float64 `json:"x" validate:"required"`
	Y     *float64 `json:"y" validate:"required"`
	Phase string   `json:"phase" validate:"required,oneof=start move end"`
	Color string   `json:"color" validate:"omitempty,max=64"`
}

// Handler is the per-connection lifecycle: it validates inbound frames and
// sequences them into the hub. It keeps no per-connection state.
type Handler struct {
	hub      domain.Hub
	log      *slog.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func NewHandler(hub domain.Hub, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		hub:      hub,
		log:      logger,
		metrics:  m,
		validate: validator.New(),
	}
}

func (h *Handler) Connect(conn domain.Connection) string {
	return h.hub.Connect(conn)
}

func (h *Handler) Disconnect(conn domain.Connection) {
	h.hub.Disconnect(conn.ID())
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.metrics.FrameReceived("invalid")
		h.reject(conn, &domain.ProtocolError{Code: domain.CodeInvalidMessage, Msg: "frame is not a JSON envelope"})
		return
	}

	var err error
	switch msg.Type {
	case domain.TypePing:
		err = h.pong(conn)
	case domain.TypeJoinRoom:
		err = h.join(conn, msg.Data)
	case domain.TypeChat:
		err = h.chat(conn, msg.Data)
	case domain.TypeDraw:
		err = h.draw(conn, msg.Data)
	default:
		h.metrics.FrameReceived("unknown")
		h.reject(conn, &domain.ProtocolError{Code: domain.CodeInvalidMessage, Msg: "unknown frame type " + msg.Type})
		return
	}
	h.metrics.FrameReceived(msg.Type)

	if err == nil {
		return
	}

	var perr *domain.ProtocolError
	switch {
	case errors.As(err, &perr):
		h.reject(conn, perr)
	case errors.Is(err, domain.ErrSessionClosed), errors.Is(err, domain.ErrUnknownSession):
		h.log.Error("frame for inactive session", "sessionId", conn.ID(), "type", msg.Type, "error", err)
	default:
		h.log.Warn("frame failed", "sessionId", conn.ID(), "type", msg.Type, "error", err)
	}
}

func (h *Handler) pong(conn domain.Connection) error {
	data, err := domain.Encode(domain.TypePong, nil)
	if err != nil {
		return err
	}
	return conn.Send(data)
}

func (h *Handler) join(conn domain.Connection, raw json.RawMessage) error {
	var p joinPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return badRequest("joinRoom expects {name, room}")
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Room = strings.TrimSpace(p.Room)
	if err := h.validate.Struct(p); err != nil {
		return badRequest(describe(err))
	}
	return h.hub.Join(conn.ID(), p.Name, p.Room)
}

func (h *Handler) chat(conn domain.Connection, raw json.RawMessage) error {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return badRequest("chat expects a string")
	}
	if err := h.validate.Var(text, "max="+strconv.Itoa(maxChatLength)); err != nil {
		return badRequest("chat message too long")
	}
	return h.hub.BroadcastChat(conn.ID(), text)
}

func (h *Handler) draw(conn domain.Connection, raw json.RawMessage) error {
	var p drawPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return badRequest("draw expects {x, y, phase, color?}")
	}
	if err := h.validate.Struct(p); err != nil {
		return badRequest(describe(err))
	}
	return h.hub.BroadcastDraw(conn.ID(), domain.DrawEvent{
		X:     *p.X,
		Y:     *p.Y,
		Phase: domain.Phase(p.Phase),
		Color: p.Color,
	})
}

func (h *Handler) reject(conn domain.Connection, perr *domain.ProtocolError) {
	h.metrics.FrameRejected(perr.Code)
	h.log.Warn("frame rejected", "sessionId", conn.ID(), "code", perr.Code, "reason", perr.Msg)

	data, err := domain.Encode(domain.TypeError, perr)
	if err != nil {
		return
	}
	_ = conn.Send(data)
}

func badRequest(msg string) *domain.ProtocolError {
	return &domain.ProtocolError{Code: domain.CodeBadRequest, Msg: msg}
}

// describe turns validator output into a short client-facing reason.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid payload"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " is too long"
	case "oneof":
		return field + " must be one of " + fe.Param()
	}
	return field + " is invalid"
}
