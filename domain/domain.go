package domain

import (
	"encoding/json"
	"errors"
)

// Frame types carried in Message.Type.
const (
	TypeJoinRoom    = "joinRoom"
	TypeChat        = "chat"
	TypeDraw        = "draw"
	TypeDrawHistory = "drawHistory"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeError       = "error"
)

// Codes used in error frames sent back to a client.
const (
	CodeInvalidMessage = "invalid_message"
	CodeBadRequest     = "bad_request"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrSessionClosed  = errors.New("session closed")
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Phase string

const (
	PhaseStart Phase = "start"
	PhaseMove  Phase = "move"
	PhaseEnd   Phase = "end"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseStart, PhaseMove, PhaseEnd:
		return true
	}
	return false
}

// DrawEvent is one stroke segment. An empty Color means the receiver keeps
// its last stroke color.
type DrawEvent struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Phase Phase   `json:"phase"`
	Color string  `json:"color,omitempty"`
}

type JoinRequest struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// ProtocolError is sent to a client whose frame was rejected.
type ProtocolError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *ProtocolError) Error() string {
	return e.Code + ": " + e.Msg
}

// Encode wraps data in a Message of the given type. A nil data produces a
// frame without a data field.
func Encode(typ string, data any) ([]byte, error) {
	msg := Message{Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registry tracks sessions and their single room membership.
type Registry interface {
	Connect(conn Connection) string
	Join(sessionID, name, room string) error
	Disconnect(sessionID string)
	CurrentRoom(sessionID string) (string, bool)
}

// Broadcaster fans events out to the members of a session's room.
type Broadcaster interface {
	BroadcastChat(sessionID, text string) error
	BroadcastDraw(sessionID string, ev DrawEvent) error
	SnapshotHistory(room string) []DrawEvent
	Stats() (rooms, sessions int)
}

type Hub interface {
	Registry
	Broadcaster
}

// MessageHandler drives one connection through connect, frames and disconnect.
type MessageHandler interface {
	Connect(conn Connection) string
	Handle(conn Connection, data []byte)
	Disconnect(conn Connection)
}
