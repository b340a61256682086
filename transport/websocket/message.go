package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

const (
	actionReady = "room:ready"
	actionLeave = "room:leave"
	actionMove  = "game:move"
	actionChat  = "room:chat"
	actionEvent = "event"
	actionError = "error"
)

// Message is the envelope for both directions of a room socket.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	RoomID  int              `json:"roomId,omitempty"`
	Move    string           `json:"move,omitempty"`
	Ready   *bool            `json:"ready,omitempty"`
	Message string           `json:"message,omitempty"`
	Room    *entity.RoomView `json:"room,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func encode(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Message{Action: action, Payload: raw})
}
