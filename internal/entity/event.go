package entity

const (
	EventRoomUpdated = "room.updated"
	EventGameStarted = "game.started"
	EventGameMoved   = "game.moved"
	EventGameForfeit = "game.forfeit"
	EventRoomChat    = "room.chat"
)

const (
	ReasonLeave = "leave"
	ReasonKick  = "kick"
)

// Event is published after every committed room or game change.
type Event struct {
	Type        string    `json:"type"`
	RoomID      int       `json:"roomId"`
	GameID      string    `json:"gameId,omitempty"`
	Username    string    `json:"username,omitempty"`
	Winner      string    `json:"winner,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Move        string    `json:"move,omitempty"`
	BoardStatus string    `json:"boardStatus,omitempty"`
	NextTurn    string    `json:"nextTurnUsername,omitempty"`
	Message     string    `json:"message,omitempty"`
	Room        *RoomView `json:"room,omitempty"`
}

func (that *Event) IsForfeit() bool {
	return that.Type == EventGameForfeit
}
