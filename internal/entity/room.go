package entity

// RoomView is a point-in-time copy of a room, safe to hand out of the room's lock.
type RoomView struct {
	ID             int       `json:"id"`
	RedPlayer      *Player   `json:"redPlayer,omitempty"`
	BlackPlayer    *Player   `json:"blackPlayer,omitempty"`
	Viewers        []*Player `json:"viewers"`
	CurrentPlayers int       `json:"currentPlayers"`
	Playing        bool      `json:"playing"`
	GameID         string    `json:"gameId,omitempty"`
	NextTurn       string    `json:"nextTurnUsername,omitempty"`
	BoardStatus    string    `json:"boardStatus,omitempty"`
	Moves          []string  `json:"moves,omitempty"`
}

// Seat returns the seated player with the given username, or nil.
func (that *RoomView) Seat(username string) *Player {
	if that.RedPlayer != nil && that.RedPlayer.Username == username {
		return that.RedPlayer
	}

	if that.BlackPlayer != nil && that.BlackPlayer.Username == username {
		return that.BlackPlayer
	}

	return nil
}
