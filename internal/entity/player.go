package entity

const (
	SideNone  Side = ""
	SideRed   Side = "red"
	SideBlack Side = "black"
)

type Side string

// Opponent returns the other side. SideNone has no opponent.
func (that Side) Opponent() Side {
	switch that {
	case SideRed:
		return SideBlack
	case SideBlack:
		return SideRed
	default:
		return SideNone
	}
}

// Player is a room member. Two players are the same player when their usernames match.
type Player struct {
	Username string `json:"username"`
	Rating   int    `json:"rating,omitempty"`
	Side     Side   `json:"side,omitempty"`
	Ready    bool   `json:"ready"`
}

func NewPlayer(user *User) *Player {
	return &Player{
		Username: user.Username,
		Rating:   user.Elo,
	}
}

func (that *Player) Equal(other *Player) bool {
	if that == nil || other == nil {
		return false
	}

	return that.Username == other.Username
}

func (that *Player) IsRed() bool {
	return that.Side == SideRed
}
