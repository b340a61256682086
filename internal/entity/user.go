package entity

const DefaultElo = 1200

// User is the persisted profile a Player is built from.
type User struct {
	Username     string `json:"username"`
	Elo          int    `json:"elo"`
	PasswordHash string `json:"-"`
}

func NewUser(username string) *User {
	return &User{
		Username: username,
		Elo:      DefaultElo,
	}
}
