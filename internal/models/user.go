package models

import "time"

// User is a durable identity. Names are unique across the directory.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// Participant is one live connection's presence in a project room. A user with
// several tabs open holds one Participant per connection.
type Participant struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	ConnectionID string `json:"connectionId"`
}

// NewParticipant binds a user identity to a connection.
func NewParticipant(u *User, connectionID string) Participant {
	return Participant{
		UserID:       u.ID,
		Name:         u.Name,
		Color:        u.Color,
		ConnectionID: connectionID,
	}
}
