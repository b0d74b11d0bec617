package domain

import "time"

// Group is a WhatsApp messaging destination, owned by the group directory.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
