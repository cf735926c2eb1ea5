package model

import "time"

// Account is one stored credential. Ownership is derived through the parent
// platform's user.
type Account struct {
	ID         string    `json:"id"`
	PlatformID string    `json:"platform_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Username   string    `json:"username,omitempty"`
	Password   string    `json:"password,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
