package dto

import "time"

// SessionResponse identifies an open planning session.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}
