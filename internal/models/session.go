package models

import "time"

// Session is a scheduled meeting with a roster of expected participants.
// Sessions are owned by the session directory; the engine only reads them.
type Session struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Date           time.Time `json:"date"`
	Type           string    `json:"type"`
	ParticipantIDs []int     `json:"participant_ids"`
}
