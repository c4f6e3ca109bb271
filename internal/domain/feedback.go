package domain

import "time"

// Feedback is a star rating plus free-text comment. No update or delete
// lifecycle exists for it.
type Feedback struct {
	ID        string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}
