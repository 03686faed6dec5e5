package dto

import "time"

const (
	EventReviewProposed = "review.proposed"
	EventReviewResolved = "review.resolved"
	EventDirectMutation = "review.direct"
)

// ReviewEvent is published on every staged or resolved change.
type ReviewEvent struct {
	Event      string    `json:"event"`
	Entity     string    `json:"entity"`
	ID         string    `json:"id"`
	ChangeType string    `json:"change_type"`
	Decision   string    `json:"decision,omitempty"`
	UserID     string    `json:"user_id"`
	AdminID    string    `json:"admin_id,omitempty"`
	At         time.Time `json:"at"`
}
