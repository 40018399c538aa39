package entity

import "time"

// Feedback is an anonymous submission. Email is optional.
type Feedback struct {
	ID        string    `db:"id" json:"id"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Feedback  string    `db:"feedback" json:"feedback"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
