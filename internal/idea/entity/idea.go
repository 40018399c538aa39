package entity

import "time"

// Idea is a row of the `ideas` table. UserID is the owner and never changes.
type Idea struct {
	ID               string    `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	Description      string    `db:"description" json:"description"`
	ShortDescription string    `db:"short_description" json:"short_description"`
	Area             string    `db:"area" json:"area"`
	Status           string    `db:"status" json:"status"`
	UserID           string    `db:"user_id" json:"user_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// DefaultStatus is stored when an idea is created without a status.
const DefaultStatus = "New"

// WithOwner is an idea joined with its owner's username.
type WithOwner struct {
	Idea
	Username string `db:"username" json:"username"`
}

// Detail is an idea joined with its owner's name and username.
type Detail struct {
	Idea
	Name     string `db:"name" json:"name"`
	Username string `db:"username" json:"username"`
}

// Patch lists the mutable fields of an idea. Nil fields are left unchanged.
type Patch struct {
	ShortDescription *string `json:"short_description"`
	Description      *string `json:"description"`
	Status           *string `json:"status"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.ShortDescription == nil && p.Description == nil && p.Status == nil
}
