package entity

import "time"

// Comment is a row of the `comments` table. Threads are two levels deep:
// top-level comments have a nil ParentID, replies point at a top-level comment.
// Username is copied from the author when the comment is written.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	IdeaID    string    `db:"idea_id" json:"idea_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	Comment   string    `db:"comment" json:"comment"`
	ParentID  *string   `db:"parent_id" json:"parent_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}
