// Package schema holds the table definitions of the service and the
// drop-and-recreate bootstrap used by the legacy setup routes.
package schema

// Table is a single table definition. Create and Indexes are idempotent.
// References names the tables its foreign keys point at.
type Table struct {
	Name       string
	Create     string
	Indexes    []string
	References []string
}

var Users = Table{
	Name: "users",
	Create: `CREATE TABLE IF NOT EXISTS users (
  id VARCHAR(32) PRIMARY KEY,
  username VARCHAR(100) NOT NULL UNIQUE,
  email VARCHAR(255) NOT NULL UNIQUE,
  password TEXT NOT NULL,
  name VARCHAR(255) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
}

var Ideas = Table{
	Name: "ideas",
	Create: `CREATE TABLE IF NOT EXISTS ideas (
  id VARCHAR(32) PRIMARY KEY,
  title VARCHAR(255) NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  short_description TEXT NOT NULL DEFAULT '',
  area VARCHAR(255) NOT NULL DEFAULT '',
  status VARCHAR(100) NOT NULL DEFAULT 'New',
  user_id VARCHAR(32) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	References: []string{"users"},
	Indexes: []string{
		`CREATE INDEX IF NOT EXISTS idx_ideas_created_at ON ideas (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_ideas_user_id ON ideas (user_id, created_at DESC)`,
	},
}

// Comments.username is a copy of the author's username taken at insert time.
var Comments = Table{
	Name: "comments",
	Create: `CREATE TABLE IF NOT EXISTS comments (
  id VARCHAR(32) PRIMARY KEY,
  idea_id VARCHAR(32) NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
  user_id VARCHAR(32) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  username VARCHAR(100) NOT NULL,
  comment TEXT NOT NULL,
  parent_id VARCHAR(32) REFERENCES comments(id) ON DELETE CASCADE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	References: []string{"ideas", "users"},
	Indexes: []string{
		`CREATE INDEX IF NOT EXISTS idx_comments_idea_id ON comments (idea_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_parent_id ON comments (parent_id)`,
	},
}

var Feedback = Table{
	Name: "feedback",
	Create: `CREATE TABLE IF NOT EXISTS feedback (
  id VARCHAR(32) PRIMARY KEY,
  email VARCHAR(255),
  feedback TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
}

// All returns the tables in dependency order.
func All() []Table {
	return []Table{Users, Ideas, Comments, Feedback}
}

// Lookup finds a table by name.
func Lookup(name string) (Table, bool) {
	for _, t := range All() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// WithDependents returns t and every table whose foreign keys reach t,
// directly or through another table, in dependency order.
func WithDependents(t Table) []Table {
	hit := map[string]bool{t.Name: true}
	var out []Table
	for _, c := range All() {
		for _, ref := range c.References {
			if hit[ref] {
				hit[c.Name] = true
			}
		}
		if hit[c.Name] {
			out = append(out, c)
		}
	}
	return out
}
