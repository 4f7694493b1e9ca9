package models

import (
	"encoding/json"
	"time"
)

// RecordType is the set of record variants managed by the workspace.
type RecordType string

const (
	RecordTypeEntry RecordType = "entry"
	RecordTypeCity  RecordType = "city"
)

// Valid reports whether the record type is known.
func (t RecordType) Valid() bool {
	return t == RecordTypeEntry || t == RecordTypeCity
}

// Record statuses. Contributors cannot publish: any requested status other
// than draft is coerced back to draft by the policy engine, so "published"
// is unreachable in practice. The constant exists so the coercion has a
// name for what it rejects.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Record represents an entry or city. Fields is an open, schema-less bag of
// field-name -> raw JSON value; values are typed at export time by structural
// inspection, not by a field registry. There is no team column: the
// effective team is always resolved from the author, so reassigning a user
// to another team retroactively moves all their records.
type Record struct {
	ID        int64                      `json:"id" db:"id"`
	Type      RecordType                 `json:"type" db:"record_type"`
	Title     string                     `json:"title" db:"title"`
	AuthorID  string                     `json:"author_id" db:"author_id"`
	Status    string                     `json:"status" db:"status"`
	Fields    map[string]json.RawMessage `json:"fields" db:"-"`
	CreatedAt time.Time                  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at" db:"updated_at"`
}
