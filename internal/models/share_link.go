package models

import "time"

// ShareLink existence is the sharing state: a note is shared iff a row for
// it exists. Revocation deletes the row, so a revoked token and a token
// that never existed resolve identically.
//
// Both unique indexes matter: note_id keeps a note down to at most one
// live link even under concurrent generates, token makes a cross-note
// token collision a constraint violation instead of a silent overwrite.
type ShareLink struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	NoteID    uint      `json:"note_id" gorm:"uniqueIndex;not null"`
	Token     string    `json:"token" gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`

	Note Note `json:"-" gorm:"foreignKey:NoteID"`
}

// SharedNote is the public projection served for a resolved token. Only
// fields safe for anonymous viewing: never the owner id or email.
type SharedNote struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author"`
}
