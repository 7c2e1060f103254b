package services

import "errors"

// Sentinel errors returned by the service layer; handlers map these onto
// HTTP statuses. ErrNotOwner covers both "note does not exist" and "note
// belongs to someone else" so callers cannot tell the cases apart.
var (
	ErrNotOwner           = errors.New("not authorized")
	ErrNoteNotFound       = errors.New("note not found")
	ErrShareNotFound      = errors.New("share link not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
