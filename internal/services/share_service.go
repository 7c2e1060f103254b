package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/devil-1964/notesapp/internal/models"
)

// tokenBytes gives 256 bits of entropy, 64 hex characters on the wire.
const tokenBytes = 32

// Collisions on the token column are astronomically unlikely; when the
// unique index reports one anyway we retry with a fresh token rather than
// pretend it cannot happen.
const tokenRetries = 3

type ShareService struct {
	db    *gorm.DB
	notes *NoteService

	// newToken is the token source; tests swap it to force collisions.
	newToken func() (string, error)
}

func NewShareService(db *gorm.DB, notes *NoteService) *ShareService {
	return &ShareService{db: db, notes: notes, newToken: newShareToken}
}

// Generate creates the share link for a note, or returns the existing one
// unchanged when the note is already shared. Re-generation is idempotent:
// there is never a moment with two live tokens for one note. Two
// concurrent generates both racing past the existence check are settled
// by the unique index on note_id; the loser reads back the winner's row.
func (s *ShareService) Generate(noteID, userID uint) (*models.ShareLink, error) {
	owner, err := s.notes.IsOwner(noteID, userID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, ErrNotOwner
	}

	var existing models.ShareLink
	err = s.db.Where("note_id = ?", noteID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < tokenRetries; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return nil, err
		}

		link := models.ShareLink{NoteID: noteID, Token: token}
		err = s.db.Create(&link).Error
		if err == nil {
			return &link, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}

		// Either we lost the note_id race or the fresh token collided.
		// A row for the note means the former: return it.
		if err := s.db.Where("note_id = ?", noteID).First(&existing).Error; err == nil {
			return &existing, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("share token collision persisted after %d attempts", tokenRetries)
}

// Revoke deletes the share link outright. ErrShareNotFound here is a
// legitimate empty state, not an authorization response: ownership was
// already proven before we looked for the link.
func (s *ShareService) Revoke(noteID, userID uint) error {
	owner, err := s.notes.IsOwner(noteID, userID)
	if err != nil {
		return err
	}
	if !owner {
		return ErrNotOwner
	}

	result := s.db.Where("note_id = ?", noteID).Delete(&models.ShareLink{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrShareNotFound
	}
	return nil
}

// Status reads the current row every time; it never reuses a value held
// over from an earlier generate or revoke in the same request.
func (s *ShareService) Status(noteID, userID uint) (*models.ShareLink, error) {
	owner, err := s.notes.IsOwner(noteID, userID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, ErrNotOwner
	}

	var link models.ShareLink
	err = s.db.Where("note_id = ?", noteID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Resolve is the one public lookup: no ownership check, a single query
// from token to note to author. A revoked token and a token that never
// existed are the same ErrShareNotFound.
func (s *ShareService) Resolve(token string) (*models.SharedNote, error) {
	var shared models.SharedNote
	err := s.db.Model(&models.ShareLink{}).
		Select("notes.title, notes.content, notes.created_at, users.username AS author").
		Joins("JOIN notes ON notes.id = share_links.note_id").
		Joins("JOIN users ON users.id = notes.user_id").
		Where("share_links.token = ?", token).
		Take(&shared).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, err
	}
	return &shared, nil
}

func newShareToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
