package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/devil-1964/notesapp/internal/models"
)

type NoteService struct {
	db *gorm.DB
}

func NewNoteService(db *gorm.DB) *NoteService {
	return &NoteService{db: db}
}

// IsOwner is the single ownership chokepoint. Every handler that takes a
// note id from the route must call it before touching the note; the other
// NoteService methods assume the check already happened and do not repeat
// it. A missing note and a note owned by someone else both come back
// false, so callers cannot leak existence through different responses.
func (s *NoteService) IsOwner(noteID, userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Note{}).
		Where("id = ? AND user_id = ?", noteID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *NoteService) Create(userID uint, req *models.NoteRequest) (*models.Note, error) {
	note := models.Note{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
	}
	if err := s.db.Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *NoteService) List(userID uint) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *NoteService) GetByID(noteID uint) (*models.Note, error) {
	var note models.Note
	err := s.db.First(&note, noteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// Update replaces title and content; partial update is not supported,
// callers resend both fields.
func (s *NoteService) Update(noteID uint, req *models.NoteRequest) (*models.Note, error) {
	var note models.Note
	err := s.db.First(&note, noteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":   req.Title,
		"content": req.Content,
	}
	if err := s.db.Model(&note).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := s.db.First(&note, noteID).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// Delete removes the note and its share link, if any, in one transaction.
// Without the explicit share-link delete a dangling token would keep
// resolving until the join fails, which is the wrong place to find out.
func (s *NoteService) Delete(noteID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Note{}, noteID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoteNotFound
		}
		return tx.Where("note_id = ?", noteID).Delete(&models.ShareLink{}).Error
	})
}
