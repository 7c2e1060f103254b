package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devil-1964/notesapp/internal/models"
	"github.com/devil-1964/notesapp/internal/services"
	"github.com/devil-1964/notesapp/internal/utils"
	"github.com/devil-1964/notesapp/pkg/validator"
)

type NoteHandler struct {
	noteService *services.NoteService
}

func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) Create(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		utils.ValidationError(c, validator.Messages(err))
		return
	}

	note, err := h.noteService.Create(userID, &req)
	if err != nil {
		logrus.WithError(err).Error("create note failed")
		utils.InternalError(c, "Failed to create note")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Note created successfully",
		"note":    note,
	})
}

func (h *NoteHandler) List(c *gin.Context) {
	userID := c.GetUint("user_id")

	notes, err := h.noteService.List(userID)
	if err != nil {
		logrus.WithError(err).Error("list notes failed")
		utils.InternalError(c, "Failed to fetch notes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notes fetched successfully",
		"notes":   notes,
	})
}

func (h *NoteHandler) Get(c *gin.Context) {
	userID := c.GetUint("user_id")
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	// Ownership first: a foreign note and a missing note both end here
	// with the same 403.
	owner, err := h.noteService.IsOwner(noteID, userID)
	if err != nil {
		logrus.WithError(err).Error("ownership check failed")
		utils.InternalError(c, "Failed to fetch note")
		return
	}
	if !owner {
		utils.Forbidden(c, "Not authorized to view this note")
		return
	}

	note, err := h.noteService.GetByID(noteID)
	if err != nil {
		if errors.Is(err, services.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found")
			return
		}
		logrus.WithError(err).Error("get note failed")
		utils.InternalError(c, "Failed to fetch note")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Note fetched successfully",
		"note":    note,
	})
}

func (h *NoteHandler) Update(c *gin.Context) {
	userID := c.GetUint("user_id")
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	var req models.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		utils.ValidationError(c, validator.Messages(err))
		return
	}

	owner, err := h.noteService.IsOwner(noteID, userID)
	if err != nil {
		logrus.WithError(err).Error("ownership check failed")
		utils.InternalError(c, "Failed to update note")
		return
	}
	if !owner {
		utils.Forbidden(c, "Not authorized to update this note")
		return
	}

	note, err := h.noteService.Update(noteID, &req)
	if err != nil {
		logrus.WithError(err).Error("update note failed")
		utils.InternalError(c, "Failed to update note")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Note updated successfully",
		"note":    note,
	})
}

func (h *NoteHandler) Delete(c *gin.Context) {
	userID := c.GetUint("user_id")
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	owner, err := h.noteService.IsOwner(noteID, userID)
	if err != nil {
		logrus.WithError(err).Error("ownership check failed")
		utils.InternalError(c, "Failed to delete note")
		return
	}
	if !owner {
		utils.Forbidden(c, "Not authorized to delete this note")
		return
	}

	if err := h.noteService.Delete(noteID); err != nil && !errors.Is(err, services.ErrNoteNotFound) {
		logrus.WithError(err).Error("delete note failed")
		utils.InternalError(c, "Failed to delete note")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

func noteIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid note id")
		return 0, false
	}
	return uint(id), true
}
