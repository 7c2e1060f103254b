package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devil-1964/notesapp/internal/config"
	"github.com/devil-1964/notesapp/internal/services"
	"github.com/devil-1964/notesapp/internal/utils"
)

type ShareHandler struct {
	shareService *services.ShareService
	config       *config.Config
}

func NewShareHandler(shareService *services.ShareService, cfg *config.Config) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		config:       cfg,
	}
}

func (h *ShareHandler) Generate(c *gin.Context) {
	userID := c.GetUint("user_id")
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	link, err := h.shareService.Generate(noteID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotOwner) {
			utils.Forbidden(c, "Not authorized to share this note")
			return
		}
		logrus.WithError(err).Error("share generation failed")
		utils.InternalError(c, "Failed to generate share link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shareLink": h.shareURL(link.Token),
		"noteId":    noteID,
	})
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	userID := c.GetUint("user_id")
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	err := h.shareService.Revoke(noteID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotOwner):
			utils.Forbidden(c, "Not authorized to share this note")
		case errors.Is(err, services.ErrShareNotFound):
			// Ownership already held here, so "no link" is an ordinary
			// empty state and safe to name.
			utils.NotFound(c, "No active share link found")
		default:
			logrus.WithError(err).Error("share revocation failed")
			utils.InternalError(c, "Failed to revoke share link")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Share link revoked successfully",
		"noteId":  noteID,
	})
}

func (h *ShareHandler) Status(c *gin.Context) {
	userID := c.GetUint("user_id")
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	link, err := h.shareService.Status(noteID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotOwner):
			utils.Forbidden(c, "Not authorized to access this note")
		case errors.Is(err, services.ErrShareNotFound):
			c.JSON(http.StatusOK, gin.H{
				"isShared":  false,
				"shareLink": nil,
				"createdAt": nil,
			})
		default:
			logrus.WithError(err).Error("share status failed")
			utils.InternalError(c, "Failed to get share status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isShared":  true,
		"shareLink": h.shareURL(link.Token),
		"createdAt": link.CreatedAt,
	})
}

// Resolve is the only public note route: token in, public projection out,
// no authentication. Unknown and revoked tokens are the same 404.
func (h *ShareHandler) Resolve(c *gin.Context) {
	token := c.Param("token")

	shared, err := h.shareService.Resolve(token)
	if err != nil {
		if errors.Is(err, services.ErrShareNotFound) {
			utils.NotFound(c, "Shared note not found or link revoked")
			return
		}
		logrus.WithError(err).Error("share resolution failed")
		utils.InternalError(c, "Failed to fetch shared note")
		return
	}

	c.JSON(http.StatusOK, shared)
}

func (h *ShareHandler) shareURL(token string) string {
	return fmt.Sprintf("%s/shared/%s", h.config.Share.BaseURL, token)
}
