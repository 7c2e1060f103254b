package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devil-1964/notesapp/internal/config"
	"github.com/devil-1964/notesapp/internal/models"
	"github.com/devil-1964/notesapp/internal/services"
	"github.com/devil-1964/notesapp/internal/utils"
	"github.com/devil-1964/notesapp/pkg/validator"
)

type AuthHandler struct {
	authService *services.AuthService
	config      *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      cfg,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		utils.ValidationError(c, validator.Messages(err))
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			utils.Error(c, http.StatusBadRequest, "User with this email or username already exists")
			return
		}
		logrus.WithError(err).Error("registration failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	token, err := utils.GenerateToken(user.ID, h.config.JWT.Secret, h.config.JWT.ExpireHours)
	if err != nil {
		logrus.WithError(err).Error("token generation failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		utils.ValidationError(c, validator.Messages(err))
		return
	}

	user, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.Unauthorized(c, "Invalid credentials")
			return
		}
		logrus.WithError(err).Error("login failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	token, err := utils.GenerateToken(user.ID, h.config.JWT.Secret, h.config.JWT.ExpireHours)
	if err != nil {
		logrus.WithError(err).Error("token generation failed")
		utils.InternalError(c, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login Successful",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, exists := c.Get("user")
	if !exists {
		utils.Unauthorized(c, "No token provided")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
