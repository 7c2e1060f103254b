package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devil-1964/notesapp/internal/config"
	"github.com/devil-1964/notesapp/internal/models"
	"github.com/devil-1964/notesapp/internal/utils"
)

// Auth guards every route except register, login, and the public shared
// route. Expired and malformed tokens get distinct messages; both are 401.
func Auth(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			utils.Unauthorized(c, "No token provided")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(token, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.Unauthorized(c, "Token expired")
			} else {
				utils.Unauthorized(c, "Invalid Token")
			}
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Unauthorized(c, "User not found")
			} else {
				utils.InternalError(c, "Authentication failed")
			}
			c.Abort()
			return
		}

		c.Set("user", &user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
