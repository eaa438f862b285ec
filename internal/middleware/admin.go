package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openedu/videovault/internal/models"
	appErrors "github.com/openedu/videovault/pkg/errors"
	"github.com/openedu/videovault/pkg/response"
)

// RequireAdmin gates a route group to administrator accounts. It runs after
// Auth, so the user ID is already in the request context; the flag is read
// from the database on every request so a demotion takes effect immediately.
func RequireAdmin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		var user models.User
		err := db.Select("is_admin", "is_active").Take(&user, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if err != nil {
			response.Error(c, appErrors.Wrap(err, "load user"))
			c.Abort()
			return
		}

		if !user.IsActive || !user.IsAdmin {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
