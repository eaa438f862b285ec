package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openedu/videovault/pkg/response"
)

// Health returns a simple status payload useful for readiness checks.
// The database ping keeps it honest without making it heavy.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		response.Success(c, code, gin.H{"status": status})
	}
}
