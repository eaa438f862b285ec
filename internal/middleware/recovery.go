package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/openedu/videovault/pkg/errors"
	"github.com/openedu/videovault/pkg/logger"
	"github.com/openedu/videovault/pkg/response"
)

// Recovery converts panics into a generic 500 envelope. The panic value and
// stack go to the log only, never to the client.
func Recovery() gin.HandlerFunc {
	log := logger.WithModule("http")

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", r),
					zap.ByteString("stack", debug.Stack()),
				)
				c.Abort()
				response.Error(c, appErrors.ErrInternalServer)
			}
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with the standard error envelope.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, appErrors.NewNotFound(fmt.Sprintf("route %s not found", c.Request.URL.Path)))
}
