package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zetalabs/teliads/internal/logger"
)

// Warmup returns the Cloud Run warmup handler. It answers 200 with an
// empty body so instance pre-starts succeed.
func Warmup() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Info("Warmup endpoint called")
		c.Status(http.StatusOK)
	}
}
