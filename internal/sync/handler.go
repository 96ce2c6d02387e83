package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zetalabs/teliads/internal/logger"
)

// Handler returns the GET /sync handler. A sync run has no deadline of its
// own — it inherits the request context, and requests are never killed on
// elapsed time.
func Handler(comp *Component, log *logger.Logger) gin.HandlerFunc {
	hlog := log.WithComponent("sync-handler")

	return func(c *gin.Context) {
		svc := comp.Service()
		if svc == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "error",
				"message": "sync service not ready",
			})
			return
		}

		hlog.Info("Starting sync process")

		report, err := svc.Run(c.Request.Context())
		if err != nil {
			hlog.Error("Sync failed", logger.ErrorFields("sync", err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Data sync completed",
			"report":  report,
		})
	}
}
