package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easycollege/feedback-orchestrator/utils"
)

// HealthCheck verifies the status store dependency is reachable.
func (ctrl *Controller) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	if err := ctrl.Store.Ping(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":    "unhealthy",
			"redis":     err.Error(),
			"timestamp": time.Now().Unix(),
		})
		return
	}
	utils.JSON200(c, gin.H{
		"status":    "healthy",
		"redis":     "connected",
		"timestamp": time.Now().Unix(),
	})
}

// KeepAlive never fails the HTTP layer; hosting platforms ping it to keep
// the process warm even when the dependency is down.
func (ctrl *Controller) KeepAlive(c *gin.Context) {
	ctx := c.Request.Context()

	if err := ctrl.Store.Ping(ctx); err != nil {
		utils.JSON200(c, gin.H{
			"status":    "degraded",
			"message":   "Service running but store unreachable: " + err.Error(),
			"timestamp": time.Now().Unix(),
		})
		return
	}

	body := gin.H{
		"status":    "alive",
		"message":   "Service is running",
		"redis":     "connected",
		"timestamp": time.Now().Unix(),
	}
	if stats, err := ctrl.Store.Stats(ctx); err == nil {
		body["queue_stats"] = gin.H{
			"queued":   stats.Queued,
			"failed":   stats.Failed,
			"finished": stats.Finished,
			"started":  stats.Started,
		}
	}
	utils.JSON200(c, body)
}

// QueueStats reports registry counts for observability.
func (ctrl *Controller) QueueStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := ctrl.Store.Stats(ctx)
	if err != nil {
		utils.JSON500(c, err.Error())
		return
	}
	utils.JSON200(c, gin.H{
		"queued_jobs":   stats.Queued,
		"failed_jobs":   stats.Failed,
		"finished_jobs": stats.Finished,
		"started_jobs":  stats.Started,
	})
}
