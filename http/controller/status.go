package controller

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/easycollege/feedback-orchestrator/backend"
	"github.com/easycollege/feedback-orchestrator/entity"
	"github.com/easycollege/feedback-orchestrator/utils"
)

// GetStatus returns the current snapshot of a job. Unknown and expired
// handles are 404 forever; failed jobs are data, not transport errors.
func (ctrl *Controller) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	taskID := c.Param("task_id")

	job, err := ctrl.Store.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			utils.JSON404(c, "Task not found or invalid task ID: "+taskID)
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Status] Failed to read job %s: %v", taskID, err)
		utils.JSON500(c, "Failed to read task status")
		return
	}

	snapshot := job.Snapshot()
	if job.State == entity.StateQueued {
		if positioner, ok := ctrl.Backend.(backend.Positioner); ok {
			if position, err := positioner.Position(ctx, taskID); err == nil && position != nil {
				snapshot.QueuePosition = position
				snapshot.Message = fmt.Sprintf("Waiting in queue (position: %d)", *position)
			}
		}
	}

	c.JSON(200, snapshot)
}
