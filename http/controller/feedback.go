package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/easycollege/feedback-orchestrator/entity"
	"github.com/easycollege/feedback-orchestrator/http/controller/dto"
	"github.com/easycollege/feedback-orchestrator/utils"
)

// RunFeedback validates a submission, creates the job record, and hands the
// run to the execution backend. It returns the handle without waiting for
// any part of the run.
func (ctrl *Controller) RunFeedback(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RunFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Missing required data: rollno, password, and feedback_type")
		return
	}

	kind := entity.FeedbackKind(*req.FeedbackType)
	if !kind.Valid() {
		utils.JSON400(c, "Invalid feedback_type: must be 0 (end-semester) or 1 (intermediate)")
		return
	}

	job := entity.NewJob(kind)
	if err := ctrl.Store.Create(ctx, job); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Feedback] Failed to create job record: %v", err)
		utils.JSON500(c, "Failed to queue task: status store unavailable")
		return
	}

	msg := entity.JobMessage{
		JobID: job.ID,
		Kind:  kind,
		Credentials: entity.Credentials{
			RollNo:   req.RollNo,
			Password: req.Password,
		},
	}

	position, err := ctrl.Backend.Dispatch(ctx, msg)
	if err != nil {
		// No orphaned records: a rejected submission leaves nothing behind.
		_ = ctrl.Store.Delete(ctx, job.ID)
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Feedback] Failed to dispatch job %s: %v", job.ID, err)
		utils.JSON500(c, "Failed to queue task: execution backend unavailable")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Feedback] Queued job %s (%s) for %s",
		job.ID, kind, utils.MaskRollNo(req.RollNo))

	resp := gin.H{
		"status":  "Task queued successfully",
		"task_id": job.ID,
	}
	if position != nil {
		resp["position"] = *position
	}
	utils.JSON202(c, resp)
}
