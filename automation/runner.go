// Package automation drives the student portal's feedback forms in a
// headless browser. The rest of the system treats it as a slow, failure-prone
// collaborator that may report progress checkpoints.
package automation

import (
	"context"

	"github.com/easycollege/feedback-orchestrator/entity"
)

// ProgressFunc receives a checkpoint. Implementations must tolerate being
// called from the run's goroutine at any time before Run returns; emitting
// no checkpoints at all is valid.
type ProgressFunc func(progress int, message string)

// Runner performs one whole feedback submission. Failures are returned as
// *entity.AutomationError where the cause is classifiable. Partial on-page
// submissions are not rolled back on failure.
type Runner interface {
	Run(ctx context.Context, kind entity.FeedbackKind, creds entity.Credentials, report ProgressFunc) (*entity.Result, error)
}

// itemProgress spaces per-item checkpoints evenly between formSelected and
// the finalization bound, proportional to the item index.
func itemProgress(index, total int) int {
	if total <= 0 {
		return progressFormSelected
	}
	return progressFormSelected + (progressFinalizing-progressFormSelected)*index/total
}

// Checkpoint bounds observed for this workflow: login and navigation occupy
// the first 30 points, items the next 65, finalization the rest.
const (
	progressInit         = 0
	progressPageAccess   = 5
	progressCredentials  = 10
	progressNavigation   = 20
	progressFormSelected = 30
	progressFinalizing   = 95
)
