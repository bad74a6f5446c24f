package dto

// RunFeedbackRequest is the submission payload. FeedbackType is a pointer so
// a missing field is distinguishable from the valid zero value.
type RunFeedbackRequest struct {
	RollNo       string `json:"rollno" binding:"required"`
	Password     string `json:"password" binding:"required"`
	FeedbackType *int   `json:"feedback_type" binding:"required"`
}
