package response

import (
	"net/http"

	"judgegate/pkg/errors"
	"judgegate/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Envelope represents the judge API response body
type Envelope struct {
	Status       string      `json:"status"`
	SubmissionID string      `json:"submissionId,omitempty"`
	Message      string      `json:"message,omitempty"`
	Details      interface{} `json:"details,omitempty"`
}

// Accepted sends a 202 acknowledgement for an accepted judge request
func Accepted(c *gin.Context, submissionID, message string, details interface{}) {
	c.JSON(http.StatusAccepted, Envelope{
		Status:       "accepted",
		SubmissionID: submissionID,
		Message:      message,
		Details:      details,
	})
}

// Error sends an error response for a submission-scoped request
// It automatically extracts error code and message from the error
func Error(c *gin.Context, submissionID string, err error) {
	customErr := errors.GetError(err)

	logger.Error(c.Request.Context(), "request error",
		zap.Int("code", int(customErr.Code)),
		zap.String("message", customErr.Error()),
		zap.Any("details", customErr.Details),
		zap.String("stack", customErr.Stack),
	)

	details := customErr.Details
	if len(details) == 0 {
		details = nil
	}

	c.JSON(customErr.Code.HTTPStatus(), Envelope{
		Status:       "error",
		SubmissionID: submissionID,
		Message:      customErr.Error(),
		Details:      details,
	})
}

// BadRequest sends a 400 bad request error
func BadRequest(c *gin.Context, submissionID, message string) {
	Error(c, submissionID, errors.BadRequest(message))
}
