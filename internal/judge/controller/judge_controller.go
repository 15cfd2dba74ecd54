package controller

import (
	"time"

	commonmw "judgegate/internal/common/http/middleware"
	"judgegate/internal/judge/model"
	"judgegate/internal/judge/service"
	appErr "judgegate/pkg/errors"
	"judgegate/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// JudgeController handles judge HTTP endpoints.
type JudgeController struct {
	judgeService   *service.Service
	maxSourceBytes int
}

// NewJudgeController creates a new JudgeController.
func NewJudgeController(judgeService *service.Service, maxSourceBytes int) *JudgeController {
	return &JudgeController{
		judgeService:   judgeService,
		maxSourceBytes: maxSourceBytes,
	}
}

// JudgeQuestionRequest defines the judge request payload.
type JudgeQuestionRequest struct {
	QuestionID     string                 `json:"questionId" binding:"required"`
	SubmissionID   string                 `json:"submissionId" binding:"required"`
	LanguageID     int                    `json:"languageId" binding:"required,gt=0"`
	SourceCode     string                 `json:"sourceCode" binding:"required"`
	SubmissionKind string                 `json:"submissionKind" binding:"required,oneof=standard personalized"`
	Limits         *model.ExecutionLimits `json:"limits"`
}

// JudgeQuestion accepts a grading attempt. The submission is marked running
// synchronously; the judging run itself is detached and the caller observes
// the eventual verdict through the record store, not through this call.
func (h *JudgeController) JudgeQuestion(c *gin.Context) {
	var req JudgeQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, "", appErr.New(appErr.ValidationFailed).
			WithMessage("invalid judge request").
			WithDetail("error", err.Error()))
		return
	}
	if len(req.SourceCode) > h.maxSourceBytes {
		response.Error(c, req.SubmissionID, appErr.New(appErr.CodeTooLarge).
			WithDetail("maxBytes", h.maxSourceBytes).
			WithDetail("actualBytes", len(req.SourceCode)))
		return
	}
	if err := validateLimits(req.Limits); err != nil {
		response.Error(c, req.SubmissionID, err)
		return
	}

	judgeReq := model.JudgeRequest{
		QuestionID:   req.QuestionID,
		SubmissionID: req.SubmissionID,
		LanguageID:   req.LanguageID,
		SourceCode:   req.SourceCode,
		Kind:         model.SubmissionKind(req.SubmissionKind),
		Limits:       req.Limits,
	}

	acceptedAt := time.Now()
	if err := h.judgeService.Accept(c.Request.Context(), judgeReq); err != nil {
		response.Error(c, req.SubmissionID, err)
		return
	}

	requestID := commonmw.RequestID(c)
	response.Accepted(c, req.SubmissionID, "submission accepted for judging", gin.H{
		"requestId": requestID,
	})

	// Acknowledged; everything from here on is decoupled from this request.
	h.judgeService.Dispatch(judgeReq, requestID, acceptedAt)
}

func validateLimits(limits *model.ExecutionLimits) error {
	if limits == nil {
		return nil
	}
	if limits.CPUTimeSeconds != nil && *limits.CPUTimeSeconds <= 0 {
		return appErr.ValidationError("limits.cpuTimeSeconds", "must be positive")
	}
	if limits.MemoryMB != nil && *limits.MemoryMB <= 0 {
		return appErr.ValidationError("limits.memoryMb", "must be positive")
	}
	if limits.WallTimeSeconds != nil && *limits.WallTimeSeconds <= 0 {
		return appErr.ValidationError("limits.wallTimeSeconds", "must be positive")
	}
	return nil
}
