package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 20000-20999: System & Common errors
// 21000-21999: Judge request validation errors
// 22000-22999: Record-store (data) errors
// 23000-23999: Execution-backend (transport) errors
// 24000-24999: Judging pipeline errors

const (
	// ========== System & Common Errors (20000-20999) ==========

	// Success
	Success ErrorCode = 20000

	// Generic errors (20000-20099)
	InternalServerError ErrorCode = 20001
	InvalidParams       ErrorCode = 20002
	NotFound            ErrorCode = 20003
	ServiceUnavailable  ErrorCode = 20004
	Timeout             ErrorCode = 20005

	// Cache errors (20100-20199)
	CacheError ErrorCode = 20100
	LockFailed ErrorCode = 20101

	// Validation errors (20200-20299)
	ValidationFailed   ErrorCode = 20200
	RequiredFieldEmpty ErrorCode = 20201

	// ========== Judge Request Validation (21000-21999) ==========

	CodeTooLarge          ErrorCode = 21000
	LanguageNotSupported  ErrorCode = 21001
	InvalidSubmissionKind ErrorCode = 21002
	SubmissionInFlight    ErrorCode = 21003

	// ========== Record-Store Errors (22000-22999) ==========

	RecordStoreError      ErrorCode = 22000
	TestCasesNotFound     ErrorCode = 22001
	StateTransitionFailed ErrorCode = 22002
	ResultReportFailed    ErrorCode = 22003

	// ========== Execution-Backend Errors (23000-23999) ==========

	ExecutionUnavailable ErrorCode = 23000
	ExecutionTimeout     ErrorCode = 23001
	ExecutionRejected    ErrorCode = 23002

	// ========== Judging Pipeline Errors (24000-24999) ==========

	JudgeSystemError ErrorCode = 24000
	TooManyTestCases ErrorCode = 24001
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Cache
	CacheError: "Cache operation failed",
	LockFailed: "Failed to acquire lock",

	// Validation
	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	// Judge request validation
	CodeTooLarge:          "Source code is too large",
	LanguageNotSupported:  "Programming language not supported",
	InvalidSubmissionKind: "Unknown submission kind",
	SubmissionInFlight:    "Submission is already being judged",

	// Record store
	RecordStoreError:      "Record store request failed",
	TestCasesNotFound:     "Test cases not found",
	StateTransitionFailed: "Failed to mark submission running",
	ResultReportFailed:    "Failed to report submission result",

	// Execution backend
	ExecutionUnavailable: "Execution backend unavailable",
	ExecutionTimeout:     "Execution backend timed out",
	ExecutionRejected:    "Execution backend rejected the request",

	// Judging pipeline
	JudgeSystemError: "Judge system error",
	TooManyTestCases: "Too many test cases",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == TestCasesNotFound:
		return 404
	case c == ServiceUnavailable:
		return 503
	case c == StateTransitionFailed:
		return 502
	case c >= 20200 && c < 20300: // Validation errors
		return 400
	case c >= 21000 && c < 22000: // Judge request validation
		return 400
	case c == InvalidParams:
		return 400
	default:
		return 500
	}
}
