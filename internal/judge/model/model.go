package model

import "encoding/json"

// SubmissionKind selects between the standard and personalized question
// endpoint sets in the record store. Routing only, the judging behavior
// is identical.
type SubmissionKind string

const (
	KindStandard     SubmissionKind = "standard"
	KindPersonalized SubmissionKind = "personalized"
)

// Valid reports whether the kind is one of the known endpoint sets.
func (k SubmissionKind) Valid() bool {
	return k == KindStandard || k == KindPersonalized
}

// JudgeRequest identifies one grading attempt. Immutable once accepted.
type JudgeRequest struct {
	QuestionID   string
	SubmissionID string
	LanguageID   int
	SourceCode   string
	Kind         SubmissionKind
	Limits       *ExecutionLimits
}

// ExecutionLimits are applied uniformly to every test case in a run.
type ExecutionLimits struct {
	CPUTimeSeconds  *float64 `json:"cpuTimeSeconds,omitempty"`
	MemoryMB        *int     `json:"memoryMb,omitempty"`
	WallTimeSeconds *float64 `json:"wallTimeSeconds,omitempty"`
}

// TestCase is one (input, expected output) pair defining a grading check.
type TestCase struct {
	Stdin          string `json:"stdin"`
	ExpectedStdout string `json:"expectedStdout"`
	Name           string `json:"name,omitempty"`
}

// ExecutionStatus is the execution backend's own classification of a run.
type ExecutionStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Execution backend status ids (judge0 numbering).
const (
	ExecStatusInQueue      = 1
	ExecStatusProcessing   = 2
	ExecStatusAccepted     = 3
	ExecStatusWrongAnswer  = 4
	ExecStatusCompileError = 6
)

// ExecutionOutcome is the raw result of running one test case. Ephemeral,
// never persisted directly.
type ExecutionOutcome struct {
	Stdout        string
	Stderr        *string
	CompileOutput *string
	Message       *string
	Status        ExecutionStatus
	Raw           json.RawMessage
}

// VerdictStatus is the terminal state of a judging run.
type VerdictStatus string

const (
	VerdictPassed VerdictStatus = "passed"
	VerdictFailed VerdictStatus = "failed"
	VerdictError  VerdictStatus = "error"
)

// FailureDetail describes the first failing test case in store order.
type FailureDetail struct {
	Stdin          string `json:"stdin"`
	ActualOutput   string `json:"actualOutput"`
	ExpectedOutput string `json:"expectedOutput"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
}

// SubmissionVerdict is written exactly once to the record store per submission.
type SubmissionVerdict struct {
	Status            VerdictStatus  `json:"status"`
	PassedCount       int            `json:"passedCount"`
	TotalCount        int            `json:"totalCount"`
	FirstFailureIndex *int           `json:"firstFailureIndex,omitempty"`
	FirstFailure      *FailureDetail `json:"firstFailure,omitempty"`
	DurationMs        int64          `json:"durationMs"`
}
