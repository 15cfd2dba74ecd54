// Package service orchestrates the judging pipeline: fetch test cases, run
// each against the execution backend, compare outputs, and report the final
// verdict to the record store.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"judgegate/internal/judge/comparator"
	"judgegate/internal/judge/execclient"
	"judgegate/internal/judge/guard"
	"judgegate/internal/judge/model"
	"judgegate/pkg/utils/contextkey"
	"judgegate/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecordStore is the slice of the record-store client the processor needs.
type RecordStore interface {
	FetchTestCases(ctx context.Context, questionID string, kind model.SubmissionKind) ([]model.TestCase, error)
	MarkSubmissionRunning(ctx context.Context, submissionID string, kind model.SubmissionKind) error
	ReportResult(ctx context.Context, submissionID string, verdict model.SubmissionVerdict, kind model.SubmissionKind) error
}

// Executor runs one test case against the execution backend.
type Executor interface {
	Execute(ctx context.Context, languageID int, sourceCode, stdin string, limits *model.ExecutionLimits) (model.ExecutionOutcome, error)
}

// Config holds service dependencies and settings.
type Config struct {
	RecordStore    RecordStore
	Executor       Executor
	Guard          *guard.Guard
	MaxTestCases   int
	WorkerPoolSize int
	CompareOptions comparator.Options
}

// Service accepts judge requests and processes them as detached runs.
type Service struct {
	recordStore  RecordStore
	executor     Executor
	guard        *guard.Guard
	maxTestCases int
	compareOpts  comparator.Options
	sem          chan struct{}
}

const defaultMaxTestCases = 50

// NewService creates a new judge service.
func NewService(cfg Config) (*Service, error) {
	if cfg.RecordStore == nil {
		return nil, fmt.Errorf("record store client is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor client is required")
	}
	if cfg.Guard == nil {
		return nil, fmt.Errorf("inflight guard is required")
	}
	maxTestCases := cfg.MaxTestCases
	if maxTestCases <= 0 {
		maxTestCases = defaultMaxTestCases
	}
	poolSize := cfg.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	return &Service{
		recordStore:  cfg.RecordStore,
		executor:     cfg.Executor,
		guard:        cfg.Guard,
		maxTestCases: maxTestCases,
		compareOpts:  cfg.CompareOptions,
		sem:          make(chan struct{}, poolSize),
	}, nil
}

// Accept performs the synchronous part of a judge request: claim the
// in-flight slot and mark the submission running in the record store.
// On success the submission is committed to eventually receive exactly one
// terminal verdict; the caller must follow up with Dispatch.
func (s *Service) Accept(ctx context.Context, req model.JudgeRequest) error {
	if err := s.guard.Acquire(ctx, req.SubmissionID); err != nil {
		return err
	}
	if err := s.recordStore.MarkSubmissionRunning(ctx, req.SubmissionID, req.Kind); err != nil {
		// The store never confirmed "running"; the submission keeps
		// whatever state the store already had.
		s.guard.Release(ctx, req.SubmissionID)
		return err
	}
	return nil
}

// Dispatch schedules the detached judging run for an accepted request and
// returns immediately. Every error past this point is absorbed here and
// converted into the single terminal report; nothing propagates back to the
// request lifecycle, which has already completed.
func (s *Service) Dispatch(req model.JudgeRequest, requestID string, acceptedAt time.Time) {
	go func() {
		// The originating request context is gone; only the request id
		// survives into the detached run.
		ctx := context.WithValue(context.Background(), contextkey.RequestID, requestID)

		defer s.guard.Release(ctx, req.SubmissionID)

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		// Exactly-once discipline: one attempt, no retry. reported is
		// flipped before the call so a panic inside ReportResult cannot
		// produce a second report from the recover path.
		reported := false
		report := func(verdict model.SubmissionVerdict) {
			if reported {
				return
			}
			reported = true
			if err := s.recordStore.ReportResult(ctx, req.SubmissionID, verdict, req.Kind); err != nil {
				logger.Error(ctx, "report result failed",
					zap.String("submission_id", req.SubmissionID),
					zap.Error(err),
				)
				return
			}
			logger.Info(ctx, "judging run finished",
				zap.String("submission_id", req.SubmissionID),
				zap.String("status", string(verdict.Status)),
				zap.Int("passed", verdict.PassedCount),
				zap.Int("total", verdict.TotalCount),
				zap.Int64("duration_ms", verdict.DurationMs),
			)
		}

		// A panicking run still owes the record store its terminal
		// verdict; the submission must never stay running forever.
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "judging run panicked",
					zap.String("submission_id", req.SubmissionID),
					zap.Any("panic", r),
				)
				report(errorVerdict(acceptedAt, fmt.Sprintf("judging run panicked: %v", r)))
			}
		}()

		report(s.process(ctx, req, acceptedAt))
	}()
}

// caseResult is the indexed slot one concurrent execution call fills in.
type caseResult struct {
	passed          bool
	transportFailed bool
	actualOutput    string
	expectedOutput  string
	errorMessage    string
}

// process evaluates all test cases and builds the verdict. It never returns
// an error: every failure mode collapses into a verdict.
func (s *Service) process(ctx context.Context, req model.JudgeRequest, acceptedAt time.Time) model.SubmissionVerdict {
	testCases, err := s.recordStore.FetchTestCases(ctx, req.QuestionID, req.Kind)
	if err != nil {
		logger.Error(ctx, "fetch test cases failed",
			zap.String("submission_id", req.SubmissionID),
			zap.Error(err),
		)
		return errorVerdict(acceptedAt, fmt.Sprintf("fetching test cases failed: %v", err))
	}
	if testCases == nil {
		return errorVerdict(acceptedAt, fmt.Sprintf("no test cases found for question %s", req.QuestionID))
	}
	if len(testCases) == 0 {
		return errorVerdict(acceptedAt, fmt.Sprintf("question %s has an empty test case set", req.QuestionID))
	}
	if len(testCases) > s.maxTestCases {
		return errorVerdict(acceptedAt, fmt.Sprintf("question has %d test cases, limit is %d", len(testCases), s.maxTestCases))
	}

	// Concurrent dispatch with order-preserving aggregation: each call
	// fills its own indexed slot, then the reduce below walks store order.
	results := make([]caseResult, len(testCases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cap(s.sem))
	for i, tc := range testCases {
		i, tc := i, tc
		g.Go(func() error {
			// errgroup does not recover panics in f; an unrecovered one
			// here would take down the process, not just this run.
			defer func() {
				if r := recover(); r != nil {
					results[i] = caseResult{
						expectedOutput: tc.ExpectedStdout,
						errorMessage:   fmt.Sprintf("execution panicked: %v", r),
					}
				}
			}()
			outcome, execErr := s.executor.Execute(gctx, req.LanguageID, req.SourceCode, tc.Stdin, req.Limits)
			results[i] = s.evaluate(tc, outcome, execErr)
			return nil
		})
	}
	_ = g.Wait()

	return s.aggregate(testCases, results, acceptedAt)
}

// evaluate decides pass/fail for one test case from its raw outcome.
func (s *Service) evaluate(tc model.TestCase, outcome model.ExecutionOutcome, execErr error) caseResult {
	if execErr != nil {
		return caseResult{
			transportFailed: execclient.IsTransportError(execErr),
			expectedOutput:  tc.ExpectedStdout,
			errorMessage:    execErr.Error(),
		}
	}

	switch outcome.Status.ID {
	case model.ExecStatusAccepted, model.ExecStatusWrongAnswer:
		// The backend's own answer judgment is ignored; the comparator is
		// the single source of truth for output equality.
		cmp := comparator.Compare(outcome.Stdout, tc.ExpectedStdout, s.compareOpts)
		return caseResult{
			passed:         cmp.Match,
			actualOutput:   outcome.Stdout,
			expectedOutput: tc.ExpectedStdout,
		}
	case model.ExecStatusInQueue, model.ExecStatusProcessing:
		// A waited call should never come back unfinished.
		return caseResult{
			transportFailed: true,
			expectedOutput:  tc.ExpectedStdout,
			errorMessage:    fmt.Sprintf("execution backend returned unfinished status %q", outcome.Status.Description),
		}
	default:
		return caseResult{
			actualOutput:   outcome.Stdout,
			expectedOutput: tc.ExpectedStdout,
			errorMessage:   outcomeDiagnostic(outcome),
		}
	}
}

// aggregate reduces the indexed slots in store order, so the first failure
// is the first index-order failure regardless of completion order.
func (s *Service) aggregate(testCases []model.TestCase, results []caseResult, acceptedAt time.Time) model.SubmissionVerdict {
	passedCount := 0
	transportFailures := 0
	firstFailureIndex := -1
	for i, res := range results {
		if res.passed {
			passedCount++
			continue
		}
		if res.transportFailed {
			transportFailures++
		}
		if firstFailureIndex < 0 {
			firstFailureIndex = i
		}
	}

	// Infrastructure fault, not a grading fault: only when every single
	// case failed on transport alone.
	if transportFailures == len(results) {
		return errorVerdict(acceptedAt, "execution backend unreachable for all test cases")
	}

	verdict := model.SubmissionVerdict{
		Status:      model.VerdictPassed,
		PassedCount: passedCount,
		TotalCount:  len(results),
		DurationMs:  time.Since(acceptedAt).Milliseconds(),
	}
	if firstFailureIndex >= 0 {
		failed := results[firstFailureIndex]
		verdict.Status = model.VerdictFailed
		verdict.FirstFailureIndex = &firstFailureIndex
		verdict.FirstFailure = &model.FailureDetail{
			Stdin:          testCases[firstFailureIndex].Stdin,
			ActualOutput:   failed.actualOutput,
			ExpectedOutput: failed.expectedOutput,
			ErrorMessage:   failed.errorMessage,
		}
	}
	return verdict
}

func errorVerdict(acceptedAt time.Time, message string) model.SubmissionVerdict {
	return model.SubmissionVerdict{
		Status:     model.VerdictError,
		DurationMs: time.Since(acceptedAt).Milliseconds(),
		FirstFailure: &model.FailureDetail{
			ErrorMessage: message,
		},
	}
}

// outcomeDiagnostic picks the most useful error text from a failed outcome.
func outcomeDiagnostic(outcome model.ExecutionOutcome) string {
	parts := make([]string, 0, 2)
	if outcome.Status.Description != "" {
		parts = append(parts, outcome.Status.Description)
	}
	if outcome.CompileOutput != nil && strings.TrimSpace(*outcome.CompileOutput) != "" {
		parts = append(parts, strings.TrimSpace(*outcome.CompileOutput))
	} else if outcome.Stderr != nil && strings.TrimSpace(*outcome.Stderr) != "" {
		parts = append(parts, strings.TrimSpace(*outcome.Stderr))
	} else if outcome.Message != nil && strings.TrimSpace(*outcome.Message) != "" {
		parts = append(parts, strings.TrimSpace(*outcome.Message))
	}
	if len(parts) == 0 {
		return "execution failed"
	}
	return strings.Join(parts, ": ")
}
