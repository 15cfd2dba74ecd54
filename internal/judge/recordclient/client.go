// Package recordclient is the typed HTTP client for the record store, the
// system of record for questions and submissions. It is the only component
// allowed to mutate submission state.
package recordclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"judgegate/internal/judge/model"
	appErr "judgegate/pkg/errors"
	"judgegate/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// endpoints holds the three record-store paths for one submission kind.
type endpoints struct {
	testCases string
	running   string
	result    string
}

// The standard and personalized question sets are behaviorally identical;
// only the paths differ. A routing table, not a class hierarchy.
var kindEndpoints = map[model.SubmissionKind]endpoints{
	model.KindStandard: {
		testCases: "/v1/questions/testcases",
		running:   "/v1/submissions/running",
		result:    "/v1/submissions/result",
	},
	model.KindPersonalized: {
		testCases: "/v1/personalized/questions/testcases",
		running:   "/v1/personalized/submissions/running",
		result:    "/v1/personalized/submissions/result",
	},
}

// Config holds record store client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a typed HTTP client for the record store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a new record store client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("record store base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}, nil
}

// FetchTestCases returns the test case set owned by a question, fetched
// fresh per judging run. A "not found" response yields (nil, nil): the
// question has no test cases or does not exist, which is not an error here.
func (c *Client) FetchTestCases(ctx context.Context, questionID string, kind model.SubmissionKind) ([]model.TestCase, error) {
	eps, err := c.endpointsFor(kind)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "fetch test cases start", zap.String("question_id", questionID))

	body := map[string]string{"questionId": questionID}
	resp, raw, err := c.post(ctx, eps.testCases, body)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.RecordStoreError, "fetch test cases failed: %v", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, appErr.Newf(appErr.RecordStoreError, "fetch test cases failed: status %d", resp.StatusCode).
			WithDetail("body", string(raw))
	}

	var payload struct {
		TestCases []model.TestCase `json:"testCases"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, appErr.Wrapf(err, appErr.RecordStoreError, "decode test cases failed")
	}
	return payload.TestCases, nil
}

// MarkSubmissionRunning transitions the submission to "running". A failure
// here is fatal to the accept path; the caller must not start processing.
func (c *Client) MarkSubmissionRunning(ctx context.Context, submissionID string, kind model.SubmissionKind) error {
	eps, err := c.endpointsFor(kind)
	if err != nil {
		return err
	}
	logger.Info(ctx, "mark submission running start", zap.String("submission_id", submissionID))

	body := map[string]string{"submissionId": submissionID}
	resp, raw, err := c.post(ctx, eps.running, body)
	if err != nil {
		return appErr.Wrapf(err, appErr.StateTransitionFailed, "mark running failed: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return appErr.Newf(appErr.StateTransitionFailed, "mark running failed: status %d", resp.StatusCode).
			WithDetail("body", string(raw))
	}
	return nil
}

// ReportResult writes the terminal verdict for a submission. Called exactly
// once per run; the processor logs but never retries a failed report.
func (c *Client) ReportResult(ctx context.Context, submissionID string, verdict model.SubmissionVerdict, kind model.SubmissionKind) error {
	eps, err := c.endpointsFor(kind)
	if err != nil {
		return err
	}
	logger.Info(ctx, "report result start",
		zap.String("submission_id", submissionID),
		zap.String("status", string(verdict.Status)),
	)

	body := map[string]interface{}{
		"submissionId": submissionID,
		"verdict":      verdict,
	}
	resp, raw, err := c.post(ctx, eps.result, body)
	if err != nil {
		return appErr.Wrapf(err, appErr.ResultReportFailed, "report result failed: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return appErr.Newf(appErr.ResultReportFailed, "report result failed: status %d", resp.StatusCode).
			WithDetail("body", string(raw))
	}
	return nil
}

func (c *Client) endpointsFor(kind model.SubmissionKind) (endpoints, error) {
	eps, ok := kindEndpoints[kind]
	if !ok {
		return endpoints{}, appErr.New(appErr.InvalidSubmissionKind).WithDetail("kind", string(kind))
	}
	return eps, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response failed: %w", err)
	}
	return resp, raw, nil
}
