// Package execclient is the typed HTTP client for the external sandboxed
// execution backend. It submits one (source, stdin) unit per call and is
// stateless, so independent test cases may be executed concurrently.
package execclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"judgegate/internal/judge/model"
)

const (
	defaultTimeout = 20 * time.Second
	authHeader     = "X-Auth-Token"
)

// TransportError reports an execution call that never produced an outcome:
// the backend was unreachable, timed out, or answered with a non-success
// status. Status is nil when no HTTP response was received.
type TransportError struct {
	Status  *int
	Message string
}

func (e *TransportError) Error() string {
	if e.Status != nil {
		return fmt.Sprintf("execution backend error (status %d): %s", *e.Status, e.Message)
	}
	return fmt.Sprintf("execution backend error: %s", e.Message)
}

// IsTransportError reports whether err is a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Config holds execution backend client settings.
type Config struct {
	BaseURL string
	AuthKey string
	Timeout time.Duration
}

// Client is a typed HTTP client for the execution backend.
type Client struct {
	baseURL    string
	authKey    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a new execution backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("execution backend base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authKey:    cfg.AuthKey,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}, nil
}

// executionRequest is the backend's wire format for one run.
type executionRequest struct {
	SourceCode    string   `json:"source_code"`
	LanguageID    int      `json:"language_id"`
	Stdin         string   `json:"stdin"`
	CPUTimeLimit  *float64 `json:"cpu_time_limit,omitempty"`
	MemoryLimit   *int     `json:"memory_limit,omitempty"`
	WallTimeLimit *float64 `json:"wall_time_limit,omitempty"`
}

// executionResponse is the backend's wire format for an outcome.
type executionResponse struct {
	Stdout        *string               `json:"stdout"`
	Stderr        *string               `json:"stderr"`
	CompileOutput *string               `json:"compile_output"`
	Message       *string               `json:"message"`
	Status        model.ExecutionStatus `json:"status"`
}

// Execute runs one test case's (source, stdin) pair and returns the raw
// outcome. The call is bounded by the configured wall-clock timeout; a
// timed-out call fails with a TransportError, never stays pending.
func (c *Client) Execute(ctx context.Context, languageID int, sourceCode, stdin string, limits *model.ExecutionLimits) (model.ExecutionOutcome, error) {
	reqBody := executionRequest{
		SourceCode: sourceCode,
		LanguageID: languageID,
		Stdin:      stdin,
	}
	if limits != nil {
		reqBody.CPUTimeLimit = limits.CPUTimeSeconds
		reqBody.WallTimeLimit = limits.WallTimeSeconds
		if limits.MemoryMB != nil {
			// The backend expects kilobytes.
			kb := *limits.MemoryMB * 1024
			reqBody.MemoryLimit = &kb
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return model.ExecutionOutcome{}, &TransportError{Message: fmt.Sprintf("marshal request failed: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return model.ExecutionOutcome{}, &TransportError{Message: fmt.Sprintf("build request failed: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authKey != "" {
		req.Header.Set(authHeader, c.authKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.ExecutionOutcome{}, &TransportError{Message: "execution call timed out"}
		}
		return model.ExecutionOutcome{}, &TransportError{Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ExecutionOutcome{}, &TransportError{Message: fmt.Sprintf("read response failed: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status := resp.StatusCode
		return model.ExecutionOutcome{}, &TransportError{
			Status:  &status,
			Message: strings.TrimSpace(string(raw)),
		}
	}

	var body executionResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return model.ExecutionOutcome{}, &TransportError{Message: fmt.Sprintf("decode response failed: %v", err)}
	}

	outcome := model.ExecutionOutcome{
		Stderr:        body.Stderr,
		CompileOutput: body.CompileOutput,
		Message:       body.Message,
		Status:        body.Status,
		Raw:           json.RawMessage(raw),
	}
	if body.Stdout != nil {
		outcome.Stdout = *body.Stdout
	}
	return outcome, nil
}

// Probe checks the backend's lightweight metadata endpoint with a bounded
// timeout. Used by the readiness route.
func (c *Client) Probe(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/about", nil)
	if err != nil {
		return 0, err
	}
	if c.authKey != "" {
		req.Header.Set(authHeader, c.authKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("probe failed: status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
