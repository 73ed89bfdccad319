package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sigweihq/tipjar/pkg/constants"
	"github.com/sigweihq/tipjar/pkg/utils"
)

// RequestIDHeader correlates a request with backend logs
const RequestIDHeader = "X-Request-ID"

// httpRequest is the shared helper behind every sub-client.
// Transport failures are marked retryable; non-2xx responses come back as *HTTPError.
func httpRequest(ctx context.Context, client *http.Client, method, url string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return utils.WrapRetryable(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	limitedReader := io.LimitReader(resp.Body, int64(constants.MaxResponseBodySize))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(limitedReader)
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       bodyBytes,
		}
	}

	if result != nil {
		if err := json.NewDecoder(limitedReader).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// HTTPError represents an HTTP error with status code and response body
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if len(e.Body) > 0 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
			Details string `json:"details"`
		}
		if err := json.Unmarshal(e.Body, &errResp); err == nil {
			msg := errResp.Error
			if msg == "" {
				msg = errResp.Message
			}
			if errResp.Details != "" {
				return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, msg, errResp.Details)
			}
			if msg != "" {
				return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
			}
		}
		return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, string(e.Body))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// IsNotFound returns true if the error is a 404 Not Found error
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Retryable returns true for 5xx and 429 responses
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// IsRetryable reports whether err is a transport failure or a retryable HTTP status
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return utils.IsRetryable(err)
}
