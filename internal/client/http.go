// Package client talks to a running vigil server: it submits rows as
// batches and follows them until they complete.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/types"
)

const maxErrorBody = 512

// HTTPClient wraps http.Client with the API base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// NewHTTPClient creates a client for baseURL with timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type submitRequest struct {
	BatchID string         `json:"batch_id,omitempty"`
	Rows    []engine.Input `json:"rows"`
}

// SubmitResponse is the acknowledgement of an asynchronous batch.
type SubmitResponse struct {
	Status string `json:"status"`
	types.Submission
}

// Health checks the service health endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Any 200 is healthy; the body is the Prometheus exposition.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w", ErrUnhealthy, statusError(resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Submit posts rows as one batch.
func (c *HTTPClient) Submit(ctx context.Context, batchID string, rows []engine.Input) (SubmitResponse, error) {
	body, err := json.Marshal(submitRequest{BatchID: batchID, Rows: rows})
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/v1/batches", body)
	if err != nil {
		return SubmitResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusAccepted:
		var ack SubmitResponse
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return SubmitResponse{}, fmt.Errorf("failed to decode acknowledgement: %w", err)
		}
		return ack, nil
	case http.StatusTooManyRequests:
		return SubmitResponse{}, fmt.Errorf("%w: %w", ErrBackpressure, statusError(resp))
	default:
		return SubmitResponse{}, statusError(resp)
	}
}

// Batch fetches the status of a batch.
func (c *HTTPClient) Batch(ctx context.Context, batchID string) (types.BatchStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/batches/"+url.PathEscape(batchID), nil)
	if err != nil {
		return types.BatchStatus{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var st types.BatchStatus
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return types.BatchStatus{}, fmt.Errorf("failed to decode batch status: %w", err)
		}
		return st, nil
	case http.StatusNotFound:
		return types.BatchStatus{}, fmt.Errorf("batch %q: %w", batchID, ErrNotFound)
	default:
		return types.BatchStatus{}, statusError(resp)
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
}
