package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/okian/vigil/internal/domain/engine"
)

const (
	defaultHTTPTimeout  = 30 * time.Second
	breakerInterval     = 60 * time.Second
	breakerTimeout      = 60 * time.Second
	breakerTripFailures = 3
	breakerMinRequests  = 20
	breakerFailureRatio = 0.05
	maxErrorBodyBytes   = 512
)

type predictRequest struct {
	Model   string          `json:"model"`
	Records []predictRecord `json:"records"`
}

type predictRecord struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

type predictResponse struct {
	Predictions []string `json:"predictions"`
}

// HTTPPredictor asks a remote model server for predictions. Calls go through
// a circuit breaker that opens after consecutive failures.
type HTTPPredictor struct {
	name    string
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// HTTPOption configures an HTTPPredictor.
type HTTPOption func(*HTTPPredictor)

// WithHTTPClient sets the client used to reach the model server.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPPredictor) {
		if c != nil {
			p.client = c
		}
	}
}

// NewHTTPPredictor creates a predictor for model name served at url.
func NewHTTPPredictor(name, url string, opts ...HTTPOption) *HTTPPredictor {
	p := &HTTPPredictor{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	st := gobreaker.Settings{Name: "model-" + name}
	st.Interval = breakerInterval
	st.Timeout = breakerTimeout
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= breakerTripFailures {
			return true
		}
		if counts.Requests < breakerMinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > breakerFailureRatio
	}
	p.breaker = gobreaker.NewCircuitBreaker(st)
	return p
}

// Name returns the model name.
func (p *HTTPPredictor) Name() string { return p.name }

// State returns the breaker state.
func (p *HTTPPredictor) State() gobreaker.State { return p.breaker.State() }

// Predict posts rows to the model server.
func (p *HTTPPredictor) Predict(ctx context.Context, rows []engine.Input) ([]string, error) {
	out, err := p.breaker.Execute(func() (any, error) { return p.call(ctx, rows) })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrBreakerOpen, p.name)
	}
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

func (p *HTTPPredictor) call(ctx context.Context, rows []engine.Input) ([]string, error) {
	req := predictRequest{Model: p.name, Records: make([]predictRecord, len(rows))}
	for i, row := range rows {
		req.Records[i] = predictRecord{ID: row.RecordID, Fields: row.Fields}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("model server %s: status %d: %s", p.name, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return pr.Predictions, nil
}
