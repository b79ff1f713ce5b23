package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Paths of the generation endpoints, relative to HTTPConfig.Endpoint.
const (
	WeekPath = "/generate-week"
	PlanPath = "/generate-roadmap"
)

// maxResponseBytes caps how much of an upstream response is read.
const maxResponseBytes = 4 << 20

// HTTPConfig configures the remote generation endpoint.
type HTTPConfig struct {
	// Endpoint is the base URL the generation paths are appended to.
	Endpoint string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
}

// WireRequest is the JSON body of a generation call.
type WireRequest struct {
	UserGoal       string `json:"userGoal"`
	TimeCommitment string `json:"timeCommitment"`
	Week           int    `json:"week,omitempty"`
	TotalWeeks     int    `json:"totalWeeks"`
}

// HTTPClient is a Generator backed by the remote generation protocol.
type HTTPClient struct {
	cfg  HTTPConfig
	http *http.Client
}

// NewHTTPClient creates an HTTPClient. Deadlines come from the caller's context.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	return &HTTPClient{
		cfg: HTTPConfig{Endpoint: strings.TrimRight(cfg.Endpoint, "/"), APIKey: cfg.APIKey},
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

func (c *HTTPClient) GenerateWeek(ctx context.Context, req Request) (string, error) {
	body := WireRequest{
		UserGoal:       req.Goal,
		TimeCommitment: string(req.TimeCommitment),
		Week:           req.Week,
		TotalWeeks:     req.TotalWeeks,
	}
	return c.call(ctx, OpWeek, WeekPath, "weekData", body)
}

func (c *HTTPClient) GeneratePlan(ctx context.Context, req Request) (string, error) {
	body := WireRequest{
		UserGoal:       req.Goal,
		TimeCommitment: string(req.TimeCommitment),
		TotalWeeks:     req.TotalWeeks,
	}
	return c.call(ctx, OpPlan, PlanPath, "roadmap", body)
}

func (c *HTTPClient) call(ctx context.Context, op, path, field string, body WireRequest) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", &GenerationError{Op: op, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(data))
	if err != nil {
		return "", &GenerationError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &GenerationError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return "", &GenerationError{Op: op, Status: httpResp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return "", &GenerationError{Op: op, Status: httpResp.StatusCode, Err: errors.New(upstreamMessage(respBody))}
	}

	text, err := payloadField(respBody, field)
	if err != nil {
		return "", &GenerationError{Op: op, Status: httpResp.StatusCode, Err: err}
	}
	return text, nil
}

// payloadField returns the raw text of field in a JSON object body. A string
// payload is returned as its value so double-encoded documents reach the
// parser unwrapped.
func payloadField(body []byte, field string) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", errors.New("empty response body")
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("response is not a JSON object: %w", err)
	}
	raw, ok := envelope[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("response has no %q payload", field)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("response %q payload is empty", field)
		}
		return s, nil
	}
	return string(raw), nil
}

// upstreamMessage extracts the error text of a failed call, accepting both
// {"error": "..."} and {"error": {"message": "..."}}.
func upstreamMessage(body []byte) string {
	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return msg
	}
	return "no error message"
}
